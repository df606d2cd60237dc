// Package session holds the logged-in identity of the browser behind one
// navigation. The identity is decoded from the user-info cookie written by
// the upload backend and is only ever replaced as a whole.
package session

import (
	"strings"

	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
	"github.com/jrsteele09/go-upload-web/internal/utils"
	"github.com/rs/zerolog"
)

// Session is the identity record handed to the guard and the page views.
// A logged out session has every identity field unset; a logged in session
// always has a non-blank UserID and UserName.
type Session struct {
	IsLoggedIn bool    `json:"isLoggedIn"`
	UserID     *string `json:"userId"`
	UserName   *string `json:"userName"`
	UserAvatar *string `json:"userAvatar"`
}

// LoggedOut returns the cleared session.
func LoggedOut() Session {
	return Session{}
}

// LoggedIn builds a logged in session. An empty avatar is left unset.
func LoggedIn(userID, userName, userAvatar string) (Session, error) {
	s := Session{
		IsLoggedIn: true,
		UserID:     utils.NonEmpty(userID),
		UserName:   utils.NonEmpty(userName),
		UserAvatar: utils.NonEmpty(userAvatar),
	}
	return s, s.Validate()
}

// Validate checks the identity invariants of s.
func (s Session) Validate() error {
	if !s.IsLoggedIn {
		return nil
	}
	if strings.TrimSpace(utils.Value(s.UserID)) == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidSession, "logged in session without user id")
	}
	if strings.TrimSpace(utils.Value(s.UserName)) == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidSession, "logged in session without user name")
	}
	return nil
}

// normalize drops identity fields from a logged out session.
func (s Session) normalize() Session {
	if !s.IsLoggedIn {
		return LoggedOut()
	}
	return Session{
		IsLoggedIn: true,
		UserID:     utils.Ptr(utils.Value(s.UserID)),
		UserName:   utils.Ptr(utils.Value(s.UserName)),
		UserAvatar: utils.NonEmpty(utils.Value(s.UserAvatar)),
	}
}

// MarshalZerologObject logs the login state and identity, never the avatar.
func (s Session) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("logged_in", s.IsLoggedIn)
	if s.IsLoggedIn {
		e.Str("user_id", utils.Value(s.UserID)).Str("user_name", utils.Value(s.UserName))
	}
}
