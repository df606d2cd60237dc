package session

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
	"github.com/jrsteele09/go-upload-web/internal/utils"
)

// UserInfo is the payload of the user-info cookie.
type UserInfo struct {
	UserID     json.RawMessage `json:"userId"`
	Username   *string         `json:"username"`
	UserAvatar *string         `json:"userAvatar"`
}

// DecodeUserInfo turns a raw user-info cookie value into a logged in session.
// Any failure is reported as ErrMalformedCredential and no partial session is
// returned.
func DecodeUserInfo(raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return LoggedOut(), apperrors.ErrMissingCredential
	}
	// Some cookie writers quote values that contain JSON punctuation.
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return LoggedOut(), apperrors.Wrapf(apperrors.ErrMalformedCredential, "unescape user-info: %v", err)
	}

	var info UserInfo
	if err := json.Unmarshal([]byte(decoded), &info); err != nil {
		return LoggedOut(), apperrors.Wrapf(apperrors.ErrMalformedCredential, "parse user-info: %v", err)
	}

	userID, err := decodeUserID(info.UserID)
	if err != nil {
		return LoggedOut(), err
	}

	s, err := LoggedIn(userID, utils.Value(info.Username), utils.Value(info.UserAvatar))
	if err != nil {
		return LoggedOut(), apperrors.Wrapf(apperrors.ErrMalformedCredential, "user-info: %v", err)
	}
	return s, nil
}

// decodeUserID accepts a JSON string or a JSON number.
func decodeUserID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", apperrors.Wrapf(apperrors.ErrMalformedCredential, "user-info without userId")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", apperrors.Wrapf(apperrors.ErrMalformedCredential, "userId is neither string nor number")
	}
	return n.String(), nil
}
