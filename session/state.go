package session

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// CookieUserInfo carries the URL encoded identity written by the backend.
	CookieUserInfo = "user-info"
	// CookieToken carries the bearer credential written by the backend.
	CookieToken = "token"
)

// WatchFunc is called after every session replacement.
type WatchFunc func(prev, next Session)

// State owns the current Session. Replacements swap a single pointer so a
// reader never sees fields from two different sessions.
type State struct {
	current atomic.Pointer[Session]

	watchLock sync.Mutex
	watchers  []WatchFunc
}

// NewState returns a state holding the cleared session.
func NewState() *State {
	st := &State{}
	cleared := LoggedOut()
	st.current.Store(&cleared)
	return st
}

// Initialize reads the user-info cookie of r and replaces the session with
// the decoded identity, or with the cleared session when the cookie is absent
// or malformed.
func (st *State) Initialize(r *http.Request) Session {
	next := LoggedOut()
	if cookie, err := r.Cookie(CookieUserInfo); err == nil {
		decoded, err := DecodeUserInfo(cookie.Value)
		if err != nil {
			log.Debug().Err(err).Msg("ignoring user-info cookie")
		} else {
			next = decoded
		}
	}
	// next is either cleared or validated by DecodeUserInfo
	_ = st.Set(next)
	return next
}

// Set replaces the whole session. A logged in session without a user id or
// name is rejected with ErrInvalidSession and the current session is kept.
func (st *State) Set(s Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	next := s.normalize()
	prev := LoggedOut()
	if old := st.current.Swap(&next); old != nil {
		prev = *old
	}
	st.notify(prev, next)
	return nil
}

// Current returns a copy of the current session.
func (st *State) Current() Session {
	s := st.current.Load()
	if s == nil {
		return LoggedOut()
	}
	return *s
}

// IsLoggedIn reports whether the current session is logged in.
func (st *State) IsLoggedIn() bool {
	return st.Current().IsLoggedIn
}

// Logout expires the user-info and token cookies and clears the session.
func (st *State) Logout(w http.ResponseWriter) {
	ExpireCookie(w, CookieUserInfo)
	ExpireCookie(w, CookieToken)
	if err := st.Set(LoggedOut()); err != nil {
		// the cleared session always validates
		log.Err(err).Msg("failed to clear session")
	}
}

// Watch registers fn to be called after each replacement.
func (st *State) Watch(fn WatchFunc) {
	if fn == nil {
		return
	}
	st.watchLock.Lock()
	defer st.watchLock.Unlock()
	st.watchers = append(st.watchers, fn)
}

func (st *State) notify(prev, next Session) {
	st.watchLock.Lock()
	watchers := append([]WatchFunc(nil), st.watchers...)
	st.watchLock.Unlock()

	for _, fn := range watchers {
		fn(prev, next)
	}
}

// ExpireCookie tells the browser to drop the named cookie at path "/".
func ExpireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
}

// LogTransition is a WatchFunc that logs login and logout transitions.
func LogTransition(prev, next Session) {
	if prev.IsLoggedIn == next.IsLoggedIn {
		return
	}
	log.Debug().Object("from", prev).Object("to", next).Msg("session changed")
}
