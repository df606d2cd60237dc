package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-upload-web/session"
	"github.com/jrsteele09/go-upload-web/token"
)

// clientIDCookieName identifies a browser. Its value namespaces the
// browser's local storage, and so its token.
const clientIDCookieName = "client-id"

// ClientMiddleware makes sure the browser carries a client id and attaches
// the token store of that client to the request context.
func (s *Server) ClientMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIDFromRequest(r)
		if clientID == "" {
			clientID = uuid.NewString()
			s.SetClientIDCookie(w, clientID, r)
		}

		tokens := token.NewStore(s.storage, clientID)
		next(w, r.WithContext(token.NewContext(r.Context(), tokens)))
	}
}

// SessionMiddleware decodes the user-info cookie into the session state of
// this navigation.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := session.NewState()
		st.Watch(session.LogTransition)
		st.Initialize(r)
		next(w, r.WithContext(session.NewContext(r.Context(), st)))
	}
}

// clientIDFromRequest returns the client id cookie when it holds a UUID.
func clientIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(clientIDCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return ""
	}
	return id.String()
}
