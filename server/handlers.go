package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-upload-web/session"
	"github.com/jrsteele09/go-upload-web/token"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// SessionResponse is the body of GET /api/session.
type SessionResponse struct {
	session.Session
	// HasToken reports whether a bearer credential is stored for this browser.
	HasToken bool `json:"hasToken"`
}

// HealthHandler reports that the process is serving.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// SessionHandler returns the session of the calling browser.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		writeJSON(w, http.StatusOK, SessionResponse{
			Session:  session.FromContext(ctx).Current(),
			HasToken: token.FromContext(ctx).IsLoggedIn(ctx),
		})
	}
}

// LogoutHandler expires the identity cookies, drops the stored token and
// returns to the home page.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		session.FromContext(ctx).Logout(w)
		token.FromContext(ctx).Remove(ctx)
		redirectSuccess(w, r, "/")
	}
}

// PageHandler dispatches page navigations through the navigation guard.
func (s *Server) PageHandler() http.HandlerFunc {
	notFound := s.notFoundHandler()
	pages := s.guard.Handler(notFound)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "405 - Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		pages.ServeHTTP(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}
