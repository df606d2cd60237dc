package server

import (
	"html/template"
	"net/http"

	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
	"github.com/jrsteele09/go-upload-web/internal/utils"
	"github.com/jrsteele09/go-upload-web/navigation"
	"github.com/jrsteele09/go-upload-web/routes"
	"github.com/jrsteele09/go-upload-web/session"
	"github.com/jrsteele09/go-upload-web/token"
	"github.com/jrsteele09/go-upload-web/upstream"
	"github.com/rs/zerolog/log"
)

// PageData is handed to every page template.
type PageData struct {
	AppName    string
	Page       string
	IsLoggedIn bool
	UserID     string
	UserName   string
	UserAvatar string
	Params     map[string]string
	// Redirect is where the login page sends the visitor afterwards
	Redirect string
	Profile  *upstream.Profile
	Error    string
}

type pageLoader func(r *http.Request, data *PageData)

// pageViews parses one template per view name.
func (s *Server) pageViews() (routes.Views, error) {
	loaders := map[string]pageLoader{
		routes.ViewHome:     nil,
		routes.ViewRegister: nil,
		routes.ViewLogin:    loadLoginPage,
		routes.ViewUpload:   nil,
		routes.ViewProfile:  s.loadProfilePage,
		routes.ViewUU:       nil,
		routes.ViewNavBar:   nil,
	}

	views := routes.Views{}
	for name, loader := range loaders {
		tmpl, err := ParseTemplate(name + ".html")
		if err != nil {
			return nil, err
		}
		views[name] = s.pageView(tmpl, loader)
	}
	return views, nil
}

func (s *Server) pageView(tmpl *template.Template, load pageLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r)
		if m, ok := navigation.MatchFromContext(r.Context()); ok {
			data.Page = m.Entry.Name
			data.Params = m.Params
		}
		if load != nil {
			load(r, &data)
		}
		s.render(w, tmpl, http.StatusOK, data)
	}
}

func (s *Server) notFoundHandler() http.Handler {
	tmpl, err := ParseTemplate("not_found.html")
	if err != nil {
		log.Err(err).Msg("Failed to parse not found template")
		return http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.render(w, tmpl, http.StatusNotFound, s.newPageData(r))
	})
}

func (s *Server) newPageData(r *http.Request) PageData {
	current := session.FromContext(r.Context()).Current()
	return PageData{
		AppName:    s.config.GetAppName(),
		IsLoggedIn: current.IsLoggedIn,
		UserID:     utils.Value(current.UserID),
		UserName:   utils.Value(current.UserName),
		UserAvatar: utils.Value(current.UserAvatar),
	}
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, status int, data PageData) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, layoutTemplate, data); err != nil {
		log.Err(err).Str("page", data.Page).Msg("Failed to render page")
	}
}

func loadLoginPage(r *http.Request, data *PageData) {
	data.Redirect = navigation.SafeRedirect(r.URL.Query().Get(navigation.RedirectParam))
	data.Error = r.URL.Query().Get("error")
}

// loadProfilePage asks the backend for the full profile. The cookie identity
// is shown when no token is stored or the backend cannot answer.
func (s *Server) loadProfilePage(r *http.Request, data *PageData) {
	if !data.IsLoggedIn {
		return
	}
	ctx := r.Context()
	profile, err := s.upstream.Me(ctx, token.FromContext(ctx))
	switch {
	case err == nil:
		data.Profile = profile
	case apperrors.Is(err, apperrors.ErrMissingCredential):
		log.Debug().Err(err).Msg("profile without bearer token, using cookie identity")
	default:
		log.Err(err).Msg("Failed to load profile from backend")
		data.Error = "Profile details are unavailable right now."
	}
}
