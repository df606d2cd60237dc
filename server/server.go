package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-upload-web/internal/config"
	"github.com/jrsteele09/go-upload-web/navigation"
	"github.com/jrsteele09/go-upload-web/routes"
	"github.com/jrsteele09/go-upload-web/storage"
	"github.com/jrsteele09/go-upload-web/upstream"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	storage  storage.Storage
	pages    *routes.Table
	guard    *navigation.Guard
	upstream *upstream.Client
}

// New wires the page table, the guard and the backend client. store holds
// the per-client local storage the token store writes to.
func New(config config.Config, store storage.Storage) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("[Server New] storage is required")
	}

	backend, err := upstream.New(config)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create upstream client: %w", err)
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		storage:  store,
		upstream: backend,
	}

	views, err := s.pageViews()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse page templates: %w", err)
	}

	table, loginRoute, err := routes.Load(config.GetRoutesFile(), views)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to load route table: %w", err)
	}
	s.pages = table
	s.guard = navigation.NewGuard(table, loginRoute)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
	for _, e := range s.pages.Entries() {
		page := e.Path + " (" + e.Name + ")"
		if e.RequiresAuth {
			page += " " + Yellow + "requires auth" + ResetColor
		}
		logRoute("PAGE", page)
	}
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
