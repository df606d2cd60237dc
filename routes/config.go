package routes

import (
	"fmt"
	"net/http"
	"os"

	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
	"gopkg.in/yaml.v3"
)

// Built-in view names. The presentation layer registers a handler per name.
const (
	ViewHome     = "home"
	ViewRegister = "register"
	ViewLogin    = "login"
	ViewUpload   = "upload"
	ViewProfile  = "profile"
	ViewUU       = "uu"
	ViewNavBar   = "navbar"
)

// DefaultLoginRoute is the route name the guard redirects to.
const DefaultLoginRoute = "Login"

// Views resolves the view names used in a route file.
type Views map[string]http.Handler

// Definition is one route as written in configuration.
type Definition struct {
	Path         string `yaml:"path"`
	Name         string `yaml:"name"`
	View         string `yaml:"view"`
	RequiresAuth bool   `yaml:"requiresAuth"`
}

// File is the YAML route table document.
type File struct {
	// Login names the route unauthenticated visitors are sent to.
	Login  string       `yaml:"login"`
	Routes []Definition `yaml:"routes"`
}

// DefaultFile is the full site: account pages plus the protected upload page.
func DefaultFile() File {
	return File{
		Login: DefaultLoginRoute,
		Routes: []Definition{
			{Path: "/", Name: "Home", View: ViewHome},
			{Path: "/account/register", Name: "Register", View: ViewRegister},
			{Path: "/account/login", Name: "Login", View: ViewLogin},
			{Path: "/upload", Name: "Upload", View: ViewUpload, RequiresAuth: true},
			{Path: "/my-profile", Name: "Profile", View: ViewProfile},
			{Path: "/uu", Name: "uu", View: ViewUU},
		},
	}
}

// ParseFile decodes a YAML route table. A missing login name falls back to
// DefaultLoginRoute.
func ParseFile(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, apperrors.Wrapf(apperrors.ErrInvalidRoute, "parse route file: %v", err)
	}
	if len(f.Routes) == 0 {
		return File{}, apperrors.Wrapf(apperrors.ErrInvalidRoute, "route file has no routes")
	}
	if f.Login == "" {
		f.Login = DefaultLoginRoute
	}
	return f, nil
}

// LoadFile reads path, or returns DefaultFile when path is empty.
func LoadFile(path string) (File, error) {
	if path == "" {
		return DefaultFile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read route file %s: %w", path, err)
	}
	return ParseFile(data)
}

// Build binds every definition of f to its view and returns the table.
func (f File) Build(views Views) (*Table, error) {
	entries := make([]Entry, 0, len(f.Routes))
	for _, d := range f.Routes {
		view, ok := views[d.View]
		if !ok || view == nil {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidRoute, "route %q uses unknown view %q", d.Name, d.View)
		}
		entries = append(entries, Entry{Path: d.Path, Name: d.Name, View: view, RequiresAuth: d.RequiresAuth})
	}
	return NewTable(entries...)
}

// Load reads the route file at path (or the built-in table) and builds it.
// It also returns the configured login route name.
func Load(path string, views Views) (*Table, string, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	t, err := f.Build(views)
	if err != nil {
		return nil, "", err
	}
	return t, f.Login, nil
}
