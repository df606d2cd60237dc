// Package routes maps request paths to page views. A Table is built once at
// start-up and never changes afterwards.
package routes

import (
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
)

// Entry is one page of the site.
type Entry struct {
	Path         string
	Name         string
	View         http.Handler
	RequiresAuth bool
}

// Match is a resolved entry plus any values bound to {param} segments.
type Match struct {
	Entry  Entry
	Params map[string]string
}

// Param returns the value bound to name, or "".
func (m Match) Param(name string) string {
	return m.Params[name]
}

// Table is an ordered, immutable set of entries with unique paths and names.
type Table struct {
	entries []Entry
	byPath  map[string]int
	byName  map[string]int
	// parameterised entries in registration order
	patterns []pattern
}

type pattern struct {
	index    int
	segments []string
}

// NewTable validates entries and builds the lookup indexes.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		byPath:  make(map[string]int, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	byShape := make(map[string]string)

	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, err
		}
		if _, exists := t.byPath[e.Path]; exists {
			return nil, apperrors.Wrapf(apperrors.ErrDuplicateRoute, "path %q", e.Path)
		}
		if _, exists := t.byName[e.Name]; exists {
			return nil, apperrors.Wrapf(apperrors.ErrDuplicateRoute, "name %q", e.Name)
		}

		i := len(t.entries)
		t.entries = append(t.entries, e)
		t.byPath[e.Path] = i
		t.byName[e.Name] = i

		if segments := splitPath(e.Path); hasParams(segments) {
			key := shape(segments)
			if other, exists := byShape[key]; exists {
				return nil, apperrors.Wrapf(apperrors.ErrDuplicateRoute, "path %q overlaps %q", e.Path, other)
			}
			byShape[key] = e.Path
			t.patterns = append(t.patterns, pattern{index: i, segments: segments})
		}
	}
	return t, nil
}

func validateEntry(e Entry) error {
	switch {
	case e.Name == "":
		return apperrors.Wrapf(apperrors.ErrInvalidRoute, "path %q has no name", e.Path)
	case !strings.HasPrefix(e.Path, "/"):
		return apperrors.Wrapf(apperrors.ErrInvalidRoute, "path %q must start with /", e.Path)
	case e.View == nil:
		return apperrors.Wrapf(apperrors.ErrInvalidRoute, "route %q has no view", e.Name)
	}
	for _, seg := range splitPath(e.Path) {
		if strings.HasPrefix(seg, "{") != strings.HasSuffix(seg, "}") || seg == "{}" {
			return apperrors.Wrapf(apperrors.ErrInvalidRoute, "path %q has a malformed parameter", e.Path)
		}
	}
	return nil
}

// Resolve finds the entry for path. Exact paths win over parameterised ones.
func (t *Table) Resolve(path string) (Match, bool) {
	if t == nil {
		return Match{}, false
	}
	if i, ok := t.byPath[path]; ok {
		return Match{Entry: t.entries[i]}, true
	}

	segments := splitPath(path)
	for _, p := range t.patterns {
		if params, ok := p.match(segments); ok {
			return Match{Entry: t.entries[p.index], Params: params}, true
		}
	}
	return Match{}, false
}

// Lookup is Resolve for callers that want an error: unknown paths return
// ErrRouteNotFound.
func (t *Table) Lookup(path string) (Match, error) {
	m, ok := t.Resolve(path)
	if !ok {
		return Match{}, apperrors.Wrapf(apperrors.ErrRouteNotFound, "path %q", path)
	}
	return m, nil
}

// ByName looks an entry up by its name.
func (t *Table) ByName(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	i, ok := t.byName[name]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of the entries in registration order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	return append([]Entry(nil), t.entries...)
}

func (p pattern) match(segments []string) (map[string]string, bool) {
	if len(segments) != len(p.segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, seg := range p.segments {
		if isParam(seg) {
			if segments[i] == "" {
				return nil, false
			}
			params[seg[1:len(seg)-1]] = segments[i]
			continue
		}
		if seg != segments[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

func isParam(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func hasParams(segments []string) bool {
	for _, seg := range segments {
		if isParam(seg) {
			return true
		}
	}
	return false
}

// shape drops parameter names so /p/{a} and /p/{b} compare equal.
func shape(segments []string) string {
	out := make([]string, len(segments))
	for i, seg := range segments {
		if isParam(seg) {
			seg = "{}"
		}
		out[i] = seg
	}
	return "/" + strings.Join(out, "/")
}
