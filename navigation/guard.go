// Package navigation decides, before any view runs, whether a page request
// may proceed or must be sent to the login page.
package navigation

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-upload-web/routes"
	"github.com/jrsteele09/go-upload-web/session"
	"github.com/rs/zerolog/log"
)

// DefaultLoginPath is used when the route table has no login route.
const DefaultLoginPath = "/account/login"

// RedirectParam is the login query parameter carrying the requested page.
const RedirectParam = "redirect"

// Decision is the outcome of a guard check.
type Decision int

const (
	Allowed Decision = iota
	Redirected
)

func (d Decision) String() string {
	if d == Redirected {
		return "redirected"
	}
	return "allowed"
}

// Result is a Decision plus where to go when redirected.
type Result struct {
	Decision Decision
	Location string
}

// Guard checks navigations against the route table.
type Guard struct {
	table     *routes.Table
	loginPath string
}

// NewGuard builds a guard sending anonymous visitors to the route named
// loginRoute.
func NewGuard(table *routes.Table, loginRoute string) *Guard {
	loginPath := DefaultLoginPath
	if e, ok := table.ByName(loginRoute); ok {
		loginPath = e.Path
	} else {
		log.Warn().Str("route", loginRoute).Str("fallback", DefaultLoginPath).Msg("login route not in route table")
	}
	return &Guard{table: table, loginPath: loginPath}
}

// LoginPath is the path of the login page.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Check decides a navigation to the resolved entry requested as target.
func (g *Guard) Check(m routes.Match, s session.Session, target *url.URL) Result {
	if !m.Entry.RequiresAuth || s.IsLoggedIn {
		return Result{Decision: Allowed}
	}
	if target != nil && target.Path == g.loginPath {
		return Result{Decision: Allowed}
	}
	return Result{Decision: Redirected, Location: LoginURL(g.loginPath, target)}
}

// Handler resolves each request against the route table, runs the guard and
// then the matched view. Unknown paths get a 404 from notFound, or the
// default NotFound handler when nil.
func (g *Guard) Handler(notFound http.Handler) http.Handler {
	if notFound == nil {
		notFound = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := g.table.Lookup(r.URL.Path)
		if err != nil {
			log.Debug().Err(err).Msg("navigation to unknown page")
			notFound.ServeHTTP(w, r)
			return
		}

		current := session.FromContext(r.Context()).Current()
		res := g.Check(m, current, r.URL)
		if res.Decision == Redirected {
			log.Debug().Str("route", m.Entry.Name).Str("location", res.Location).Msg("navigation redirected to login")
			http.Redirect(w, r, res.Location, http.StatusFound)
			return
		}

		m.Entry.View.ServeHTTP(w, r.WithContext(NewContext(r.Context(), m)))
	})
}

// LoginURL builds the login location that brings the visitor back to target.
func LoginURL(loginPath string, target *url.URL) string {
	if target == nil || target.Path == "" {
		return loginPath
	}
	requested := target.Path
	if target.RawQuery != "" {
		requested += "?" + target.RawQuery
	}
	return loginPath + "?" + url.Values{RedirectParam: {requested}}.Encode()
}

// SafeRedirect returns target when it is a local absolute path and "/"
// otherwise, so the redirect parameter cannot send a visitor off-site.
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return target
}

type contextKey struct{}

// NewContext attaches the resolved match for the view.
func NewContext(ctx context.Context, m routes.Match) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// MatchFromContext returns the match the guard let through.
func MatchFromContext(ctx context.Context) (routes.Match, bool) {
	m, ok := ctx.Value(contextKey{}).(routes.Match)
	return m, ok
}
