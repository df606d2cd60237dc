package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-upload-web/internal/config"
	"github.com/jrsteele09/go-upload-web/server"
	"github.com/jrsteele09/go-upload-web/session"
	"github.com/jrsteele09/go-upload-web/storage"
	"github.com/jrsteele09/go-upload-web/token"
	"github.com/stretchr/testify/require"
)

const testClientID = "5f0c6a43-4a4e-4cb4-9a4b-3f0d2f6a1b11"

type testFixture struct {
	server  *server.Server
	storage storage.Storage
	backend *httptest.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: session.CookieUserInfo, Value: userInfo("42", "alice"), Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"captured","token_type":"bearer"}`))
	})
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer captured" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"username":"alice-from-backend","uploads_count":12}`))
	})
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	t.Setenv("ENV", "TEST")
	t.Setenv("UPSTREAM_URL", backend.URL+"/api")
	t.Setenv("ROUTES_FILE", "")

	store := storage.NewMemory()
	srv, err := server.New(config.New(), store)
	require.NoError(t, err)

	return &testFixture{server: srv, storage: store, backend: backend}
}

func userInfo(id, name string) string {
	return url.PathEscape(`{"userId":"` + id + `","username":"` + name + `","userAvatar":"a.png"}`)
}

func (f *testFixture) do(t *testing.T, method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	return w
}

func (f *testFixture) tokens() *token.Store {
	return token.NewStore(f.storage, testClientID)
}

func clientCookie() *http.Cookie {
	return &http.Cookie{Name: "client-id", Value: testClientID}
}

func loggedInCookie() *http.Cookie {
	return &http.Cookie{Name: session.CookieUserInfo, Value: userInfo("42", "alice")}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestPages(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("home is public", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/")
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "Log in")
		require.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	})

	t.Run("upload redirects anonymous visitors to login", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/upload?album=cats")
		require.Equal(t, http.StatusFound, w.Code)

		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "/account/login", loc.Path)
		require.Equal(t, "/upload?album=cats", loc.Query().Get("redirect"))
		require.NotContains(t, w.Body.String(), "Upload a picture")
	})

	t.Run("upload renders for logged in visitors", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/upload", loggedInCookie())
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "Upload a picture")
		require.Contains(t, w.Body.String(), "alice")
	})

	t.Run("malformed user-info is logged out", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/upload", &http.Cookie{Name: session.CookieUserInfo, Value: "%7Bbroken"})
		require.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("login keeps only local redirects", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/account/login?redirect="+url.QueryEscape("/upload"))
		require.Contains(t, w.Body.String(), `data-redirect="/upload"`)

		w = f.do(t, http.MethodGet, "/account/login?redirect="+url.QueryEscape("//evil.example"))
		require.Contains(t, w.Body.String(), `data-redirect="/"`)
	})

	t.Run("unknown page", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/does-not-exist")
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Contains(t, w.Body.String(), "404")
	})

	t.Run("pages only answer GET", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/")
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestClientID(t *testing.T) {
	f := setupTestFixture(t)

	w := f.do(t, http.MethodGet, "/")
	c := findCookie(w, "client-id")
	require.NotNil(t, c)
	_, err := uuid.Parse(c.Value)
	require.NoError(t, err)
	require.True(t, c.HttpOnly)

	w = f.do(t, http.MethodGet, "/", clientCookie())
	require.Nil(t, findCookie(w, "client-id"))

	w = f.do(t, http.MethodGet, "/", &http.Cookie{Name: "client-id", Value: "not-a-uuid"})
	require.NotNil(t, findCookie(w, "client-id"))
}

func TestSessionEndpoint(t *testing.T) {
	f := setupTestFixture(t)
	f.tokens().Set(context.Background(), "abc")

	w := f.do(t, http.MethodGet, "/api/session", clientCookie(), loggedInCookie())
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["isLoggedIn"])
	require.Equal(t, "42", body["userId"])
	require.Equal(t, "alice", body["userName"])
	require.Equal(t, true, body["hasToken"])

	w = f.do(t, http.MethodGet, "/api/session")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, false, body["isLoggedIn"])
	require.Nil(t, body["userId"])
	require.Equal(t, false, body["hasToken"])
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.tokens().Set(ctx, "abc")

	w := f.do(t, http.MethodPost, "/account/logout", clientCookie(), loggedInCookie())
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	for _, name := range []string{session.CookieUserInfo, session.CookieToken} {
		c := findCookie(w, name)
		require.NotNil(t, c, name)
		require.Equal(t, "/", c.Path)
		require.True(t, c.MaxAge < 0)
	}
	require.False(t, f.tokens().IsLoggedIn(ctx))

	r := httptest.NewRequest(http.MethodGet, "/account/logout", nil)
	r.Header.Set("HX-Request", "true")
	w = httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "/", w.Header().Get("HX-Redirect"))
}

func TestLoginThroughProxy(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	r := httptest.NewRequest(http.MethodPost, "/api/oauth2/token", strings.NewReader("username=alice&password=pw"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(clientCookie())
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, findCookie(w, session.CookieUserInfo))

	got, ok := f.tokens().Get(ctx)
	require.True(t, ok)
	require.Equal(t, "captured", got)

	w = f.do(t, http.MethodGet, "/my-profile", clientCookie(), loggedInCookie())
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "alice-from-backend")
	require.Contains(t, w.Body.String(), "12")
}

func TestProfileFallsBackToCookieIdentity(t *testing.T) {
	f := setupTestFixture(t)

	w := f.do(t, http.MethodGet, "/my-profile", clientCookie(), loggedInCookie())
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "alice")
	require.NotContains(t, w.Body.String(), "alice-from-backend")
}

func TestStaticAndHealth(t *testing.T) {
	f := setupTestFixture(t)

	w := f.do(t, http.MethodGet, "/css/site.css")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/css")
	require.Contains(t, w.Header().Get("Cache-Control"), "max-age=300")

	w = f.do(t, http.MethodGet, "/js/missing.js")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRoutesFile(t *testing.T) {
	t.Setenv("ROUTES_FILE", "../configs/routes.v2.yaml")
	t.Setenv("ENV", "TEST")

	srv, err := server.New(config.New(), storage.NewMemory())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/navBar", nil))
	require.Equal(t, http.StatusOK, w.Code)

	// the second variant has no protected pages
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/upload", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNewRequiresStorage(t *testing.T) {
	_, err := server.New(config.New(), nil)
	require.Error(t, err)
}
