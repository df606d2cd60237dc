package upstream

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/jrsteele09/go-upload-web/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// maxTokenResponse bounds the token endpoint body read for capture.
const maxTokenResponse = 64 << 10

// Proxy forwards requests below prefix to the backend. The prefix is stripped
// and the rest of the path is appended to the backend URL.
//
// The token store of the request context supplies the bearer credential, and
// a successful response from the token endpoint is written back to it.
func (c *Client) Proxy(prefix string) http.Handler {
	prefix = strings.TrimSuffix(prefix, "/")
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, prefix)
			pr.Out.URL.RawPath = ""
			pr.SetURL(c.baseURL)
			pr.SetXForwarded()
			if c.isTokenPath(pr.Out.URL.Path) {
				// the transport then negotiates gzip itself and hands back plain JSON
				pr.Out.Header.Del("Accept-Encoding")
			}
		},
		Transport:      &bearerTransport{base: c.transport},
		ModifyResponse: c.captureToken,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Err(err).Str("path", r.URL.Path).Msg("upstream request failed")
			http.Error(w, "502 - Bad Gateway", http.StatusBadGateway)
		},
	}
	return rp
}

// bearerTransport adds the stored token to requests that carry no
// Authorization header of their own.
type bearerTransport struct {
	base http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	tokens := token.FromContext(ctx)
	if req.Header.Get("Authorization") != "" || !tokens.IsLoggedIn(ctx) {
		return t.base.RoundTrip(req)
	}
	return (&oauth2.Transport{Source: tokens.TokenSource(ctx), Base: t.base}).RoundTrip(req)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type replayBody struct {
	io.Reader
	io.Closer
}

// captureToken stores the access_token of a successful token endpoint
// response. The body is replayed to the browser unchanged.
func (c *Client) captureToken(resp *http.Response) error {
	req := resp.Request
	if req == nil || resp.StatusCode != http.StatusOK || !c.isTokenPath(req.URL.Path) {
		return nil
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "application/json" {
		return nil
	}

	orig := resp.Body
	body, err := io.ReadAll(io.LimitReader(orig, maxTokenResponse+1))
	resp.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(body), orig), Closer: orig}
	if err != nil {
		return err
	}
	if len(body) > maxTokenResponse {
		log.Warn().Int("limit", maxTokenResponse).Msg("token response too large to capture")
		return nil
	}

	payload, err := decodeContent(resp.Header.Get("Content-Encoding"), body)
	if err != nil {
		log.Warn().Err(err).Msg("token response not captured")
		return nil
	}

	var tok tokenResponse
	if err := json.Unmarshal(payload, &tok); err != nil {
		log.Warn().Err(err).Msg("token response is not valid JSON, token not captured")
		return nil
	}
	if tok.AccessToken == "" {
		log.Warn().Msg("token response without access_token")
		return nil
	}

	tokens := token.FromContext(req.Context())
	tokens.Set(req.Context(), tok.AccessToken)
	log.Debug().Str("token_type", tok.TokenType).Msg("captured access token from login response")
	return nil
}

// decodeContent undoes a gzip Content-Encoding on a copy of body.
func decodeContent(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip token response: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(io.LimitReader(zr, maxTokenResponse))
	default:
		return nil, fmt.Errorf("unsupported token response encoding %q", encoding)
	}
}

func (c *Client) isTokenPath(outPath string) bool {
	want := strings.TrimSuffix(c.baseURL.Path, "/") + "/" + strings.TrimPrefix(c.tokenPath, "/")
	return outPath == want
}
