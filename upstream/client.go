// Package upstream talks to the upload backend on behalf of the browser,
// authenticating with the token kept in the token store.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-upload-web/internal/config"
	apperrors "github.com/jrsteele09/go-upload-web/internal/errors"
	"github.com/jrsteele09/go-upload-web/token"
	"golang.org/x/oauth2"
)

// Profile is the subset of the backend's /users/me response the pages use.
type Profile struct {
	Username            string   `json:"username"`
	Email               string   `json:"email,omitempty"`
	Avatar              *string  `json:"avatar,omitempty"`
	Bio                 *string  `json:"bio,omitempty"`
	PersonalWatermark   *string  `json:"personal_watermark,omitempty"`
	UploadsCount        int      `json:"uploads_count"`
	ApprovedImagesCount int      `json:"approved_images_count"`
	LikesReceivedCount  int      `json:"likes_received_count"`
	ViewsCount          int      `json:"views_count"`
	FeaturedCount       int      `json:"featured_count"`
	AccountLevel        int      `json:"account_level"`
	MedalsCount         int      `json:"medals_count"`
	AnalysisScore       *float64 `json:"analysis_score,omitempty"`
}

// Client calls the upload backend.
type Client struct {
	baseURL     *url.URL
	tokenPath   string
	profilePath string
	timeout     time.Duration
	transport   http.RoundTripper
}

// New builds a client from the upstream configuration.
func New(cfg config.UpstreamConfig) (*Client, error) {
	base, err := url.Parse(cfg.GetUpstreamURL())
	if err != nil {
		return nil, fmt.Errorf("[upstream New] invalid upstream url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("[upstream New] upstream url %q must be absolute", cfg.GetUpstreamURL())
	}
	return &Client{
		baseURL:     base,
		tokenPath:   cfg.GetUpstreamTokenPath(),
		profilePath: cfg.GetUpstreamProfilePath(),
		timeout:     cfg.GetUpstreamTimeout(),
		transport:   http.DefaultTransport,
	}, nil
}

// WithTransport replaces the base round tripper. Used by tests.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	c.transport = rt
	return c
}

// HTTPClient returns a client that sends the stored token as a bearer
// credential. It returns ErrMissingCredential when no token is stored.
func (c *Client) HTTPClient(ctx context.Context, tokens *token.Store) (*http.Client, error) {
	if !tokens.IsLoggedIn(ctx) {
		return nil, apperrors.ErrMissingCredential
	}
	return &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: tokens.TokenSource(ctx),
			Base:   c.transport,
		},
	}, nil
}

// Me fetches the profile of the token owner.
func (c *Client) Me(ctx context.Context, tokens *token.Store) (*Profile, error) {
	httpClient, err := c.HTTPClient(ctx, tokens)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(c.profilePath), nil)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "build profile request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "profile request: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.Wrapf(apperrors.ErrMissingCredential, "backend rejected token")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "profile request status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUpstream, "decode profile: %v", err)
	}
	return &profile, nil
}

func (c *Client) resolve(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	return u.String()
}
