package config

import "time"

type UpstreamConfig interface {
	GetUpstreamURL() string
	GetUpstreamTokenPath() string
	GetUpstreamProfilePath() string
	GetUpstreamTimeout() time.Duration
}

type Upstream struct{}

var _ UpstreamConfig = Upstream{}

// GetUpstreamURL is the upload backend that /api requests are forwarded to.
func (Upstream) GetUpstreamURL() string {
	return GetEnv("UPSTREAM_URL", "http://localhost:5000")
}

func (Upstream) GetUpstreamTokenPath() string {
	return GetEnv("UPSTREAM_TOKEN_PATH", "/oauth2/token")
}

func (Upstream) GetUpstreamProfilePath() string {
	return GetEnv("UPSTREAM_PROFILE_PATH", "/users/me")
}

func (Upstream) GetUpstreamTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv("UPSTREAM_TIMEOUT", "10s"))
	if err != nil {
		return 10 * time.Second
	}
	return d
}
