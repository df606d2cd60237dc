package config

import "time"

type CookieConfig interface {
	GetSecureCookies() bool
	GetClientIDMaxAge() time.Duration
}

type Cookies struct{}

var _ CookieConfig = Cookies{}

// GetSecureCookies reports whether cookies issued by this server carry the Secure flag.
func (Cookies) GetSecureCookies() bool {
	return GetEnv("SECURE_COOKIES", "false") == "true"
}

func (Cookies) GetClientIDMaxAge() time.Duration {
	return 365 * 24 * time.Hour
}
