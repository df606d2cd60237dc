package config

import (
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	CookieConfig
	StorageConfig
	UpstreamConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
	GetRoutesFile() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Cookies
	Storage
	Upstream
}

// LoadDotEnv copies variables from the named files, or ./.env, into the
// process environment. Variables that are already set win.
func LoadDotEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// New returns the environment backed configuration.
func New() Config {
	return mainConfig{}
}
