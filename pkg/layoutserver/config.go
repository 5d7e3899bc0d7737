// Package layoutserver exposes the layout engine over HTTP: layout
// computation for renderers, event injection for UI actions, and
// operational introspection.
package layoutserver

import (
	"fmt"
	"time"
)

// CORSConfig controls cross-origin access for browser-based renderers.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// AuthConfig controls API authentication. When enabled, requests carry a
// bearer token: either an HMAC-signed JWT or the static API key whose
// bcrypt hash is configured here.
type AuthConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	JWTSecret  string `mapstructure:"jwt_secret"`
	APIKeyHash string `mapstructure:"api_key_hash"`
}

// Config holds the HTTP server configuration.
type Config struct {
	ListenAddress   string        `mapstructure:"listen_address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
	Auth            AuthConfig    `mapstructure:"auth"`
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8080"
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Authorization", "Content-Type"}
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" && c.Auth.APIKeyHash == "" {
		return fmt.Errorf("auth enabled but neither jwt_secret nor api_key_hash configured")
	}
	return nil
}
