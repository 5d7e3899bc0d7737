// Package config loads service configuration from a YAML file, environment
// variables and defaults, in that order of increasing priority.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/astroviz/orrery/internal/viewmode"
)

// Config is the root configuration for the orrery service.
type Config struct {
	Server      ServerConfig                `mapstructure:"server"`
	Catalog     CatalogConfig               `mapstructure:"catalog"`
	MQTT        MQTTConfig                  `mapstructure:"mqtt"`
	Pipeline    PipelineConfig              `mapstructure:"pipeline"`
	Performance PerformanceConfig           `mapstructure:"performance"`
	ViewModes   map[string]viewmode.Scaling `mapstructure:"view_modes"`
	Logging     LoggingConfig               `mapstructure:"logging"`
}

// ServerConfig configures the HTTP layout server.
type ServerConfig struct {
	ListenAddress   string        `mapstructure:"listen_address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	AuthEnabled     bool          `mapstructure:"auth_enabled"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	APIKeyHash      string        `mapstructure:"api_key_hash"`
}

// CatalogConfig selects and configures the star-system catalog backend.
type CatalogConfig struct {
	Backend     string `mapstructure:"backend"` // "file" or "postgres"
	DataDir     string `mapstructure:"data_dir"`
	DatabaseURL string `mapstructure:"database_url"`
}

// MQTTConfig configures the optional diagnostics bridge.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// PipelineConfig bounds layout pipeline runs.
type PipelineConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// PerformanceConfig tunes the performance monitoring handler.
type PerformanceConfig struct {
	CalculationThreshold time.Duration `mapstructure:"calculation_threshold"`
}

// LoggingConfig selects the zap logger profile.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration with priority: environment variables over the
// config file over defaults. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("orrery")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/orrery")
	}

	v.SetEnvPrefix("ORRERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.auth_enabled", false)
	v.SetDefault("catalog.backend", "file")
	v.SetDefault("catalog.data_dir", "./data/systems")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.client_id", "orrery-server")
	v.SetDefault("pipeline.timeout", 30*time.Second)
	v.SetDefault("performance.calculation_threshold", time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Catalog.Backend {
	case "file":
		if c.Catalog.DataDir == "" {
			return fmt.Errorf("catalog.data_dir is required for the file backend")
		}
	case "postgres":
		if c.Catalog.DatabaseURL == "" {
			return fmt.Errorf("catalog.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown catalog backend %q", c.Catalog.Backend)
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	if c.Server.AuthEnabled && c.Server.JWTSecret == "" && c.Server.APIKeyHash == "" {
		return fmt.Errorf("auth is enabled but neither server.jwt_secret nor server.api_key_hash is set")
	}
	if c.Pipeline.Timeout < 0 {
		return fmt.Errorf("pipeline.timeout must not be negative")
	}
	return nil
}
