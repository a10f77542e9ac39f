package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	RequireAuth       bool          `mapstructure:"require_auth" yaml:"require_auth"`
	RateLimitMessages int           `mapstructure:"rate_limit_messages" yaml:"rate_limit_messages"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window" yaml:"rate_limit_window"`
	SendBuffer        int           `mapstructure:"send_buffer" yaml:"send_buffer"`
	EventBuffer       int           `mapstructure:"event_buffer" yaml:"event_buffer"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "broker.db",
		LogLevel:          "info",
		JWTSecret:         "change-me",
		JWTIssuer:         "alexandria",
		JWTAudience:       "broker",
		JWTTTL:            24 * time.Hour,
		RequireAuth:       true,
		RateLimitMessages: 60,
		RateLimitWindow:   time.Minute,
		SendBuffer:        32,
		EventBuffer:       256,
	}
}
