// Package config loads the coordinator's runtime settings from environment
// variables via Viper, following the teacher's internal/config/config.go
// shape (hierarchical Config struct, AutomaticEnv + SetDefault, Duration
// accessor methods for values stored as plain seconds) — COORD_*-prefixed
// instead of GATEWAY_*, and covering the four timing constants named in
// spec §6 so none of them is a hardcoded, unoverridable literal.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the coordinator's full settings surface.
type Config struct {
	Server   ServerConfig
	Timing   TimingConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// ServerConfig holds the HTTP and UDP listen settings.
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DiscoveryPort int    `mapstructure:"discovery_port"`
}

// TimingConfig holds the four constants named in spec §6, stored as plain
// seconds/milliseconds and exposed as time.Duration via the methods below.
type TimingConfig struct {
	LockTTLSec           int `mapstructure:"lock_ttl_sec"`
	StalenessSec         int `mapstructure:"staleness_sec"`
	JanitorIntervalSec   int `mapstructure:"janitor_interval_sec"`
	RobotHTTPTimeoutMsec int `mapstructure:"robot_http_timeout_msec"`
}

func (t TimingConfig) LockTTL() time.Duration {
	return time.Duration(t.LockTTLSec) * time.Second
}

func (t TimingConfig) Staleness() time.Duration {
	return time.Duration(t.StalenessSec) * time.Second
}

func (t TimingConfig) JanitorInterval() time.Duration {
	return time.Duration(t.JanitorIntervalSec) * time.Second
}

func (t TimingConfig) RobotHTTPTimeout() time.Duration {
	return time.Duration(t.RobotHTTPTimeoutMsec) * time.Millisecond
}

// RedisConfig holds the Event Ledger's Redis connection string. An empty
// URL means "run without the ledger" — Coordinator treats a nil sink as a
// no-op, mirroring the teacher's "Redis connection failed, running without
// persistence" soft-fail.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AuthConfig holds the robot ingest API key and the JWT secret used by the
// default Auth Collaborator.
type AuthConfig struct {
	RobotAPIKey string `mapstructure:"robot_api_key"`
	JWTSecret   string `mapstructure:"jwt_secret"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads COORD_*-prefixed environment variables, falling back to the
// defaults below.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("COORD_HOST", "0.0.0.0")
	v.SetDefault("COORD_PORT", 8080)
	v.SetDefault("COORD_DISCOVERY_PORT", 3001)

	v.SetDefault("COORD_LOCK_TTL_SEC", 30)
	v.SetDefault("COORD_STALENESS_SEC", 30)
	v.SetDefault("COORD_JANITOR_INTERVAL_SEC", 5)
	v.SetDefault("COORD_ROBOT_HTTP_TIMEOUT_MSEC", 2000)

	v.SetDefault("COORD_REDIS_URL", "")

	v.SetDefault("COORD_ROBOT_API_KEY", "secret-robot-key")
	v.SetDefault("COORD_JWT_SECRET", "")

	v.SetDefault("COORD_LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Host:          v.GetString("COORD_HOST"),
			Port:          v.GetInt("COORD_PORT"),
			DiscoveryPort: v.GetInt("COORD_DISCOVERY_PORT"),
		},
		Timing: TimingConfig{
			LockTTLSec:           v.GetInt("COORD_LOCK_TTL_SEC"),
			StalenessSec:         v.GetInt("COORD_STALENESS_SEC"),
			JanitorIntervalSec:   v.GetInt("COORD_JANITOR_INTERVAL_SEC"),
			RobotHTTPTimeoutMsec: v.GetInt("COORD_ROBOT_HTTP_TIMEOUT_MSEC"),
		},
		Redis: RedisConfig{
			URL: v.GetString("COORD_REDIS_URL"),
		},
		Auth: AuthConfig{
			RobotAPIKey: v.GetString("COORD_ROBOT_API_KEY"),
			JWTSecret:   v.GetString("COORD_JWT_SECRET"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("COORD_LOG_LEVEL"),
		},
	}
	return cfg, nil
}
