// Package config provides environment-based configuration for medgas.
//
// Values are read from the process environment through Viper, after an
// optional .env file in the working directory has been loaded with godotenv.
//
// # Environment Variables
//
//   - API_URL: Backend base address, without the /api suffix. Default: http://localhost:8000
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - LOG_FORMAT: json or console. Default: console
//   - HTTP_TIMEOUT: Per-request timeout. Default: 30s
//   - RATE_LIMIT / RATE_BURST: Outbound requests per second (0 disables). Default: 0 / 1
//   - SESSION_BACKEND: file, sqlite, postgres, mysql, redis, mongo or memory. Default: file
//   - SESSION_DSN: Path, DSN or redis URL for the session backend
//   - SESSION_PROFILE: Name of the stored session. Default: default
//   - DOWNLOAD_DIR: Where report downloads are saved. Default: current directory
//   - PORT: Console listen port. Default: 8090
//   - HEARTBEAT: Cron spec for the session probe; empty disables. Default: @every 5m
//   - TELEMETRY_ENABLED: Trace outbound API calls. Default: true
//   - OTLP_ENDPOINT: OTLP/gRPC collector (host:port); empty keeps spans local
//   - TRACE_SAMPLE_RATE: Fraction of calls traced. Default: 1.0
//   - ENVIRONMENT: Deployment label attached to traces. Default: development
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	APIURL         string        `mapstructure:"API_URL"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFormat      string        `mapstructure:"LOG_FORMAT"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`
	RateLimit      float64       `mapstructure:"RATE_LIMIT"`
	RateBurst      int           `mapstructure:"RATE_BURST"`
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionDSN     string        `mapstructure:"SESSION_DSN"`
	SessionProfile string        `mapstructure:"SESSION_PROFILE"`
	DownloadDir    string        `mapstructure:"DOWNLOAD_DIR"`
	Port           int           `mapstructure:"PORT"`
	Heartbeat      string        `mapstructure:"HEARTBEAT"`

	TelemetryEnabled bool    `mapstructure:"TELEMETRY_ENABLED"`
	OTLPEndpoint     string  `mapstructure:"OTLP_ENDPOINT"`
	TraceSampleRate  float64 `mapstructure:"TRACE_SAMPLE_RATE"`
	Environment      string  `mapstructure:"ENVIRONMENT"`
}

// LoadConfig reads the configuration. A missing .env file is not an error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("API_URL", "http://localhost:8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT", 0)
	v.SetDefault("RATE_BURST", 1)
	v.SetDefault("SESSION_BACKEND", "file")
	v.SetDefault("SESSION_DSN", defaultSessionPath())
	v.SetDefault("SESSION_PROFILE", "default")
	v.SetDefault("DOWNLOAD_DIR", ".")
	v.SetDefault("PORT", 8090)
	v.SetDefault("HEARTBEAT", "@every 5m")
	v.SetDefault("TELEMETRY_ENABLED", true)
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("TRACE_SAMPLE_RATE", 1.0)
	v.SetDefault("ENVIRONMENT", "development")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// HEARTBEAT= must be able to switch the probe off.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.APIURL = strings.TrimSuffix(cfg.APIURL, "/")

	return &cfg, nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "medgas-session.json"
	}
	return filepath.Join(dir, "medgas", "session.json")
}
