package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv         = "POSCLIENT_APP_ENV"
	EnvBackendBaseURL = "POSCLIENT_BACKEND_BASE_URL"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Session SessionConfig
	Secret  SecretConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env         string `envconfig:"POSCLIENT_APP_ENV" default:"development"`
	LogLevel    string `envconfig:"POSCLIENT_LOG_LEVEL" default:"info"`
	MetricsAddr string `envconfig:"POSCLIENT_METRICS_ADDR"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type BackendConfig struct {
	BaseURL string        `envconfig:"POSCLIENT_BACKEND_BASE_URL"`
	Timeout time.Duration `envconfig:"POSCLIENT_BACKEND_TIMEOUT" default:"10s"`
}

// Configured reports whether a backend address is present. A deployed build
// without one still starts; every call will fail until the address is set,
// which the app surfaces as a persistent critical notification.
func (b BackendConfig) Configured() bool {
	return strings.TrimSpace(b.BaseURL) != ""
}

type SessionConfig struct {
	SigningSecret string `envconfig:"POSCLIENT_SESSION_SIGNING_SECRET" required:"true"`
	TTLMinutes    int    `envconfig:"POSCLIENT_SESSION_TTL_MINUTES" default:"720"`
	StateFile     string `envconfig:"POSCLIENT_SESSION_STATE_FILE" default:".pos-session"`
}

// TTL returns the session lifetime configured in minutes.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

type SecretConfig struct {
	ArgonMemoryKB    int `envconfig:"POSCLIENT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"POSCLIENT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"POSCLIENT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"POSCLIENT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"POSCLIENT_ARGON_KEY_LEN" default:"32"`
}
