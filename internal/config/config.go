// Package config loads server settings from the environment and an optional
// TOML keys file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvKeysFile names the variable holding the keys file path.
const EnvKeysFile = "EMAILY_KEYS_FILE"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the server settings.
type Config struct {
	Port     int    `env:"PORT"       envDefault:"5000"`
	Env      string `env:"EMAILY_ENV" envDefault:"development"`
	BaseURL  string `env:"BASE_URL"`
	WebDir   string `env:"WEB_DIR"    envDefault:"client/build"`
	LogLevel string `env:"EMAILY_LOG_LEVEL"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	CookieKey          string `env:"COOKIE_KEY"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Environ())
}

// LoadFrom reads configuration from environ, a list of KEY=value pairs. When
// EMAILY_KEYS_FILE is set its keys are loaded first and environ overrides
// them.
func LoadFrom(environ []string) (Config, error) {
	vars := env.ToMap(environ)

	merged := map[string]string{}
	if path := strings.TrimSpace(vars[EnvKeysFile]); path != "" {
		keys, err := readKeysFile(path)
		if err != nil {
			return Config{}, err
		}
		for k, v := range keys {
			merged[k] = v
		}
	}
	for k, v := range vars {
		merged[k] = v
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: merged}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// readKeysFile decodes a flat TOML table whose keys are variable names.
func readKeysFile(path string) (map[string]string, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load keys file: %w", err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			out[k] = v
		case int64, float64, bool:
			out[k] = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("load keys file: key %q: unsupported value of type %T", k, v)
		}
	}
	return out, nil
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
}

// Production reports whether the server runs in production mode.
func (c Config) Production() bool { return c.Env == EnvProduction }

// Addr is the listen address.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// SecureCookies reports whether cookies should carry the Secure flag.
func (c Config) SecureCookies() bool { return strings.HasPrefix(c.BaseURL, "https://") }

// GoogleEnabled reports whether Google sign-in credentials are present.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Validate checks that required keys are present. Production additionally
// requires Google and Stripe credentials.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("EMAILY_ENV must be %s or %s, got %q", EnvDevelopment, EnvProduction, c.Env))
	}
	if c.CookieKey == "" {
		errs = append(errs, errors.New("COOKIE_KEY is required"))
	}
	if c.Production() {
		if !c.GoogleEnabled() {
			errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required in production"))
		}
		if c.StripeSecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required in production"))
		}
	}
	return errors.Join(errs...)
}
