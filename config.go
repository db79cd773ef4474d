package osiapp

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds runtime configuration for the application.
type AppConfig struct {
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppAddr string `envconfig:"APP_ADDR" default:":8080"`

	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`

	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"file::memory:?cache=shared"`

	SigningKey           string        `envconfig:"JWT_SIGNING_KEY" required:"true"`
	TokenExpirationHours int           `envconfig:"TOKEN_EXPIRATION_HOURS" default:"1"`
	ConfirmTokenMaxAge   time.Duration `envconfig:"CONFIRM_TOKEN_MAX_AGE" default:"24h"`
	Issuer               string        `envconfig:"JWT_ISSUER" default:"osiapp-api"`
	Audience             string        `envconfig:"JWT_AUDIENCE" default:"osiapp-api"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@osiapp.local"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SigningKey == "" {
		return nil, errors.New("jwt signing key must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *AppConfig) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func (c *AppConfig) GetSigningKey() string { return c.SigningKey }

func (c *AppConfig) GetSigningMethod() string { return "HS256" }

func (c *AppConfig) GetContextKey() string { return "user" }

func (c *AppConfig) GetTokenExpiration() int { return c.TokenExpirationHours }

func (c *AppConfig) GetTokenLookup() string { return "header:Authorization" }

func (c *AppConfig) GetAuthScheme() string { return "Bearer" }

func (c *AppConfig) GetIssuer() string { return c.Issuer }

func (c *AppConfig) GetAudience() []string {
	parts := strings.Split(c.Audience, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *AppConfig) GetConfirmationMaxAge() time.Duration { return c.ConfirmTokenMaxAge }

func (c *AppConfig) GetPublicBaseURL() string { return c.PublicBaseURL }

var _ Config = (*AppConfig)(nil)
