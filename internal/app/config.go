package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CAMPO_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (CAMPO_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	Auth         AuthConfig
	Exchange     ExchangeConfig
	Payment      PaymentConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// AuthConfig controls the static token provider. Real deployments load
// the user table from the config file; Users has no env representation.
type AuthConfig struct {
	Pepper string `usage:"HMAC pepper for session token hashing (CAMPO_AUTH_PEPPER)" flag:"auth-pepper"`
	Users  []AuthUser
}

// AuthUser is one token/user pair from the config file.
type AuthUser struct {
	Token string
	ID    string
	Name  string
	Email string
}

// ExchangeConfig controls the USD to BS rate fetcher and cache.
type ExchangeConfig struct {
	Sources     []string      `default:"https://ve.dolarapi.com/v1/dolares/oficial,https://api.dolarvzla.com/public/exchange-rate" usage:"Rate provider URLs, tried in order"`
	Fields      []string      `default:"promedio,price,usd,rate" usage:"JSON field names that may carry the rate"`
	DefaultRate string        `default:"36.50" usage:"Fallback rate when no provider ever answered" flag:"default-rate"`
	TTL         time.Duration `default:"6h" usage:"How long a fetched rate stays fresh"`
	Timeout     time.Duration `default:"5s" usage:"Per-request provider timeout"`
}

// PaymentConfig controls the simulated payment gateway.
type PaymentConfig struct {
	SimulatedDelay time.Duration `default:"150ms" usage:"Artificial gateway latency" flag:"payment-delay"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CAMPO",
		Files:     []string{"config.yaml", "/etc/campomarket/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CAMPO_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's CAMPO_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
