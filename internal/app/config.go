package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/0pain01/Monk-coupon/internal/domain/coupon"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (COUPON_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (COUPON_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	MaxBodyBytes int64  `default:"1048576" usage:"Maximum request body size in bytes" flag:"max-body-bytes"`
	Engine       EngineConfig `yaml:"engine"`
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// EngineConfig selects between the pricing behaviours the engine supports.
type EngineConfig struct {
	BxGyRepetition string `default:"capped" env:"BXGY_REPETITION" yaml:"bxgy_repetition" usage:"Buy-X-get-Y repetition mode: capped or legacy" flag:"bxgy-repetition"`
	Listing        string `default:"usable" env:"LISTING" yaml:"listing" usage:"Coupons considered by applicable-coupons: usable or all" flag:"listing"`
}

// RateLimitConfig controls the per-client limiter on pricing endpoints.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max pricing requests per window, 0 disables"`
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

// LoadConfig loads configuration from flags, environment variables and YAML
// config files, then applies platform defaults and validates it.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "COUPON",
		Files:     []string{"config.yaml", "/etc/coupon/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(loaderCfg aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, loaderCfg).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and engine options.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set COUPON_DATABASE_URL or DATABASE_URL")
	}
	if _, err := c.Engine.RepetitionMode(); err != nil {
		return errors.Wrap(err, "engine")
	}
	if _, err := c.Engine.ListingFilter(); err != nil {
		return errors.Wrap(err, "engine")
	}
	return nil
}

// RepetitionMode parses BxGyRepetition.
func (e EngineConfig) RepetitionMode() (coupon.RepetitionMode, error) {
	return coupon.ParseRepetitionMode(e.BxGyRepetition)
}

// ListingFilter parses Listing.
func (e EngineConfig) ListingFilter() (coupon.ListingFilter, error) {
	return coupon.ParseListingFilter(e.Listing)
}

// applyPlatformDefaults maps the conventional DATABASE_URL and PORT
// variables set by hosting platforms.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
