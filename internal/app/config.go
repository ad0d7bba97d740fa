package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/brewhaven-cafe/internal/storage"
)

const (
	defaultAddr   = "0.0.0.0:8080"
	defaultSecret = "brewhaven-dev-secret-key"
)

// Config holds the complete application configuration, loadable from
// environment variables (BREW_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Store       StoreConfig
	Auth        AuthConfig
	CartOwner   string `default:"cafe_guest" usage:"Owner of the shared cart and of every order" flag:"cart-owner"`
	Version     string `default:"1.0.0" usage:"Version reported by /health"`
	DeployedVia string `default:"container" usage:"Deployment target reported by /health" flag:"deployed-via"`
	CORS        CORSConfig
	Gzip        GzipConfig
	RateLimit   RateLimitConfig
	Graceful    GracefulConfig
}

// StoreConfig selects and configures the backing store.
type StoreConfig struct {
	Driver        string        `default:"" usage:"Store driver: postgres, mongodb or none; empty picks one from the URLs"`
	DatabaseURL   string        `env:"DATABASE_URL" usage:"PostgreSQL connection URL (BREW_STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	MongoURI      string        `env:"MONGO_URI" usage:"MongoDB connection URI (BREW_STORE_MONGO_URI or MONGODB_URI)" flag:"mongo-uri"`
	MongoDatabase string        `env:"MONGO_DATABASE" default:"cloudmart" usage:"MongoDB database name" flag:"mongo-database"`
	Timeout       time.Duration `default:"5s" usage:"Per-request store timeout"`
	Seed          bool          `default:"true" usage:"Seed the catalog on startup when it is empty"`
}

// AuthConfig configures the demo account and token signing.
type AuthConfig struct {
	Secret   string        `default:"brewhaven-dev-secret-key" usage:"HMAC secret for tokens (BREW_AUTH_SECRET or JWT_SECRET_KEY)"`
	TokenTTL time.Duration `env:"TOKEN_TTL" default:"60m" usage:"Lifetime of issued tokens" flag:"token-ttl"`
	Username string        `default:"barista" usage:"Demo account username"`
	Password string        `default:"coffee123" usage:"Demo account password"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GzipConfig controls response compression.
type GzipConfig struct {
	Enabled bool `default:"true" usage:"Compress responses for clients that accept gzip"`
	Level   int  `default:"0" usage:"Compression level, 0 selects the default"`
}

// RateLimitConfig controls the optional per-client sliding window limit on
// login attempts. It is off unless Login is set.
type RateLimitConfig struct {
	Login      int           `default:"0" usage:"Max login attempts per client and window, 0 disables" flag:"login-rate-limit"`
	Window     time.Duration `default:"1m" usage:"Rate limit window duration"`
	TrustProxy bool          `default:"false" usage:"Key clients by X-Forwarded-For and X-Real-IP" flag:"trust-proxy"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

func (c StoreConfig) storage() storage.Config {
	return storage.Config{
		Driver:        c.Driver,
		DatabaseURL:   c.DatabaseURL,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
	}
}

func loaderConfig() aconfig.Config {
	return aconfig.Config{
		EnvPrefix: "BREW",
		Files:     []string{"config.yaml", "/etc/brewhaven/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	}
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return load(loaderConfig())
}

func load(lc aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, lc).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT to the BREW_-prefixed
// configuration. Explicit BREW_ settings win.
func (c *Config) applyPlatformDefaults() {
	if c.Store.DatabaseURL == "" {
		c.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Store.MongoURI == "" {
		c.Store.MongoURI = os.Getenv("MONGODB_URI")
	}
	if v := os.Getenv("JWT_SECRET_KEY"); v != "" && c.Auth.Secret == defaultSecret {
		c.Auth.Secret = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	driver, err := storage.ResolveDriver(c.Store.storage())
	if err != nil {
		return errors.Wrap(err, "store")
	}
	switch {
	case driver == storage.DriverPostgres && c.Store.DatabaseURL == "":
		return errors.New("postgres driver needs a database URL: set BREW_STORE_DATABASE_URL or DATABASE_URL")
	case driver == storage.DriverMongoDB && c.Store.MongoURI == "":
		return errors.New("mongodb driver needs a URI: set BREW_STORE_MONGO_URI or MONGODB_URI")
	case c.Auth.Secret == "":
		return errors.New("auth secret is required: set BREW_AUTH_SECRET or JWT_SECRET_KEY")
	case c.Auth.TokenTTL <= 0:
		return errors.Errorf("token TTL must be positive, got %s", c.Auth.TokenTTL)
	case c.CartOwner == "":
		return errors.New("cart owner must not be empty")
	}
	return nil
}
