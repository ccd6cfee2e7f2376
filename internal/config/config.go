package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/albumpages/paper-shipping/internal/carrier"
)

// Config represents the runtime settings of the server and the ratecheck tool
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Carrier  CarrierConfig

	// CatalogPath points at a catalog YAML file. Empty means the built-in catalog.
	CatalogPath string
	LogLevel    string
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SessionKey      string
	SessionName     string
	CleanupInterval time.Duration
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path          string
	EncryptionKey string
}

// CarrierConfig holds Endicia/USPS credentials and transport tuning
type CarrierConfig struct {
	APIURL        string
	AccountID     string
	PassPhrase    string
	FromZIP       string
	TestMode      bool
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration

	OAuthClientID     string
	OAuthClientSecret string
	OAuthTokenURL     string
	OAuthScopes       []string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	var errs []error
	p := parser{errs: &errs}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     p.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    p.duration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: p.duration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			SessionKey:      os.Getenv("SESSION_KEY"),
			SessionName:     getEnv("SESSION_NAME", "album-pages-session"),
			CleanupInterval: p.duration("SESSION_CLEANUP_INTERVAL", time.Hour),
		},
		Database: DatabaseConfig{
			Path:          getEnv("DB_PATH", "paper-shipping.db"),
			EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		},
		Carrier: CarrierConfig{
			APIURL:            os.Getenv("ENDICIA_API_URL"),
			AccountID:         os.Getenv("ENDICIA_ACCOUNT_ID"),
			PassPhrase:        os.Getenv("ENDICIA_PASS_PHRASE"),
			FromZIP:           getEnv("ENDICIA_FROM_ZIP", "90210"),
			TestMode:          p.boolean("ENDICIA_TEST_MODE", true),
			Timeout:           p.duration("ENDICIA_TIMEOUT", 30*time.Second),
			MaxRetries:        p.integer("ENDICIA_MAX_RETRIES", 2),
			RetryInterval:     p.duration("ENDICIA_RETRY_INTERVAL", 500*time.Millisecond),
			OAuthClientID:     os.Getenv("ENDICIA_OAUTH_CLIENT_ID"),
			OAuthClientSecret: os.Getenv("ENDICIA_OAUTH_CLIENT_SECRET"),
			OAuthTokenURL:     os.Getenv("ENDICIA_OAUTH_TOKEN_URL"),
			OAuthScopes:       splitList(os.Getenv("ENDICIA_OAUTH_SCOPES")),
		},
		CatalogPath: os.Getenv("CATALOG_PATH"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Carrier.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("ENDICIA_MAX_RETRIES must not be negative, got %d", cfg.Carrier.MaxRetries))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// OAuthEnabled reports whether client credentials were supplied for the carrier
func (c CarrierConfig) OAuthEnabled() bool {
	return c.OAuthClientID != "" && c.OAuthClientSecret != "" && c.OAuthTokenURL != ""
}

// Client converts the settings into a carrier client configuration
func (c CarrierConfig) Client() carrier.Config {
	cc := carrier.Config{
		APIURL:        c.APIURL,
		AccountID:     c.AccountID,
		PassPhrase:    c.PassPhrase,
		FromZIP:       c.FromZIP,
		TestMode:      c.TestMode,
		Timeout:       c.Timeout,
		MaxRetries:    uint64(max(c.MaxRetries, 0)),
		RetryInterval: c.RetryInterval,
	}
	if c.OAuthEnabled() {
		cc.OAuth = &carrier.OAuthConfig{
			ClientID:     c.OAuthClientID,
			ClientSecret: c.OAuthClientSecret,
			TokenURL:     c.OAuthTokenURL,
			Scopes:       c.OAuthScopes,
		}
	}
	return cc
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects every malformed variable instead of stopping at the first
type parser struct {
	errs *[]error
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func (p parser) integer(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func (p parser) boolean(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}
