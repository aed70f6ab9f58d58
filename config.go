package galleryreport

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for a galleryreport instance.
type SiteConfig struct {
	Name string `yaml:"name"` // page title (default "Posts with Galleries")
	URL  string `yaml:"url"`  // canonical URL for post links (default "http://localhost:3000")

	Addr         string `yaml:"addr"`          // listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite path (default "data/galleries.db")
	UploadsDir   string `yaml:"uploads_dir"`   // attachment root (default "public/uploads")

	AdminPassword string `yaml:"admin_password"` // required by Start
	SessionSecret string `yaml:"session_secret"` // required by Start
	CookieSecure  bool   `yaml:"cookie_secure"`  // set true for HTTPS

	PerPage                int  `yaml:"per_page"` // posts per report page (default 10)
	Workers                int  `yaml:"workers"`  // rows built concurrently (default 1)
	IncludeOriginalInTotal bool `yaml:"include_original_in_total"`

	LogLevel       string `yaml:"log_level"` // debug, info, warn, error (default "info")
	LogDevelopment bool   `yaml:"log_development"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Posts with Galleries"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/galleries.db"
	}
	if c.UploadsDir == "" {
		c.UploadsDir = "public/uploads"
	}
	if c.PerPage <= 0 {
		c.PerPage = 10
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

const envPrefix = "GALLERYREPORT_"

// LoadDotEnv loads .env files with priority: .env.local > .env.
// godotenv does not overwrite variables that are already set, so the
// process environment always wins. Returns the files actually loaded.
func LoadDotEnv() []string {
	var loaded []string
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

// LoadConfig reads the optional YAML file at path, applies
// GALLERYREPORT_* environment overrides, and fills defaults. A missing
// file is not an error when path is empty.
func LoadConfig(path string) (SiteConfig, error) {
	LoadDotEnv()

	var cfg SiteConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return SiteConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return SiteConfig{}, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("NAME", &c.Name)
	str("URL", &c.URL)
	str("ADDR", &c.Addr)
	str("DATABASE_PATH", &c.DatabasePath)
	str("UPLOADS_DIR", &c.UploadsDir)
	str("ADMIN_PASSWORD", &c.AdminPassword)
	str("SESSION_SECRET", &c.SessionSecret)
	boolean("COOKIE_SECURE", &c.CookieSecure)
	integer("PER_PAGE", &c.PerPage)
	integer("WORKERS", &c.Workers)
	boolean("INCLUDE_ORIGINAL_IN_TOTAL", &c.IncludeOriginalInTotal)
	str("LOG_LEVEL", &c.LogLevel)
	boolean("LOG_DEVELOPMENT", &c.LogDevelopment)
	return errors.Join(errs...)
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger used by the app and the report generator.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.Logger = l
		}
	}
}

// WithStore uses an already opened store instead of DatabasePath.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithClock overrides the time source used to date uploads.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.clock = now
	}
}
