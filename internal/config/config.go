package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/householdnotes/internal/notes"
	"github.com/2beens/householdnotes/pkg"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	log "github.com/sirupsen/logrus"
)

const (
	IdentityStorageFile   = "file"
	IdentityStorageRedis  = "redis"
	IdentityStorageMemory = "memory"

	NotesRepoMemory   = "memory"
	NotesRepoPostgres = "postgres"
)

type Config struct {
	Environment string `toml:"environment"`

	// notes api client
	ApiUrl     string        `toml:"api_url" env:"HX_API_URL"`
	ApiTimeout time.Duration `toml:"api_timeout" env:"HX_API_TIMEOUT"`

	// logging
	LogLevel      string `toml:"log_level" env:"HX_LOG_LEVEL"`
	LogsPath      string `toml:"logs_path" env:"HX_LOGS_PATH"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled" env:"HX_SENTRY_ENABLED"`
	SentryDSN     string `toml:"-" env:"SENTRY_DSN"`

	// tracing
	HoneycombEnabled bool `toml:"honeycomb_enabled" env:"HONEYCOMB_ENABLED"`

	// identity
	IdentityStorage  string `toml:"identity_storage" env:"HX_IDENTITY_STORAGE"`
	IdentityFilePath string `toml:"identity_file_path" env:"HX_IDENTITY_FILE"`

	// redis, used by the redis identity storage
	RedisHost     string `toml:"redis_host" env:"HX_REDIS_HOST"`
	RedisPort     string `toml:"redis_port" env:"HX_REDIS_PORT"`
	RedisPassword string `toml:"-" env:"HX_REDIS_PASS"`

	// dev server
	Host        string   `toml:"host" env:"HX_HOST"`
	Port        int      `toml:"port" env:"HX_PORT"`
	CorsOrigins []string `toml:"cors_origins" env:"HX_CORS_ORIGINS" envSeparator:","`
	NotesRepo   string   `toml:"notes_repo" env:"HX_NOTES_REPO"`

	// postgres, used by the postgres notes repo
	PostgresHost     string `toml:"postgres_host" env:"HX_POSTGRES_HOST"`
	PostgresPort     string `toml:"postgres_port" env:"HX_POSTGRES_PORT"`
	PostgresDBName   string `toml:"postgres_db_name" env:"HX_POSTGRES_DB"`
	PostgresPassword string `toml:"-" env:"HX_POSTGRES_PASS"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no [%s] section in config", env)
	}
	return cfg, nil
}

// Default is used when no config file is present.
func Default(environment string) *Config {
	cfg := &Config{
		Environment: environment,
		LogToStdout: true,
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads the TOML config for env from path, then applies env var overrides.
// A missing file is not an error: defaults plus env vars are used instead.
func Load(environment, path string) (*Config, error) {
	cfg, err := loadFile(environment, path)
	if err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(environment, path string) (*Config, error) {
	if path == "" {
		return Default(environment), nil
	}

	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return nil, fmt.Errorf("check config path: %w", err)
	}
	if !exists {
		log.Debugf("config file [%s] not found, using defaults", path)
		return Default(environment), nil
	}

	var tomlCfg Toml
	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := tomlCfg.Get(environment)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = environment
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ApiUrl == "" {
		c.ApiUrl = notes.DefaultApiUrl
	}
	if c.ApiTimeout <= 0 {
		c.ApiTimeout = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.IdentityStorage == "" {
		c.IdentityStorage = IdentityStorageFile
	}
	if c.IdentityFilePath == "" {
		c.IdentityFilePath = defaultIdentityFilePath()
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if len(c.CorsOrigins) == 0 {
		c.CorsOrigins = []string{"http://localhost:5173"}
	}
	if c.NotesRepo == "" {
		c.NotesRepo = NotesRepoMemory
	}
	if c.PostgresHost == "" {
		c.PostgresHost = "localhost"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresDBName == "" {
		c.PostgresDBName = "household_notes"
	}
}

func defaultIdentityFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "hxnotes", "identity.toml")
}

func (c *Config) Validate() error {
	switch c.IdentityStorage {
	case IdentityStorageFile, IdentityStorageRedis, IdentityStorageMemory:
	default:
		return fmt.Errorf("unknown identity storage: %q", c.IdentityStorage)
	}
	switch c.NotesRepo {
	case NotesRepoMemory, NotesRepoPostgres:
	default:
		return fmt.Errorf("unknown notes repo: %q", c.NotesRepo)
	}
	return nil
}
