package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/jhchabran/agora"
	"github.com/jhchabran/agora/boltstore"
	"github.com/jhchabran/agora/memstore"
	"github.com/jhchabran/agora/pgstore"
	"github.com/jhchabran/agora/redisstore"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supported backends.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	LogLevel         string `json:"log_level"`
	LogFormat        string `json:"log_format"`
	Addr             string `json:"addr"`
	ServerSecret     string `json:"server_secret,required"`
	SecureCookies    bool   `json:"secure_cookies"`
	MaxConnections   int    `json:"max_connections"`
	Backend          string `json:"backend"`
	BoltPath         string `json:"bolt_path"`
	RedisAddr        string `json:"redis_addr"`
	RedisPassword    string `json:"redis_password"`
	RedisPrefix      string `json:"redis_prefix"`
	DatabaseName     string `json:"database_name"`
	DatabaseUser     string `json:"database_user"`
	DatabaseHost     string `json:"database_host"`
	DatabasePassword string `json:"database_password"`
	SlackWebhookURL  string `json:"slack_webhook_url"`
	CurrentUserID    int64  `json:"current_user_id"`
	CurrentUserName  string `json:"current_user_name"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "json",
		Addr:             "localhost:8080",
		Backend:          BackendMemory,
		BoltPath:         "agora.db",
		RedisAddr:        "127.0.0.1:6379",
		RedisPrefix:      redisstore.DefaultPrefix,
		DatabaseName:     "agora",
		DatabaseUser:     "postgres",
		DatabasePassword: "postgres",
		DatabaseHost:     "127.0.0.1",
		CurrentUserID:    agora.DefaultAuthor.ID,
		CurrentUserName:  agora.DefaultAuthor.Name,
	}
}

// Load reads config.json from the working directory, if any, then the environment.
// Variables from a .env file are added to the environment without overriding it.
func (c *Config) Load() error {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load .env: %w", err)
	}
	return c.LoadFile("config.json")
}

// LoadFile reads the configuration file at path, if it exists, then applies the
// environment overrides and validates the result.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	if err == nil {
		defer f.Close()
		err = json.NewDecoder(f).Decode(c)
		if err != nil {
			return fmt.Errorf("cannot decode %s: %w", path, err)
		}
	}

	strVars := map[string]*string{
		"LOG_LEVEL":         &c.LogLevel,
		"LOG_FORMAT":        &c.LogFormat,
		"ADDR":              &c.Addr,
		"SERVER_SECRET":     &c.ServerSecret,
		"BACKEND":           &c.Backend,
		"BOLT_PATH":         &c.BoltPath,
		"REDIS_ADDR":        &c.RedisAddr,
		"REDIS_PASSWORD":    &c.RedisPassword,
		"REDIS_PREFIX":      &c.RedisPrefix,
		"DATABASE_NAME":     &c.DatabaseName,
		"DATABASE_USER":     &c.DatabaseUser,
		"DATABASE_HOST":     &c.DatabaseHost,
		"DATABASE_PASSWORD": &c.DatabasePassword,
		"SLACK_WEBHOOK_URL": &c.SlackWebhookURL,
		"CURRENT_USER_NAME": &c.CurrentUserName,
	}
	for name, dst := range strVars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	v := os.Getenv("SECURE_COOKIES")
	if v != "" {
		vb, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SECURE_COOKIES %q: %w", v, err)
		}

		c.SecureCookies = vb
	}

	v = os.Getenv("MAX_CONNECTIONS")
	if v != "" {
		vi, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_CONNECTIONS %q: %w", v, err)
		}

		c.MaxConnections = vi
	}

	v = os.Getenv("CURRENT_USER_ID")
	if v != "" {
		vi, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CURRENT_USER_ID %q: %w", v, err)
		}

		c.CurrentUserID = vi
	}

	return c.Validate()
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ServerSecret == "" {
		return fmt.Errorf("missing config 'server secret'")
	}

	switch c.Backend {
	case BackendMemory, BackendBolt, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.Backend == BackendBolt && c.BoltPath == "" {
		return fmt.Errorf("missing config 'bolt path'")
	}

	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid config 'max connections': %d", c.MaxConnections)
	}

	if c.Backend == BackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("missing config 'redis addr'")
	}

	return nil
}

// CurrentUser is the identity of the comments posted through this deployment.
func (c *Config) CurrentUser() agora.Author {
	return agora.Author{ID: c.CurrentUserID, Name: c.CurrentUserName}
}

// PostgresDSN returns the lib/pq connection string for the configured database.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"user=%v dbname=%v sslmode=disable password=%v host=%v",
		c.DatabaseUser,
		c.DatabaseName,
		c.DatabasePassword,
		c.DatabaseHost,
	)
}

// OpenBackend opens the configured backend. The returned func releases it.
func OpenBackend(cfg *Config, logger zerolog.Logger) (agora.ListableBackend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case BackendMemory:
		return memstore.New(), noop, nil
	case BackendBolt:
		opts := boltstore.DefaultOptions()
		opts.Path = cfg.BoltPath
		s, err := boltstore.Open(opts)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendRedis:
		s, err := redisstore.Open(redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Prefix:   cfg.RedisPrefix,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendPostgres:
		s := pgstore.New(cfg.PostgresDSN())
		if err := s.Connect(); err != nil {
			return nil, nil, fmt.Errorf("can't connect to database: %w", err)
		}
		return s, s.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func SetupLogger(cfg *Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("input", cfg.LogLevel).Msg("Cannot parse log level")
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "" || cfg.LogFormat == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}
