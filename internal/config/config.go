// Package config loads rb settings from a YAML file, an optional .env file
// and RB_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/rental-bridge/internal/db"
	"github.com/evcraddock/rental-bridge/internal/email"
	"github.com/evcraddock/rental-bridge/internal/kv"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Mail modes.
const (
	MailLog  = "log"
	MailSMTP = "smtp"
	MailAMQP = "amqp"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// Config holds rb configuration persisted to disk.
type Config struct {
	Backend   string           `yaml:"backend,omitempty"`
	DBPath    string           `yaml:"db_path,omitempty"`
	Namespace string           `yaml:"namespace,omitempty"`
	Redis     RedisConfig      `yaml:"redis,omitempty"`
	SMTP      email.SMTPConfig `yaml:"smtp,omitempty"`
	AMQPURL   string           `yaml:"amqp_url,omitempty"`
	MailMode  string           `yaml:"mail_mode,omitempty"`
	HashCost  int              `yaml:"hash_cost,omitempty"`
	DevMode   bool             `yaml:"dev_mode,omitempty"`
	LogFile   string           `yaml:"log_file,omitempty"`
}

// DefaultPath returns the path to the config file: ~/.config/rb/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rb", "config.yaml"), nil
}

// Load reads the config file at path, or DefaultPath when path is empty,
// loads .env from the working directory if present and applies RB_*
// overrides and defaults. A missing config file is not an error.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	cfg, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadDotEnv sets variables from path without overriding ones already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func readFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Backend, "RB_BACKEND")
	setString(&c.DBPath, "RB_DB")
	setString(&c.Namespace, "RB_NAMESPACE")
	setString(&c.Redis.Addr, "RB_REDIS_ADDR")
	setString(&c.Redis.Password, "RB_REDIS_PASSWORD")
	setString(&c.SMTP.Host, "RB_SMTP_HOST")
	setString(&c.SMTP.Port, "RB_SMTP_PORT")
	setString(&c.SMTP.User, "RB_SMTP_USER")
	setString(&c.SMTP.Pass, "RB_SMTP_PASS")
	setString(&c.SMTP.From, "RB_SMTP_FROM")
	setString(&c.AMQPURL, "AMQP_URL")
	setString(&c.AMQPURL, "RABBITMQ_URL")
	setString(&c.AMQPURL, "RB_AMQP_URL")
	setString(&c.MailMode, "RB_MAIL_MODE")
	setString(&c.LogFile, "RB_LOG_FILE")

	if v := os.Getenv("RB_DEV_MODE"); v != "" {
		c.DevMode = v == "true"
	}
	if err := setInt(&c.Redis.DB, "RB_REDIS_DB"); err != nil {
		return err
	}
	return setInt(&c.HashCost, "RB_HASH_COST")
}

func (c *Config) applyDefaults() error {
	setDefault(&c.Backend, BackendSQLite)
	setDefault(&c.Namespace, kv.DefaultNamespace)
	setDefault(&c.Redis.Addr, "localhost:6379")
	setDefault(&c.SMTP.Port, "587")
	setDefault(&c.MailMode, MailLog)

	if c.DBPath == "" && c.Backend == BackendSQLite {
		path, err := db.DefaultPath()
		if err != nil {
			return err
		}
		c.DBPath = path
	}
	if c.LogFile == "" && !c.DevMode {
		path, err := db.DefaultPath()
		if err != nil {
			return err
		}
		c.LogFile = filepath.Join(filepath.Dir(path), "rb.log")
	}
	return nil
}

// Validate checks that every setting has a usable value.
func (c Config) Validate() error {
	if !slices.Contains([]string{BackendSQLite, BackendRedis, BackendMemory}, c.Backend) {
		return fmt.Errorf("unknown backend %q (want sqlite, redis or memory)", c.Backend)
	}
	if !slices.Contains([]string{MailLog, MailSMTP, MailAMQP}, c.MailMode) {
		return fmt.Errorf("unknown mail mode %q (want log, smtp or amqp)", c.MailMode)
	}
	if c.MailMode == MailSMTP && !c.SMTP.IsConfigured() {
		return fmt.Errorf("mail mode smtp requires smtp host and from")
	}
	if c.HashCost < 0 || c.HashCost > 31 {
		return fmt.Errorf("hash cost %d out of range", c.HashCost)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDefault(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
