package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Store drivers.
const (
	DriverMemory       = "memory"
	DriverPostgres     = "postgres"
	DriverGormPostgres = "gorm-postgres"
	DriverGormMySQL    = "gorm-mysql"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Store    Store    `yaml:"store"`
	Redis    Redis    `yaml:"redis"`
	Security Security `yaml:"security"`
	Log      Log      `yaml:"log"`
}

type Server struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Redis is optional; an empty Addr disables the view cache and events.
type Redis struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
	PoolSize     int           `yaml:"poolSize"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
}

type Security struct {
	BcryptCost int `yaml:"bcryptCost"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server:   Server{Port: "3200", Mode: "release", ShutdownTimeout: 10 * time.Second},
		Store:    Store{Driver: DriverMemory},
		Redis: Redis{
			CacheTTL:     5 * time.Minute,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Security: Security{BcryptCost: 10},
		Log:      Log{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "config file %s format error", path)
		}
	case !os.IsNotExist(err):
		return cfg, errors.Wrapf(err, "can't read the config file %s", path)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func applyEnv(cfg *Config) error {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Mode = getEnv("GIN_MODE", cfg.Server.Mode)
	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
	cfg.Store.DSN = getEnv("DATABASE_URL", cfg.Store.DSN)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	var err error
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", cfg.Redis.DB); err != nil {
		return err
	}
	if cfg.Redis.PoolSize, err = getEnvInt("REDIS_POOL_SIZE", cfg.Redis.PoolSize); err != nil {
		return err
	}
	if cfg.Security.BcryptCost, err = getEnvInt("BCRYPT_COST", cfg.Security.BcryptCost); err != nil {
		return err
	}
	if cfg.Redis.CacheTTL, err = getEnvDuration("CACHE_TTL", cfg.Redis.CacheTTL); err != nil {
		return err
	}
	if cfg.Server.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	return nil
}

func (c Config) validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return errors.Errorf("unknown server mode %q (want debug, release or test)", c.Server.Mode)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres, DriverGormPostgres, DriverGormMySQL:
		if c.Store.DSN == "" {
			return errors.Errorf("store driver %q needs a DSN (DATABASE_URL)", c.Store.Driver)
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Redis.PoolSize < 1 {
		return errors.Errorf("redis pool size %d must be at least 1", c.Redis.PoolSize)
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return errors.Errorf("bcrypt cost %d out of range [4, 31]", c.Security.BcryptCost)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return d, nil
}
