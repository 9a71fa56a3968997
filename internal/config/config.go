package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Registry RegistryConfig `yaml:"registry"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	UI       UIConfig       `yaml:"ui"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type RegistryConfig struct {
	// GracePeriod keeps the live view running after the last subscriber leaves.
	GracePeriod time.Duration `yaml:"grace_period"`
}

type LoggingConfig struct {
	File        string `yaml:"file"`
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	// Addr enables the /metrics endpoint when non-empty, e.g. "127.0.0.1:9464".
	Addr string `yaml:"addr"`
}

type UIConfig struct {
	StatusTimeout time.Duration `yaml:"status_timeout"`
}

func Default() Config {
	return Config{
		Storage:  StorageConfig{Driver: DriverSQLite, Path: "todo.db"},
		Registry: RegistryConfig{GracePeriod: 5 * time.Second},
		Logging:  LoggingConfig{File: "todo.log"},
		UI:       UIConfig{StatusTimeout: 1500 * time.Millisecond},
	}
}

// Load reads a YAML file on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("TODO_STORAGE_DRIVER"); ok {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvString("TODO_DB_PATH"); ok {
		cfg.Storage.Path = v
	}
	if v, ok := getEnvString("TODO_DB_DSN"); ok {
		cfg.Storage.DSN = v
	}
	if v, ok := getEnvDuration("TODO_GRACE_PERIOD"); ok && v >= 0 {
		cfg.Registry.GracePeriod = v
	}
	if v, ok := getEnvString("TODO_LOG_FILE"); ok {
		cfg.Logging.File = v
	}
	if v, ok := getEnvBool("TODO_LOG_DEV"); ok {
		cfg.Logging.Development = v
	}
	if v, ok := getEnvString("TODO_METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
	if v, ok := getEnvDuration("TODO_STATUS_TIMEOUT"); ok && v > 0 {
		cfg.UI.StatusTimeout = v
	}
	return cfg
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("config: storage.path is required for sqlite")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("config: storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Registry.GracePeriod < 0 {
		return fmt.Errorf("config: negative grace period %s", c.Registry.GracePeriod)
	}
	if c.UI.StatusTimeout < 0 {
		return fmt.Errorf("config: negative status timeout %s", c.UI.StatusTimeout)
	}
	return nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

// getEnvDuration accepts Go durations ("5s") or a bare number of milliseconds.
func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, true
	}
	if v, ok := getEnvInt(name); ok {
		return time.Duration(v) * time.Millisecond, true
	}
	return 0, false
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
