package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config defines command line configuration.
type Config struct {
	DB    DBConfig    `yaml:"db" toml:"db"`
	Log   LogConfig   `yaml:"log" toml:"log"`
	Tasks TasksConfig `yaml:"tasks" toml:"tasks"`
}

type DBConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	Path  string `yaml:"path" toml:"path"`
}

// TasksConfig holds defaults applied to newly created tasks.
type TasksConfig struct {
	DefaultExpect string `yaml:"default_expect" toml:"default_expect"`
}

const (
	DefaultDBPath        = ".tf.db"
	DefaultLogLevel      = "info"
	DefaultExpectedSpent = "30min"
)

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		DB:    DBConfig{Path: DefaultDBPath},
		Log:   LogConfig{Level: DefaultLogLevel},
		Tasks: TasksConfig{DefaultExpect: DefaultExpectedSpent},
	}
}

// Load reads configuration from an optional YAML or TOML file and environment
// variables. An explicit path takes precedence over TFLIES_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TFLIES_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dbPath := os.Getenv("TFLIES_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("TFLIES_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("TFLIES_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if expect := os.Getenv("TFLIES_DEFAULT_EXPECT"); expect != "" {
		cfg.Tasks.DefaultExpect = expect
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
