package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all focal configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Ranking  RankingConfig  `yaml:"ranking"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RankingConfig struct {
	// MaxVisible bounds the visible set; the surface shows 3-5 things.
	MaxVisible int `yaml:"max_visible"`

	// RerankEvery is a cron spec for the periodic recompute tick.
	RerankEvery string `yaml:"rerank_every"`

	// DecayEvery is a cron spec for rolling-window histogram decay.
	DecayEvery string `yaml:"decay_every"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37440,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Ranking: RankingConfig{
			MaxVisible:  4,
			RerankEvery: "@every 1m",
			DecayEvery:  "@daily",
		},
	}
}

// Load reads a YAML config file and fills gaps with defaults. A missing
// file is not an error; callers get the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns the config path from the environment or the default
// location next to the database.
func DefaultPath() string {
	if path := os.Getenv("FOCAL_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "focal.yaml"
	}
	return home + "/.focal/config.yaml"
}

func (c Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Ranking.MaxVisible < 1 {
		return fmt.Errorf("ranking max_visible must be positive, got %d", c.Ranking.MaxVisible)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
