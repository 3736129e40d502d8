// Package config loads service configuration from a yaml file with
// defaults applied for anything the file leaves out. Environment
// variables override the file, see FromEnv.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	Client ClientConfig `yaml:"client" json:"client"`
	Auth   AuthConfig   `yaml:"auth" json:"auth"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
	DBFile  string `yaml:"db_file" json:"db_file"`
}

type ClientConfig struct {
	BaseURL          string `yaml:"base_url" json:"base_url"`
	DebounceMS       int    `yaml:"debounce_ms" json:"debounce_ms"`
	VerifyCooldownMS int    `yaml:"verify_cooldown_ms" json:"verify_cooldown_ms"`
}

type AuthConfig struct {
	CodeTTLMin       int `yaml:"code_ttl_min" json:"code_ttl_min"`
	ResendCooldownMS int `yaml:"resend_cooldown_ms" json:"resend_cooldown_ms"`
	MaxAttempts      int `yaml:"max_attempts" json:"max_attempts"`
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "data"
	}
	if c.Server.DBFile == "" {
		c.Server.DBFile = "todos.db"
	}
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = "http://localhost:8080"
	}
	if c.Client.DebounceMS == 0 {
		c.Client.DebounceMS = 800
	}
	if c.Client.VerifyCooldownMS == 0 {
		c.Client.VerifyCooldownMS = 60_000
	}
	if c.Auth.CodeTTLMin == 0 {
		c.Auth.CodeTTLMin = 10
	}
	if c.Auth.ResendCooldownMS == 0 {
		c.Auth.ResendCooldownMS = 60_000
	}
	if c.Auth.MaxAttempts == 0 {
		c.Auth.MaxAttempts = 5
	}
}

func (c ClientConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c ClientConfig) VerifyCooldown() time.Duration {
	return time.Duration(c.VerifyCooldownMS) * time.Millisecond
}

func (a AuthConfig) CodeTTL() time.Duration {
	return time.Duration(a.CodeTTLMin) * time.Minute
}

func (a AuthConfig) ResendCooldown() time.Duration {
	return time.Duration(a.ResendCooldownMS) * time.Millisecond
}

// Default returns a config with every default applied.
func Default() *Config {
	var c Config
	c.ApplyDefaults()
	return &c
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	return &c, nil
}

// FromEnv overrides fields from environment variables when set.
func (c *Config) FromEnv() {
	if v := os.Getenv("TODOS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TODOS_DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := os.Getenv("TODOS_DB_FILE"); v != "" {
		c.Server.DBFile = v
	}
	if v := os.Getenv("TODOS_BASE_URL"); v != "" {
		c.Client.BaseURL = v
	}
}
