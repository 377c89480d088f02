package main

import (
	"fmt"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the environment-driven settings of the gateway.
type Config struct {
	Port     string `env:"PORT" env-default:"3000" env-description:"HTTP listen port"`
	StoreDir string `env:"STORE_DIR" env-default:"store" env-description:"directory for the WhatsApp device store"`
	LogLevel string `env:"LOG_LEVEL" env-default:"INFO" env-description:"log level (DEBUG, INFO, WARN, ERROR)"`
}

// LoadConfig reads the configuration from the environment, falling back to defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// StoreDSN points sqlstore at the device database inside StoreDir.
func (c *Config) StoreDSN() string {
	return fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(c.StoreDir, "whatsapp.db"))
}
