// Copyright (c) Microsoft. All rights reserved.

// Package config loads runtime settings for agent-loop binaries from a YAML
// file, with environment expansion and sensible defaults. The agentloop
// package itself takes plain options and never reads configuration; this
// package exists for executables like samples/chat.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings a loop binary needs to construct a client and an
// agent. String values may reference environment variables with ${VAR}
// syntax; they are expanded at load time.
type Config struct {
	Model            string `mapstructure:"model"`
	BaseURL          string `mapstructure:"base_url"`
	Instructions     string `mapstructure:"instructions"`
	MaxIterations    int    `mapstructure:"max_iterations"`
	RequestTimeoutMS int    `mapstructure:"request_timeout_ms"`
	LogLevel         string `mapstructure:"log_level"`
	HistoryDB        string `mapstructure:"history_db"`
	ConversationID   string `mapstructure:"conversation_id"`
	Tools            Tools  `mapstructure:"tools"`
}

// Tools configures tool dispatch behavior.
type Tools struct {
	TimeoutMS  int  `mapstructure:"timeout_ms"`
	Sequential bool `mapstructure:"sequential"`
}

// Load reads configuration from path. An empty path loads defaults only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("max_iterations", 10)
	v.SetDefault("request_timeout_ms", 60000)
	v.SetDefault("log_level", "info")
	v.SetDefault("tools.timeout_ms", 30000)
	v.SetDefault("tools.sequential", false)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings that would misconfigure a loop.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1")
	}
	if c.RequestTimeoutMS < 0 || c.Tools.TimeoutMS < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	cfg.Model = os.ExpandEnv(cfg.Model)
	cfg.BaseURL = os.ExpandEnv(cfg.BaseURL)
	cfg.Instructions = os.ExpandEnv(cfg.Instructions)
	cfg.HistoryDB = os.ExpandEnv(cfg.HistoryDB)
	cfg.ConversationID = os.ExpandEnv(cfg.ConversationID)
}
