// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration for lawsyncd.
type Config struct {
	// DatabaseURL is the Postgres connection string of the shared remote
	// store. Empty means unconfigured: local-only operation.
	DatabaseURL string `yaml:"database_url"`
	// Schema is the Postgres schema holding the record tables.
	Schema string `yaml:"schema"`
	// LocalPath is the SQLite file holding this device's data.
	LocalPath string `yaml:"local_path"`
	// OwnerID is the effective owner account all local data is keyed by.
	OwnerID string `yaml:"owner_id"`
	// UserID is the signed-in user recorded on tombstones; defaults to
	// OwnerID.
	UserID string `yaml:"user_id"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// File, when set, sends logs to a rotating file instead of stderr.
	File string `yaml:"file"`
	// Level is debug, info, warn or error. Default info.
	Level string `yaml:"level"`
	// MaxSizeMB caps a log file before rotation. Default 10.
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxBackups caps retained rotated files. Default 3.
	MaxBackups int `yaml:"max_backups"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lawsync.yaml"
	}
	return filepath.Join(home, ".lawsync", "config.yaml")
}

func loadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.OwnerID == "" {
		return nil, fmt.Errorf("config %s: owner_id is required", path)
	}
	if cfg.UserID == "" {
		cfg.UserID = cfg.OwnerID
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = filepath.Join(filepath.Dir(path), "local.db")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	return cfg, nil
}
