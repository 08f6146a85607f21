// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aboodalmontad/lawsync/lawsync"
	"github.com/aboodalmontad/lawsync/localstore"
	"github.com/aboodalmontad/lawsync/pgstore"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "lawsyncd",
		Short:         "Sync a local legal-practice database with the shared remote store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(),
		"path to the YAML config file")

	root.AddCommand(
		newSyncCmd(&configPath),
		newRefreshCmd(&configPath),
		newStatusCmd(&configPath),
		newDocsCmd(&configPath),
		newInitSchemaCmd(&configPath),
	)
	return root
}

// runtime bundles everything a command needs, built from config.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	engine *lawsync.Engine
	store  *pgstore.Store
	local  *localstore.Store
	pool   *pgxpool.Pool
}

func (r *runtime) close() {
	if r.pool != nil {
		r.pool.Close()
	}
	if r.local != nil {
		r.local.Close()
	}
}

func setup(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log)

	local, err := localstore.Open(cfg.LocalPath)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, logger: logger, local: local}

	// Without a database URL the engine runs unconfigured: local edits
	// keep accumulating and every sync reports StatusUnconfigured.
	var remote lawsync.RemoteStore
	var blobs lawsync.BlobStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			local.Close()
			return nil, fmt.Errorf("connect to remote store: %w", err)
		}
		rt.pool = pool
		rt.store = pgstore.New(pool, cfg.Schema, logger)
		remote = rt.store
		blobs = pgstore.NewBlobs(rt.store)
	}

	engine, err := lawsync.NewEngine(remote, blobs, local, lawsync.Config{
		OwnerID: cfg.OwnerID,
		UserID:  cfg.UserID,
		OnStatus: func(status lawsync.Status, message string) {
			logger.Info("status", "status", status, "message", message)
		},
	}, logger)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.engine = engine
	return rt, nil
}

func newLogger(cfg LogConfig) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
