// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aboodalmontad/lawsync/lawsync"
)

// InitSchema creates the record tables, the deletion log, and the blob
// table if they are absent. Production deployments provision the schema
// with migration scripts; this exists for development and tests.
func (s *Store) InitSchema(ctx context.Context) error {
	if s.pool == nil {
		return lawsync.ErrConfiguration
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf(
			`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{s.schema}.Sanitize())); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}

		for _, t := range lawsync.AllTables {
			ddl := fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					%s         TEXT PRIMARY KEY,
					updated_at TIMESTAMPTZ NOT NULL,
					data       JSONB NOT NULL
				)`, s.table(t), keyColumn(t))
			if _, err := tx.Exec(ctx, ddl); err != nil {
				return fmt.Errorf("create table %s: %w", t, err)
			}
		}

		logDDL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				table_name TEXT NOT NULL,
				record_id  TEXT NOT NULL,
				user_id    TEXT NOT NULL,
				deleted_at TIMESTAMPTZ NOT NULL
			)`, pgx.Identifier{s.schema, deletionLogTable}.Sanitize())
		if _, err := tx.Exec(ctx, logDDL); err != nil {
			return fmt.Errorf("create deletion log: %w", err)
		}
		idxDDL := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS sync_deletions_deleted_at_idx ON %s (deleted_at)`,
			pgx.Identifier{s.schema, deletionLogTable}.Sanitize())
		if _, err := tx.Exec(ctx, idxDDL); err != nil {
			return fmt.Errorf("index deletion log: %w", err)
		}

		blobDDL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				path       TEXT PRIMARY KEY,
				data       BYTEA NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, pgx.Identifier{s.schema, blobTable}.Sanitize())
		if _, err := tx.Exec(ctx, blobDDL); err != nil {
			return fmt.Errorf("create blob table: %w", err)
		}
		return nil
	})
}
