// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aboodalmontad/lawsync/lawsync"
)

const blobTable = "document_blobs"

// Blobs implements lawsync.BlobStore on the same database: document bytes
// live in a bytea table keyed by storage path. A dedicated object store can
// replace this without touching the engine.
type Blobs struct {
	store *Store
}

// NewBlobs creates a blob store sharing the record store's pool and schema.
func NewBlobs(store *Store) *Blobs { return &Blobs{store: store} }

func (b *Blobs) table() string {
	return pgx.Identifier{b.store.schema, blobTable}.Sanitize()
}

// Remove deletes blobs by path. Missing paths count as removed, so a
// retried round converges.
func (b *Blobs) Remove(ctx context.Context, paths []string) ([]string, error) {
	if b.store.pool == nil {
		return nil, lawsync.ErrConfiguration
	}
	if len(paths) == 0 {
		return nil, nil
	}
	_, err := b.store.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE path = ANY($1)`, b.table()), paths)
	if err != nil {
		return nil, classify(err, "")
	}
	return paths, nil
}

// Upload stores a blob. Without overwrite an existing blob is an error.
func (b *Blobs) Upload(ctx context.Context, path string, data []byte, overwrite bool) error {
	if b.store.pool == nil {
		return lawsync.ErrConfiguration
	}
	sql := fmt.Sprintf(`INSERT INTO %s (path, data) VALUES ($1, $2)`, b.table())
	if overwrite {
		sql += ` ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, created_at = now()`
	}
	if _, err := b.store.pool.Exec(ctx, sql, path, data); err != nil {
		return classify(err, "")
	}
	return nil
}

// Download reads a blob back.
func (b *Blobs) Download(ctx context.Context, path string) ([]byte, error) {
	if b.store.pool == nil {
		return nil, lawsync.ErrConfiguration
	}
	var data []byte
	err := b.store.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT data FROM %s WHERE path = $1`, b.table()), path).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("blob %q not found", path)
		}
		return nil, classify(err, "")
	}
	return data, nil
}
