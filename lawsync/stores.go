// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"context"
	"time"
)

// RemoteStore is the contract the engine needs from the shared remote
// record store. Implementations translate transport failures into the
// package error taxonomy (ErrNetwork, ErrSchema, ErrConfiguration,
// ConstraintError) so the orchestrator can classify them.
type RemoteStore interface {
	// CheckSchema verifies the remote schema is reachable and complete.
	CheckSchema(ctx context.Context) error

	// FetchSnapshot reads the full remote record set, all tables.
	FetchSnapshot(ctx context.Context) (*Snapshot, error)

	// FetchDeletions reads the append-only deletion log entries newer than
	// since.
	FetchDeletions(ctx context.Context, since time.Time) ([]Tombstone, error)

	// Upsert inserts-or-updates records by primary key and echoes the
	// stored server state back, in input order.
	Upsert(ctx context.Context, table Table, records []Record) ([]Record, error)

	// DeleteRecords removes rows by primary key. Missing keys are not an
	// error.
	DeleteRecords(ctx context.Context, table Table, keys []string) error

	// LogDeletions appends entries to the deletion log.
	LogDeletions(ctx context.Context, entries []Tombstone) error
}

// BlobStore is the contract for the remote file storage behind case
// documents.
type BlobStore interface {
	// Remove deletes blobs by path, returning the paths actually removed.
	// A missing path counts as removed.
	Remove(ctx context.Context, paths []string) ([]string, error)

	// Upload stores a blob at path, replacing any existing one when
	// overwrite is set.
	Upload(ctx context.Context, path string, data []byte, overwrite bool) error

	// Download reads a blob back.
	Download(ctx context.Context, path string) ([]byte, error)
}

// LocalStore is the device-local persistence contract: one blob per owner
// for the nested graph, one for the deletion-intent set, and a separate
// per-document store for file bytes. All local data lives under the
// effective owner's namespace so an assistant's device stores data under
// the owning account.
type LocalStore interface {
	// LoadAppData returns the stored nested graph, or nil when the owner
	// has no local data yet.
	LoadAppData(ctx context.Context, ownerID string) (*AppData, error)

	// SaveAppData overwrites the stored nested graph.
	SaveAppData(ctx context.Context, ownerID string, data *AppData) error

	// LoadDeletionSet returns the stored intent set, never nil.
	LoadDeletionSet(ctx context.Context, ownerID string) (*DeletionSet, error)

	// SaveDeletionSet overwrites the stored intent set.
	SaveDeletionSet(ctx context.Context, ownerID string, set *DeletionSet) error

	// SaveDocumentFile stores a document's bytes by document id.
	SaveDocumentFile(ctx context.Context, docID string, data []byte) error

	// LoadDocumentFile reads a document's bytes back.
	LoadDocumentFile(ctx context.Context, docID string) ([]byte, error)

	// DeleteDocumentFile removes a document's bytes. Missing files are not
	// an error.
	DeleteDocumentFile(ctx context.Context, docID string) error
}
