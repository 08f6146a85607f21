// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package localstore implements the device-local persistence contract on
// SQLite: one JSON blob per owner for the nested graph, one for the
// deletion-intent set, and a separate table for document file bytes.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aboodalmontad/lawsync/lawsync"
)

// Store implements lawsync.LocalStore.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the local database at path. Use ":memory:" for
// tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := initialize(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func initialize(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS app_data (
			owner_id   TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE TABLE IF NOT EXISTS deletion_intents (
			owner_id   TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE TABLE IF NOT EXISTS document_files (
			doc_id     TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
	}
	for _, ddl := range tables {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create local table: %w", err)
		}
	}
	return nil
}

// LoadAppData returns the owner's nested graph, or nil when none is stored
// yet.
func (s *Store) LoadAppData(ctx context.Context, ownerID string) (*lawsync.AppData, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM app_data WHERE owner_id = ?`, ownerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query app data: %w", err)
	}
	var app lawsync.AppData
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		return nil, fmt.Errorf("decode app data: %w", err)
	}
	return &app, nil
}

// SaveAppData overwrites the owner's nested graph atomically.
func (s *Store) SaveAppData(ctx context.Context, ownerID string, data *lawsync.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode app data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_data (owner_id, data, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT (owner_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, ownerID, string(raw))
	if err != nil {
		return fmt.Errorf("save app data: %w", err)
	}
	return nil
}

// LoadDeletionSet returns the owner's intent set; a missing row yields an
// empty set, never nil.
func (s *Store) LoadDeletionSet(ctx context.Context, ownerID string) (*lawsync.DeletionSet, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM deletion_intents WHERE owner_id = ?`, ownerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &lawsync.DeletionSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query deletion intents: %w", err)
	}
	var set lawsync.DeletionSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		return nil, fmt.Errorf("decode deletion intents: %w", err)
	}
	return &set, nil
}

// SaveDeletionSet overwrites the owner's intent set.
func (s *Store) SaveDeletionSet(ctx context.Context, ownerID string, set *lawsync.DeletionSet) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode deletion intents: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deletion_intents (owner_id, data, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT (owner_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, ownerID, string(raw))
	if err != nil {
		return fmt.Errorf("save deletion intents: %w", err)
	}
	return nil
}

// SaveDocumentFile stores a document's bytes.
func (s *Store) SaveDocumentFile(ctx context.Context, docID string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_files (doc_id, data, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT (doc_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, docID, data)
	if err != nil {
		return fmt.Errorf("save document file: %w", err)
	}
	return nil
}

// LoadDocumentFile reads a document's bytes back.
func (s *Store) LoadDocumentFile(ctx context.Context, docID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM document_files WHERE doc_id = ?`, docID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document file %s not found", docID)
	}
	if err != nil {
		return nil, fmt.Errorf("query document file: %w", err)
	}
	return data, nil
}

// DeleteDocumentFile removes a document's bytes; missing files are not an
// error.
func (s *Store) DeleteDocumentFile(ctx context.Context, docID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM document_files WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("delete document file: %w", err)
	}
	return nil
}
