// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package pgstore implements the remote record store, deletion log, and
// blob store contracts on PostgreSQL. Record tables share one row shape:
// a primary key column, an updated_at column for index-friendly queries,
// and the full record JSON in a jsonb payload column.
package pgstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/aboodalmontad/lawsync/lawsync"
)

// Store implements lawsync.RemoteStore on a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	schema string
	logger *slog.Logger
}

// New creates a Store. The pool may be nil, in which case every call
// reports lawsync.ErrConfiguration; this mirrors an application that has
// not been pointed at a remote database yet.
func New(pool *pgxpool.Pool, schema string, logger *slog.Logger) *Store {
	if schema == "" {
		schema = "public"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, schema: schema, logger: logger}
}

func (s *Store) table(t lawsync.Table) string {
	return pgx.Identifier{s.schema, string(t)}.Sanitize()
}

// CheckSchema verifies every expected table exists in the configured
// schema.
func (s *Store) CheckSchema(ctx context.Context) error {
	if s.pool == nil {
		return lawsync.ErrConfiguration
	}
	expected := make([]string, 0, len(lawsync.AllTables)+1)
	for _, t := range lawsync.AllTables {
		expected = append(expected, string(t))
	}
	expected = append(expected, deletionLogTable)

	var present int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = ANY($2)
	`, s.schema, expected).Scan(&present)
	if err != nil {
		return classify(err, "")
	}
	if present < len(expected) {
		return fmt.Errorf("%w: %d of %d tables present in schema %q",
			lawsync.ErrSchema, present, len(expected), s.schema)
	}
	return nil
}

// FetchSnapshot reads all record tables concurrently into one flat
// snapshot.
func (s *Store) FetchSnapshot(ctx context.Context) (*lawsync.Snapshot, error) {
	if s.pool == nil {
		return nil, lawsync.ErrConfiguration
	}
	snap := &lawsync.Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	// Each goroutine writes a distinct snapshot field.
	g.Go(func() (err error) { snap.Clients, err = fetchTable[lawsync.Client](gctx, s, lawsync.TableClients); return })
	g.Go(func() (err error) { snap.Cases, err = fetchTable[lawsync.Case](gctx, s, lawsync.TableCases); return })
	g.Go(func() (err error) { snap.Stages, err = fetchTable[lawsync.Stage](gctx, s, lawsync.TableStages); return })
	g.Go(func() (err error) { snap.Sessions, err = fetchTable[lawsync.Session](gctx, s, lawsync.TableSessions); return })
	g.Go(func() (err error) {
		snap.AdminTasks, err = fetchTable[lawsync.AdminTask](gctx, s, lawsync.TableAdminTasks)
		return
	})
	g.Go(func() (err error) {
		snap.Appointments, err = fetchTable[lawsync.Appointment](gctx, s, lawsync.TableAppointments)
		return
	})
	g.Go(func() (err error) {
		snap.AccountingEntries, err = fetchTable[lawsync.AccountingEntry](gctx, s, lawsync.TableAccountingEntries)
		return
	})
	g.Go(func() (err error) { snap.Invoices, err = fetchTable[lawsync.Invoice](gctx, s, lawsync.TableInvoices); return })
	g.Go(func() (err error) {
		snap.InvoiceItems, err = fetchTable[lawsync.InvoiceItem](gctx, s, lawsync.TableInvoiceItems)
		return
	})
	g.Go(func() (err error) {
		snap.Assistants, err = fetchTable[lawsync.Assistant](gctx, s, lawsync.TableAssistants)
		return
	})
	g.Go(func() (err error) {
		snap.Documents, err = fetchTable[lawsync.CaseDocument](gctx, s, lawsync.TableCaseDocuments)
		return
	})
	g.Go(func() (err error) { snap.Profiles, err = fetchTable[lawsync.Profile](gctx, s, lawsync.TableProfiles); return })
	g.Go(func() (err error) {
		snap.SiteFinances, err = fetchTable[lawsync.SiteFinancialEntry](gctx, s, lawsync.TableSiteFinances)
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// FetchDeletions reads deletion log entries newer than since.
func (s *Store) FetchDeletions(ctx context.Context, since time.Time) ([]lawsync.Tombstone, error) {
	if s.pool == nil {
		return nil, lawsync.ErrConfiguration
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT table_name, record_id, user_id, deleted_at
		FROM %s WHERE deleted_at > $1
	`, pgx.Identifier{s.schema, deletionLogTable}.Sanitize()), since)
	if err != nil {
		return nil, classify(err, "")
	}
	defer rows.Close()

	var out []lawsync.Tombstone
	for rows.Next() {
		var ts lawsync.Tombstone
		var table string
		if err := rows.Scan(&table, &ts.RecordID, &ts.UserID, &ts.DeletedAt); err != nil {
			return nil, classify(err, "")
		}
		ts.TableName = lawsync.Table(table)
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "")
	}
	return out, nil
}

// Upsert inserts-or-updates records by primary key in one batch and echoes
// the stored rows back in input order.
func (s *Store) Upsert(ctx context.Context, table lawsync.Table, records []lawsync.Record) ([]lawsync.Record, error) {
	if s.pool == nil {
		return nil, lawsync.ErrConfiguration
	}
	if len(records) == 0 {
		return nil, nil
	}

	pk := keyColumn(table)
	sql := fmt.Sprintf(`
		INSERT INTO %s (%s, updated_at, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (%s) DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			data = EXCLUDED.data
		RETURNING data
	`, s.table(table), pk, pk)

	batch := &pgx.Batch{}
	for _, rec := range records {
		payload, err := encodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", table, rec.Key(), err)
		}
		batch.Queue(sql, rec.Key(), rec.Updated(), payload)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	echo := make([]lawsync.Record, 0, len(records))
	for range records {
		var payload []byte
		if err := results.QueryRow().Scan(&payload); err != nil {
			return nil, classify(err, table)
		}
		rec, err := decodeRecord(table, payload)
		if err != nil {
			return nil, fmt.Errorf("decode %s echo: %w", table, err)
		}
		echo = append(echo, rec)
	}
	return echo, nil
}

// DeleteRecords removes rows by primary key. Missing keys are ignored.
func (s *Store) DeleteRecords(ctx context.Context, table lawsync.Table, keys []string) error {
	if s.pool == nil {
		return lawsync.ErrConfiguration
	}
	if len(keys) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE %s = ANY($1)`, s.table(table), keyColumn(table)), keys)
	if err != nil {
		return classify(err, table)
	}
	return nil
}

// LogDeletions appends entries to the deletion log.
func (s *Store) LogDeletions(ctx context.Context, entries []lawsync.Tombstone) error {
	if s.pool == nil {
		return lawsync.ErrConfiguration
	}
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	sql := fmt.Sprintf(`
		INSERT INTO %s (table_name, record_id, user_id, deleted_at)
		VALUES ($1, $2, $3, $4)
	`, pgx.Identifier{s.schema, deletionLogTable}.Sanitize())
	for _, e := range entries {
		batch.Queue(sql, string(e.TableName), e.RecordID, e.UserID, e.DeletedAt)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return classify(err, "")
		}
	}
	return nil
}

func fetchTable[R any](ctx context.Context, s *Store, table lawsync.Table) ([]R, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT data FROM %s`, s.table(table)))
	if err != nil {
		return nil, classify(err, table)
	}
	defer rows.Close()

	var out []R
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, classify(err, table)
		}
		rec, err := decodePayload[R](payload)
		if err != nil {
			// One malformed row must not sink the whole sync.
			s.logger.Warn("skipping malformed row", "table", table, "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, table)
	}
	return out, nil
}
