// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aboodalmontad/lawsync/lawsync"
)

// classify wraps a pgx error into the engine's taxonomy so the
// orchestrator can route it without knowing Postgres SQLSTATE codes.
func classify(err error, table lawsync.Table) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.SQLState() {
		case "42P01", // undefined_table
			"42703", // undefined_column
			"3F000": // invalid_schema_name
			return fmt.Errorf("%w: %s", lawsync.ErrSchema, pgErr.Message)
		case "23503", // foreign_key_violation
			"23505": // unique_violation
			return &lawsync.ConstraintError{Table: table, Err: err}
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", lawsync.ErrNetwork, err)
	}
	return err
}
