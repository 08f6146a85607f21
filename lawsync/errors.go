// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy. Store adapters wrap their transport failures into one of
// these so the orchestrator can classify without knowing the wire details.
var (
	// ErrConfiguration means no remote client is configured; not retryable
	// until external setup happens.
	ErrConfiguration = errors.New("remote store is not configured")

	// ErrSchema means an expected remote table or column is absent; not
	// retryable until a migration runs.
	ErrSchema = errors.New("remote schema is missing or incomplete")

	// ErrNetwork is a transient transport failure; safe to retry.
	ErrNetwork = errors.New("network failure")

	// ErrSyncInProgress is returned when a sync or refresh is requested
	// while another one is in flight.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// ConstraintError reports a remote write rejection (typically a foreign key
// violation that escaped the orphan pruning pass), with the offending table
// attached for diagnostics.
type ConstraintError struct {
	Table Table
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation on %s: %v", e.Table, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// schemaMismatchSubstrings are matched against otherwise-unclassified error
// text: remote stores phrase missing-schema failures in terms of unknown
// columns or relations.
var schemaMismatchSubstrings = []string{
	"column",
	"relation",
	"does not exist",
	"schema cache",
}

// looksLikeSchemaMismatch reports whether an unclassified error reads like a
// remote schema problem.
func looksLikeSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range schemaMismatchSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
