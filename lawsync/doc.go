// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

// Package lawsync implements the reconciliation engine for a local-first
// legal practice data layer: clients, cases, stages, sessions, invoices and
// a handful of independent tables are edited offline in a local store and
// merged opportunistically with a shared remote store.
//
// The engine flattens the nested domain graph into independent per-table
// record sets, applies the remote tombstone log (deletions propagated from
// other devices), merges local and remote snapshots under last-write-wins
// semantics, prunes orphaned children, and pushes the result back. It is not
// a CRDT: the sole conflict signal is each record's updated_at timestamp,
// and two devices writing the same record inside the clock-skew buffer are
// unresolved. Tighter resolution (vector clocks) is a possible future
// improvement, not something this engine attempts.
package lawsync
