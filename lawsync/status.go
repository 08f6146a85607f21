// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

// Status is the orchestrator's externally visible state.
type Status string

const (
	// StatusUninitialized covers both "still loading" before the first sync
	// and "remote schema missing" after a failed schema check.
	StatusUninitialized Status = "uninitialized"
	StatusSyncing       Status = "syncing"
	StatusSynced        Status = "synced"
	StatusError         Status = "error"
	StatusUnconfigured  Status = "unconfigured"
)

// User-facing status messages. Kept in one place so a localization layer
// can swap them out.
const (
	msgUnconfigured   = "remote store is not configured; set up a connection first"
	msgSchemaMissing  = "remote database schema is missing; run the initialization script"
	msgNetworkFailure = "could not reach the remote store; changes are kept locally"
	msgNotReady       = "sync is unavailable right now; check connectivity and sign-in"
	msgSynced         = "all changes are synced"
)
