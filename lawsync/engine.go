// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config holds engine configuration.
type Config struct {
	// OwnerID is the effective owner: the account namespace all local data
	// is stored under, which for an assistant's device is the owning
	// account, not the signed-in user.
	OwnerID string

	// UserID is the signed-in user, recorded on tombstones.
	UserID string

	// DeletionLogWindow bounds how far back tombstones are fetched.
	// Zero means DeletionLogWindow (30 days).
	Window time.Duration

	// ReadyCheck, when set, gates sync start; it should fail while the
	// device is offline or authentication is still loading.
	ReadyCheck func(ctx context.Context) error

	// OnStatus, when set, receives every status transition with a
	// user-facing message.
	OnStatus func(status Status, message string)
}

// Engine sequences a full sync round: schema check, concurrent remote
// fetch, local flatten, deletion-log filter, per-table merge, orphan prune,
// remote deletes, remote pushes, reconstruct, persist. Exactly one sync or
// refresh may be in flight per engine; concurrent starts are refused with
// ErrSyncInProgress.
//
// A failed round leaves local data exactly as it was: the local snapshot
// and intent set are written only after every remote step succeeded.
// Re-running after a partial failure is safe because remote deletes and
// upserts are idempotent.
type Engine struct {
	remote RemoteStore
	blobs  BlobStore
	local  LocalStore
	cfg    Config
	logger *slog.Logger

	// inFlight is the single-flight guard: TryLock instead of Lock because
	// a second sync start must be refused, not queued.
	inFlight sync.Mutex

	statusMu sync.Mutex
	status   Status

	now func() time.Time // test hook
}

// NewEngine creates an engine. remote may be nil: every sync attempt then
// reports StatusUnconfigured until a configured engine replaces it. local
// must be set; logger nil means slog.Default().
func NewEngine(remote RemoteStore, blobs BlobStore, local LocalStore, cfg Config, logger *slog.Logger) (*Engine, error) {
	if local == nil {
		return nil, fmt.Errorf("local store must be provided")
	}
	if cfg.OwnerID == "" {
		return nil, fmt.Errorf("config.OwnerID must be provided")
	}
	if cfg.Window == 0 {
		cfg.Window = DeletionLogWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		remote: remote,
		blobs:  blobs,
		local:  local,
		cfg:    cfg,
		logger: logger,
		status: StatusUninitialized,
		now:    time.Now,
	}, nil
}

// Status returns the current orchestrator status.
func (e *Engine) Status() Status {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	return e.status
}

func (e *Engine) setStatus(s Status, message string) {
	e.statusMu.Lock()
	e.status = s
	e.statusMu.Unlock()
	if e.cfg.OnStatus != nil {
		e.cfg.OnStatus(s, message)
	}
}

// Sync runs one full reconciliation round. It refuses to start while
// another sync or refresh is in flight.
func (e *Engine) Sync(ctx context.Context) error {
	if !e.inFlight.TryLock() {
		return ErrSyncInProgress
	}
	defer e.inFlight.Unlock()

	e.setStatus(StatusSyncing, "")

	if e.cfg.ReadyCheck != nil {
		if err := e.cfg.ReadyCheck(ctx); err != nil {
			e.setStatus(StatusError, msgNotReady)
			return fmt.Errorf("sync precondition: %w", err)
		}
	}
	if e.remote == nil {
		e.setStatus(StatusUnconfigured, msgUnconfigured)
		return ErrConfiguration
	}

	if err := e.remote.CheckSchema(ctx); err != nil {
		return e.fail(fmt.Errorf("schema check: %w", err))
	}

	app, del, err := e.loadLocal(ctx)
	if err != nil {
		return e.fail(err)
	}

	remoteSnap, tombstones, err := e.fetchRemote(ctx)
	if err != nil {
		return e.fail(err)
	}

	localSnap := ApplyDeletionLog(Flatten(app), tombstones)

	var plan *SyncPlan
	if localSnap.IsEffectivelyEmpty() && !remoteSnap.IsEmpty() && del.IsEmpty() {
		// Fresh-device bootstrap: adopt the remote snapshot wholesale, no
		// merge and no push. Document files still need fetching.
		e.logger.Info("local store empty, adopting remote snapshot",
			"clients", len(remoteSnap.Clients))
		plan = &SyncPlan{Merged: *remoteSnap}
		for i := range plan.Merged.Documents {
			plan.Merged.Documents[i].LocalState = DocPendingDownload
			plan.Merged.Documents[i].IsLocalOnly = false
		}
	} else {
		plan = MergeSnapshots(localSnap, remoteSnap, del)
		plan.PruneOrphans(remoteSnap)
	}

	clearedPaths, err := e.pushDeletions(ctx, del)
	if err != nil {
		return e.fail(err)
	}

	if err := e.pushUpserts(ctx, plan); err != nil {
		return e.fail(err)
	}

	// All remote steps succeeded; only now is local state touched.
	del.ClearRowIntents()
	del.DeletedDocumentPaths = subtractPaths(del.DeletedDocumentPaths, clearedPaths)
	if err := e.local.SaveDeletionSet(ctx, e.cfg.OwnerID, del); err != nil {
		return e.fail(fmt.Errorf("persist deletion set: %w", err))
	}
	if err := e.local.SaveAppData(ctx, e.cfg.OwnerID, Reconstruct(&plan.Merged)); err != nil {
		return e.fail(fmt.Errorf("persist merged data: %w", err))
	}

	e.setStatus(StatusSynced, msgSynced)
	return nil
}

// Refresh runs the lighter pull-only path: fetch, deletion-filter, simple
// timestamp merge, persist. No deletes and no pushes are issued. It shares
// the in-flight guard with Sync.
func (e *Engine) Refresh(ctx context.Context) error {
	if !e.inFlight.TryLock() {
		return ErrSyncInProgress
	}
	defer e.inFlight.Unlock()

	if e.remote == nil {
		e.setStatus(StatusUnconfigured, msgUnconfigured)
		return ErrConfiguration
	}
	e.setStatus(StatusSyncing, "")

	app, del, err := e.loadLocal(ctx)
	if err != nil {
		return e.fail(err)
	}
	remoteSnap, tombstones, err := e.fetchRemote(ctx)
	if err != nil {
		return e.fail(err)
	}

	localSnap := ApplyDeletionLog(Flatten(app), tombstones)
	merged := RefreshMerge(localSnap, remoteSnap, del)

	if err := e.local.SaveAppData(ctx, e.cfg.OwnerID, Reconstruct(merged)); err != nil {
		return e.fail(fmt.Errorf("persist refreshed data: %w", err))
	}

	e.setStatus(StatusSynced, msgSynced)
	return nil
}

func (e *Engine) loadLocal(ctx context.Context) (*AppData, *DeletionSet, error) {
	app, err := e.local.LoadAppData(ctx, e.cfg.OwnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("load local data: %w", err)
	}
	del, err := e.local.LoadDeletionSet(ctx, e.cfg.OwnerID)
	if err != nil {
		return nil, nil, fmt.Errorf("load deletion intents: %w", err)
	}
	if del == nil {
		del = &DeletionSet{}
	}
	return app, del, nil
}

// fetchRemote reads the full snapshot and the recent deletion log
// concurrently.
func (e *Engine) fetchRemote(ctx context.Context) (*Snapshot, []Tombstone, error) {
	var (
		snap       *Snapshot
		tombstones []Tombstone
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = e.remote.FetchSnapshot(gctx)
		if err != nil {
			return fmt.Errorf("fetch remote snapshot: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tombstones, err = e.remote.FetchDeletions(gctx, e.now().Add(-e.cfg.Window))
		if err != nil {
			return fmt.Errorf("fetch deletion log: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return snap, tombstones, nil
}

// pushDeletions issues pending remote blob removals and row deletes.
// Row deletes run children before parents so the remote side never sees a
// dangling foreign key; each deleted batch is logged to the tombstone table
// (except profiles, which are never tombstoned). A tombstone write failure
// is tolerated; a row delete failure aborts the round. Returns the blob
// paths confirmed removed.
func (e *Engine) pushDeletions(ctx context.Context, del *DeletionSet) ([]string, error) {
	var cleared []string
	if len(del.DeletedDocumentPaths) > 0 && e.blobs != nil {
		removed, err := e.blobs.Remove(ctx, del.DeletedDocumentPaths)
		if err != nil {
			// Paths stay queued and are retried next round.
			e.logger.Warn("document blob removal failed", "error", err,
				"paths", len(del.DeletedDocumentPaths))
		} else {
			cleared = removed
		}
	}

	if !del.HasRowIntents() {
		return cleared, nil
	}

	deletedAt := e.now().UTC()
	for _, table := range DeleteOrder {
		keys := sortedKeys(del.ForTable(table))
		if len(keys) == 0 {
			continue
		}
		if err := e.remote.DeleteRecords(ctx, table, keys); err != nil {
			return cleared, fmt.Errorf("delete %s: %w", table, err)
		}
		if table == TableProfiles {
			continue
		}
		entries := make([]Tombstone, 0, len(keys))
		for _, key := range keys {
			entries = append(entries, Tombstone{
				TableName: table,
				RecordID:  key,
				UserID:    e.cfg.UserID,
				DeletedAt: deletedAt,
			})
		}
		if err := e.remote.LogDeletions(ctx, entries); err != nil {
			// Worst case a tombstone is missing and another device
			// resurrects the row; the delete itself succeeded.
			e.logger.Warn("tombstone log write failed", "table", table, "error", err)
		}
	}
	return cleared, nil
}

// pushUpserts pushes queued records parents before children. The
// hierarchical tables go sequentially; the trailing independent tables are
// pushed concurrently. Server echoes are folded back into the merged set so
// server-computed fields win locally.
func (e *Engine) pushUpserts(ctx context.Context, plan *SyncPlan) error {
	for _, table := range pushOrder[:hierarchicalPushTables] {
		if err := e.pushTable(ctx, plan, table); err != nil {
			return err
		}
	}

	independent := pushOrder[hierarchicalPushTables:]
	echoes := make([][]Record, len(independent))
	g, gctx := errgroup.WithContext(ctx)
	for i, table := range independent {
		g.Go(func() error {
			records := plan.Upserts.Records(table)
			if len(records) == 0 {
				return nil
			}
			echo, err := e.remote.Upsert(gctx, table, records)
			if err != nil {
				return fmt.Errorf("push %s: %w", table, err)
			}
			echoes[i] = echo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, table := range independent {
		for _, rec := range echoes[i] {
			plan.Merged.ReplaceRecord(table, rec)
		}
	}
	return nil
}

func (e *Engine) pushTable(ctx context.Context, plan *SyncPlan, table Table) error {
	records := plan.Upserts.Records(table)
	if len(records) == 0 {
		return nil
	}
	echo, err := e.remote.Upsert(ctx, table, records)
	if err != nil {
		return fmt.Errorf("push %s: %w", table, err)
	}
	e.logger.Debug("pushed upserts", "table", table, "count", len(records))
	for _, rec := range echo {
		plan.Merged.ReplaceRecord(table, rec)
	}
	return nil
}

// fail classifies an error into a terminal status and reports it. Schema
// mismatches park the engine in StatusUninitialized so the caller knows a
// migration is needed rather than a retry.
func (e *Engine) fail(err error) error {
	switch {
	case errors.Is(err, ErrConfiguration):
		e.setStatus(StatusUnconfigured, msgUnconfigured)
	case errors.Is(err, ErrSchema) || looksLikeSchemaMismatch(err):
		e.setStatus(StatusUninitialized, msgSchemaMissing)
	case errors.Is(err, ErrNetwork):
		e.setStatus(StatusError, msgNetworkFailure)
	default:
		e.setStatus(StatusError, err.Error())
	}
	e.logger.Error("sync failed", "error", err)
	return err
}

func sortedKeys(set IDSet) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func subtractPaths(paths, removed []string) []string {
	if len(removed) == 0 {
		return paths
	}
	gone := make(map[string]struct{}, len(removed))
	for _, p := range removed {
		gone[p] = struct{}{}
	}
	var out []string
	for _, p := range paths {
		if _, ok := gone[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
