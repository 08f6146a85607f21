// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeLastWriteWins(t *testing.T) {
	local := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", Title: "local", UpdatedAt: ts(3)}}}
	remote := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", Title: "remote", UpdatedAt: ts(2)}}}

	plan := MergeSnapshots(local, remote, &DeletionSet{})
	require.Len(t, plan.Upserts.AdminTasks, 1)
	require.Equal(t, "local", plan.Merged.AdminTasks[0].Title)

	// Flip the timestamps: remote wins and nothing is pushed.
	local.AdminTasks[0].UpdatedAt = ts(1)
	plan = MergeSnapshots(local, remote, &DeletionSet{})
	require.Empty(t, plan.Upserts.AdminTasks)
	require.Equal(t, "remote", plan.Merged.AdminTasks[0].Title)
}

func TestMergeRemoteWinsTies(t *testing.T) {
	local := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", Title: "local", UpdatedAt: ts(2)}}}
	remote := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", Title: "remote", UpdatedAt: ts(2)}}}

	plan := MergeSnapshots(local, remote, &DeletionSet{})
	require.Empty(t, plan.Upserts.AdminTasks)
	require.Equal(t, "remote", plan.Merged.AdminTasks[0].Title)
}

func TestMergeMissingTimestampIsEpoch(t *testing.T) {
	local := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", Title: "local", UpdatedAt: ts(1)}}}
	remote := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", Title: "remote"}}} // zero time

	plan := MergeSnapshots(local, remote, &DeletionSet{})
	require.Len(t, plan.Upserts.AdminTasks, 1)
	require.Equal(t, "local", plan.Merged.AdminTasks[0].Title)
}

func TestMergeLocalOnlyRecordIsPushed(t *testing.T) {
	local := &Snapshot{Clients: []Client{{ID: "c1", UpdatedAt: ts(1)}}}
	plan := MergeSnapshots(local, &Snapshot{}, &DeletionSet{})
	require.Len(t, plan.Upserts.Clients, 1)
	require.Len(t, plan.Merged.Clients, 1)
}

func TestMergeNoResurrection(t *testing.T) {
	// The user deleted c1 locally; the deletion push has not happened yet.
	// Neither the remote copy nor any local leftovers may reappear.
	del := &DeletionSet{}
	del.Mark(TableClients, "c1")

	local := &Snapshot{Clients: []Client{{ID: "c1", UpdatedAt: ts(9)}}}
	remote := &Snapshot{Clients: []Client{{ID: "c1", UpdatedAt: ts(1)}}}

	plan := MergeSnapshots(local, remote, del)
	require.Empty(t, plan.Upserts.Clients)
	require.Empty(t, plan.Merged.Clients)
}

func TestMergePendingParentDeletionDropsChildren(t *testing.T) {
	del := &DeletionSet{}
	del.Mark(TableClients, "c1")

	local := &Snapshot{
		Cases:    []Case{{ID: "k1", ClientID: "c1", UpdatedAt: ts(1)}},
		Invoices: []Invoice{{ID: "i1", ClientID: "c1", UpdatedAt: ts(1)}},
	}
	remote := &Snapshot{
		Cases: []Case{{ID: "k2", ClientID: "c1", UpdatedAt: ts(1)}},
	}

	plan := MergeSnapshots(local, remote, del)
	require.Empty(t, plan.Upserts.Cases)
	require.Empty(t, plan.Merged.Cases, "remote children of a pending-deletion parent are not adopted")
	require.Empty(t, plan.Upserts.Invoices)
	require.Empty(t, plan.Merged.Invoices)
}

func TestMergeAdoptsRemoteOnlyRecords(t *testing.T) {
	remote := &Snapshot{Assistants: []Assistant{{Name: "Nadia", UpdatedAt: ts(1)}}}
	plan := MergeSnapshots(&Snapshot{}, remote, &DeletionSet{})
	require.Empty(t, plan.Upserts.Assistants)
	require.Len(t, plan.Merged.Assistants, 1)
}

func TestMergeIdempotence(t *testing.T) {
	del := &DeletionSet{}
	del.Mark(TableSessions, "s2")

	local := Flatten(fixtureAppData())
	remote := &Snapshot{
		Clients: []Client{
			{ID: "c1", Name: "Aldridge (remote)", UpdatedAt: ts(9)},
			{ID: "c3", Name: "Chen", UpdatedAt: ts(4)},
		},
		Cases: []Case{{ID: "k1", ClientID: "c1", UpdatedAt: ts(1)}},
	}

	first := MergeSnapshots(local, remote, del)
	second := MergeSnapshots(local, remote, del)
	require.Equal(t, first, second)
}

func TestMergeVanishedRemoteDocumentBecomesLocalOnly(t *testing.T) {
	// Scenario: d1 synced locally, absent from the remote fetch, no local
	// deletion intent. The remote expiry job removed the file; do not
	// re-upload it.
	local := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", LocalState: DocSynced, UpdatedAt: ts(1)},
	}}
	plan := MergeSnapshots(local, &Snapshot{}, &DeletionSet{})

	require.Empty(t, plan.Upserts.Documents)
	require.Len(t, plan.Merged.Documents, 1)
	require.True(t, plan.Merged.Documents[0].IsLocalOnly)
}

func TestMergeVanishedRemoteDocumentWithPendingDeleteIsDropped(t *testing.T) {
	del := &DeletionSet{}
	del.Mark(TableCaseDocuments, "d1")

	local := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", LocalState: DocSynced, UpdatedAt: ts(1)},
	}}
	plan := MergeSnapshots(local, &Snapshot{}, del)
	require.Empty(t, plan.Upserts.Documents)
	require.Empty(t, plan.Merged.Documents)
}

func TestMergePendingUploadDocumentIsPushed(t *testing.T) {
	local := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", LocalState: DocPendingUpload, UpdatedAt: ts(1)},
	}}
	plan := MergeSnapshots(local, &Snapshot{}, &DeletionSet{})
	require.Len(t, plan.Upserts.Documents, 1)
}

func TestMergeLocalOnlyDocumentIsNeverPushed(t *testing.T) {
	local := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", LocalState: DocSynced, IsLocalOnly: true, UpdatedAt: ts(9)},
	}}
	remote := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", UpdatedAt: ts(1)},
	}}
	plan := MergeSnapshots(local, remote, &DeletionSet{})
	require.Empty(t, plan.Upserts.Documents)
	require.Len(t, plan.Merged.Documents, 1)
	require.True(t, plan.Merged.Documents[0].IsLocalOnly)
}

func TestMergeRemoteOnlyDocumentNeedsDownload(t *testing.T) {
	remote := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", LocalState: DocSynced, UpdatedAt: ts(1)},
	}}
	plan := MergeSnapshots(&Snapshot{}, remote, &DeletionSet{})
	require.Len(t, plan.Merged.Documents, 1)
	require.Equal(t, DocPendingDownload, plan.Merged.Documents[0].LocalState,
		"the remote row's residency state is another device's, not ours")
}

func TestMergeSuppressedDocumentIsNotResurrected(t *testing.T) {
	del := &DeletionSet{}
	del.SuppressedDocuments.Add("d1")

	remote := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", UpdatedAt: ts(1)},
	}}
	plan := MergeSnapshots(&Snapshot{}, remote, del)
	require.Empty(t, plan.Merged.Documents)
}

func TestMergeRemoteWinsKeepsLocalResidency(t *testing.T) {
	local := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", Name: "old.pdf", LocalState: DocSynced, UpdatedAt: ts(1)},
	}}
	remote := &Snapshot{Documents: []CaseDocument{
		{ID: "d1", CaseID: "k1", Name: "renamed.pdf", LocalState: DocPendingDownload, UpdatedAt: ts(2)},
	}}
	plan := MergeSnapshots(local, remote, &DeletionSet{})
	require.Len(t, plan.Merged.Documents, 1)
	require.Equal(t, "renamed.pdf", plan.Merged.Documents[0].Name)
	require.Equal(t, DocSynced, plan.Merged.Documents[0].LocalState,
		"residency is per-device state and must not be overwritten by the remote row")
}

func TestRefreshMergeDoesNotProduceUpserts(t *testing.T) {
	local := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", Title: "local", UpdatedAt: ts(3)}}}
	remote := &Snapshot{
		AdminTasks: []AdminTask{{ID: "t1", Title: "remote", UpdatedAt: ts(1)}},
		Clients:    []Client{{ID: "c9", UpdatedAt: ts(1)}},
	}

	merged := RefreshMerge(local, remote, &DeletionSet{})
	require.Equal(t, "local", merged.AdminTasks[0].Title, "newer local edit survives a refresh")
	require.Len(t, merged.Clients, 1, "remote-only records are adopted")
}

func TestRefreshMergeHonorsPendingDeletions(t *testing.T) {
	del := &DeletionSet{}
	del.Mark(TableClients, "c1")

	remote := &Snapshot{Clients: []Client{{ID: "c1", UpdatedAt: ts(1)}}}
	merged := RefreshMerge(&Snapshot{}, remote, del)
	require.Empty(t, merged.Clients)
}
