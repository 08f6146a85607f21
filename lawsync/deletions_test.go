// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTombstonePrecedence(t *testing.T) {
	deletedAt := ts(2)
	tombs := []Tombstone{{TableName: TableAdminTasks, RecordID: "t1", DeletedAt: deletedAt}}

	cases := []struct {
		name      string
		updatedAt time.Time
		survives  bool
	}{
		{"edited before deletion", ts(1), false},
		{"edited exactly at deletion", deletedAt, false},
		{"edited inside the skew buffer", deletedAt.Add(SkewBuffer), false},
		{"edited just past the skew buffer", deletedAt.Add(SkewBuffer + time.Millisecond), true},
		{"edited well after deletion", ts(3), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", UpdatedAt: tc.updatedAt}}}
			out := ApplyDeletionLog(snap, tombs)
			if tc.survives {
				require.Len(t, out.AdminTasks, 1)
			} else {
				require.Empty(t, out.AdminTasks)
			}
		})
	}
}

func TestClientTombstoneCascadesToCase(t *testing.T) {
	// Local: Client c1 with one Case k1; remote tombstone for c1 dated
	// after the client's last edit. Both must be purged.
	snap := &Snapshot{
		Clients: []Client{{ID: "c1", UpdatedAt: ts(1)}},
		Cases:   []Case{{ID: "k1", ClientID: "c1", UpdatedAt: ts(1)}},
	}
	out := ApplyDeletionLog(snap, []Tombstone{
		{TableName: TableClients, RecordID: "c1", DeletedAt: ts(2)},
	})
	require.Empty(t, out.Clients)
	require.Empty(t, out.Cases)
}

func TestCascadeRunsFullHierarchy(t *testing.T) {
	snap := Flatten(fixtureAppData())
	out := ApplyDeletionLog(snap, []Tombstone{
		{TableName: TableClients, RecordID: "c1", DeletedAt: ts(5)},
	})

	require.Len(t, out.Clients, 1)
	require.Equal(t, "c2", out.Clients[0].ID)
	require.Empty(t, out.Cases)
	require.Empty(t, out.Stages)
	require.Empty(t, out.Sessions)
	require.Empty(t, out.Documents, "documents cascade with their case regardless of residency")
	// The accounting entry references c1 and is cascaded with it.
	require.Empty(t, out.AccountingEntries)
	// The invoice names c1, so it and its items are cascaded too.
	require.Empty(t, out.Invoices)
	require.Empty(t, out.InvoiceItems)
}

func TestCaseTombstoneCascadeIsIndependentOfOwnTombstones(t *testing.T) {
	// The stage has no tombstone of its own but its case is gone.
	snap := &Snapshot{
		Clients: []Client{{ID: "c1", UpdatedAt: ts(1)}},
		Cases:   []Case{{ID: "k1", ClientID: "c1", UpdatedAt: ts(1)}},
		Stages:  []Stage{{ID: "st1", CaseID: "k1", UpdatedAt: ts(1)}},
	}
	out := ApplyDeletionLog(snap, []Tombstone{
		{TableName: TableCases, RecordID: "k1", DeletedAt: ts(2)},
	})
	require.Len(t, out.Clients, 1)
	require.Empty(t, out.Stages)
}

func TestAccountingEntryWithoutClientRefSurvivesCascade(t *testing.T) {
	snap := &Snapshot{
		Clients:           []Client{{ID: "c1", UpdatedAt: ts(1)}},
		AccountingEntries: []AccountingEntry{{ID: "ae1", UpdatedAt: ts(1)}}, // no client ref
	}
	out := ApplyDeletionLog(snap, []Tombstone{
		{TableName: TableClients, RecordID: "c1", DeletedAt: ts(2)},
	})
	require.Empty(t, out.Clients)
	require.Len(t, out.AccountingEntries, 1)
}

func TestTombstonedResidentDocumentBecomesLocalOnly(t *testing.T) {
	snap := &Snapshot{
		Clients: []Client{{ID: "c1", UpdatedAt: ts(1)}},
		Cases:   []Case{{ID: "k1", ClientID: "c1", UpdatedAt: ts(1)}},
		Documents: []CaseDocument{
			{ID: "d1", CaseID: "k1", LocalState: DocSynced, UpdatedAt: ts(1)},
			{ID: "d2", CaseID: "k1", LocalState: DocPendingDownload, UpdatedAt: ts(1)},
		},
	}
	out := ApplyDeletionLog(snap, []Tombstone{
		{TableName: TableCaseDocuments, RecordID: "d1", DeletedAt: ts(2)},
		{TableName: TableCaseDocuments, RecordID: "d2", DeletedAt: ts(2)},
	})

	// d1's file is resident: kept as a private local artifact.
	require.Len(t, out.Documents, 1)
	require.Equal(t, "d1", out.Documents[0].ID)
	require.True(t, out.Documents[0].IsLocalOnly)
	// d2 was never downloaded; no remote copy remains to fetch.
}

func TestProfilesAreNeverFiltered(t *testing.T) {
	snap := &Snapshot{Profiles: []Profile{{ID: "p1", UpdatedAt: ts(1)}}}
	out := ApplyDeletionLog(snap, []Tombstone{
		{TableName: TableProfiles, RecordID: "p1", DeletedAt: ts(2)},
	})
	require.Len(t, out.Profiles, 1)
}

func TestDuplicateTombstonesKeepNewest(t *testing.T) {
	// Record edited after the older tombstone but before the newer one.
	snap := &Snapshot{AdminTasks: []AdminTask{{ID: "t1", UpdatedAt: ts(3)}}}
	out := ApplyDeletionLog(snap, []Tombstone{
		{TableName: TableAdminTasks, RecordID: "t1", DeletedAt: ts(1)},
		{TableName: TableAdminTasks, RecordID: "t1", DeletedAt: ts(5)},
	})
	require.Empty(t, out.AdminTasks)
}

func TestIDSetJSONRoundTrip(t *testing.T) {
	set := IDSet{}
	set.Add("b")
	set.Add("a")

	raw, err := json.Marshal(set)
	require.NoError(t, err)
	require.JSONEq(t, `["a","b"]`, string(raw), "sets marshal as sorted arrays")

	var back IDSet
	require.NoError(t, json.Unmarshal(raw, &back))
	require.True(t, back.Has("a"))
	require.True(t, back.Has("b"))
	require.False(t, back.Has("c"))
}

func TestDeletionSetTableTranslation(t *testing.T) {
	// Table keys are snake_case, intent-set keys camelCase; the mapping
	// must be total and consistent.
	for _, table := range AllTables {
		require.NotEmpty(t, DeletionSetKey(table), "table %s has no intent-set key", table)
	}
	require.Equal(t, "adminTasks", DeletionSetKey(TableAdminTasks))
	require.Equal(t, "documents", DeletionSetKey(TableCaseDocuments))
	require.Equal(t, "siteFinances", DeletionSetKey(TableSiteFinances))

	del := &DeletionSet{}
	del.Mark(TableCaseDocuments, "d1")
	require.True(t, del.Documents.Has("d1"))
	require.True(t, del.ForTable(TableCaseDocuments).Has("d1"))

	raw, err := json.Marshal(del)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"documents"`)
}
