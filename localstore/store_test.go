// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aboodalmontad/lawsync/lawsync"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppDataRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	loaded, err := store.LoadAppData(ctx, "owner-1")
	require.NoError(t, err)
	require.Nil(t, loaded, "fresh store has no graph yet")

	app := &lawsync.AppData{
		Clients: []lawsync.Client{{
			ID: "c1", Name: "Aldridge",
			UpdatedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Cases: []lawsync.Case{{
				ID: "k1", Subject: "contract dispute",
				UpdatedAt: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			}},
		}},
		Assistants: []lawsync.Assistant{{Name: "Nadia"}},
	}
	require.NoError(t, store.SaveAppData(ctx, "owner-1", app))

	loaded, err = store.LoadAppData(ctx, "owner-1")
	require.NoError(t, err)
	require.Equal(t, app, loaded)

	// Overwrite replaces, not merges.
	app.Clients = app.Clients[:0]
	require.NoError(t, store.SaveAppData(ctx, "owner-1", app))
	loaded, err = store.LoadAppData(ctx, "owner-1")
	require.NoError(t, err)
	require.Empty(t, loaded.Clients)
	require.Len(t, loaded.Assistants, 1)
}

func TestAppDataIsOwnerScoped(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveAppData(ctx, "owner-1", &lawsync.AppData{
		AdminTasks: []lawsync.AdminTask{{ID: "t1", Title: "file brief"}},
	}))

	other, err := store.LoadAppData(ctx, "owner-2")
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestDeletionSetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	set, err := store.LoadDeletionSet(ctx, "owner-1")
	require.NoError(t, err)
	require.NotNil(t, set, "a missing row yields an empty set, never nil")
	require.True(t, set.IsEmpty())

	set.Mark(lawsync.TableClients, "c1")
	set.Mark(lawsync.TableCases, "k1")
	set.DeletedDocumentPaths = []string{"c1/d1.pdf"}
	set.SuppressedDocuments.Add("d9")
	require.NoError(t, store.SaveDeletionSet(ctx, "owner-1", set))

	loaded, err := store.LoadDeletionSet(ctx, "owner-1")
	require.NoError(t, err)
	require.True(t, loaded.Clients.Has("c1"))
	require.True(t, loaded.Cases.Has("k1"))
	require.Equal(t, []string{"c1/d1.pdf"}, loaded.DeletedDocumentPaths)
	require.True(t, loaded.SuppressedDocuments.Has("d9"))
}

func TestDocumentFileRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.LoadDocumentFile(ctx, "d1")
	require.Error(t, err)

	require.NoError(t, store.SaveDocumentFile(ctx, "d1", []byte("pdf bytes")))
	data, err := store.LoadDocumentFile(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, []byte("pdf bytes"), data)

	require.NoError(t, store.SaveDocumentFile(ctx, "d1", []byte("v2")))
	data, err = store.LoadDocumentFile(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), data)

	require.NoError(t, store.DeleteDocumentFile(ctx, "d1"))
	_, err = store.LoadDocumentFile(ctx, "d1")
	require.Error(t, err)

	require.NoError(t, store.DeleteDocumentFile(ctx, "d1"), "deleting a missing file is not an error")
}
