// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func docQueueApp(docs ...CaseDocument) *AppData {
	return &AppData{
		Clients:   []Client{{ID: "c1", UpdatedAt: ts(1)}},
		Documents: docs,
	}
}

func TestDocumentQueueUploadsPendingFiles(t *testing.T) {
	local := newFakeLocal(docQueueApp(CaseDocument{
		ID: "d1", CaseID: "k1", StoragePath: "c1/d1.pdf",
		LocalState: DocPendingUpload, UpdatedAt: ts(1),
	}), nil)
	local.files["d1"] = []byte("pdf bytes")
	blobs := newFakeBlobs()
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), blobs, local)

	require.NoError(t, engine.RunDocumentQueue(context.Background()))
	require.Equal(t, []byte("pdf bytes"), blobs.blobs["c1/d1.pdf"])
	require.Equal(t, DocSynced, local.savedApp.Documents[0].LocalState)
}

func TestDocumentQueueDownloadsPendingFiles(t *testing.T) {
	local := newFakeLocal(docQueueApp(CaseDocument{
		ID: "d1", CaseID: "k1", StoragePath: "c1/d1.pdf",
		LocalState: DocPendingDownload, UpdatedAt: ts(1),
	}), nil)
	blobs := newFakeBlobs()
	blobs.blobs["c1/d1.pdf"] = []byte("pdf bytes")
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), blobs, local)

	require.NoError(t, engine.RunDocumentQueue(context.Background()))
	require.Equal(t, []byte("pdf bytes"), local.files["d1"])
	require.Equal(t, DocSynced, local.savedApp.Documents[0].LocalState)
}

func TestDocumentQueueRecordsFailureAndContinues(t *testing.T) {
	local := newFakeLocal(docQueueApp(
		CaseDocument{ID: "d1", StoragePath: "c1/d1.pdf", LocalState: DocPendingDownload, UpdatedAt: ts(1)},
		CaseDocument{ID: "d2", StoragePath: "c1/d2.pdf", LocalState: DocPendingUpload, UpdatedAt: ts(1)},
	), nil)
	local.files["d2"] = []byte("two")
	blobs := newFakeBlobs() // d1's blob does not exist, so its download fails
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), blobs, local)

	require.NoError(t, engine.RunDocumentQueue(context.Background()))
	require.Equal(t, DocError, local.savedApp.Documents[0].LocalState)
	require.Equal(t, DocSynced, local.savedApp.Documents[1].LocalState)
}

func TestDocumentQueueErrorReentry(t *testing.T) {
	// Two errored documents: one with resident bytes retries as an upload,
	// one without retries as a download.
	local := newFakeLocal(docQueueApp(
		CaseDocument{ID: "d1", StoragePath: "c1/d1.pdf", LocalState: DocError, UpdatedAt: ts(1)},
		CaseDocument{ID: "d2", StoragePath: "c1/d2.pdf", LocalState: DocError, UpdatedAt: ts(1)},
	), nil)
	local.files["d1"] = []byte("resident")
	blobs := newFakeBlobs()
	blobs.blobs["c1/d2.pdf"] = []byte("remote")
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), blobs, local)

	require.NoError(t, engine.RunDocumentQueue(context.Background()))
	require.Equal(t, DocSynced, local.savedApp.Documents[0].LocalState)
	require.Equal(t, []byte("resident"), blobs.blobs["c1/d1.pdf"])
	require.Equal(t, DocSynced, local.savedApp.Documents[1].LocalState)
	require.Equal(t, []byte("remote"), local.files["d2"])
}

func TestDocumentQueueSkipsLocalOnly(t *testing.T) {
	local := newFakeLocal(docQueueApp(CaseDocument{
		ID: "d1", StoragePath: "c1/d1.pdf", LocalState: DocPendingUpload,
		IsLocalOnly: true, UpdatedAt: ts(1),
	}), nil)
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), newFakeBlobs(), local)

	require.NoError(t, engine.RunDocumentQueue(context.Background()))
	require.Nil(t, local.savedApp, "untouched collection is not rewritten")
}

func TestDocumentQueueWithoutBlobStore(t *testing.T) {
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), nil, newFakeLocal(nil, nil))
	require.ErrorIs(t, engine.RunDocumentQueue(context.Background()), ErrConfiguration)
}

func TestDeleteDocumentSuppressesAndRemovesEverywhere(t *testing.T) {
	local := newFakeLocal(docQueueApp(CaseDocument{
		ID: "d1", StoragePath: "c1/d1.pdf", LocalState: DocSynced, UpdatedAt: ts(1),
	}), nil)
	local.files["d1"] = []byte("pdf")
	blobs := newFakeBlobs()
	blobs.blobs["c1/d1.pdf"] = []byte("pdf")
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), blobs, local)

	require.NoError(t, engine.DeleteDocument(context.Background(), "d1"))
	require.Empty(t, local.savedApp.Documents)
	require.NotContains(t, local.files, "d1")
	require.NotContains(t, blobs.blobs, "c1/d1.pdf")
	require.True(t, local.savedDel.SuppressedDocuments.Has("d1"))
	require.False(t, local.savedDel.HasRowIntents(),
		"explicit document deletes never enter the tombstone path")
}

func TestDeleteDocumentLocalOnlyKeepsRemoteBlob(t *testing.T) {
	local := newFakeLocal(docQueueApp(CaseDocument{
		ID: "d1", StoragePath: "c1/d1.pdf", LocalState: DocSynced,
		IsLocalOnly: true, UpdatedAt: ts(1),
	}), nil)
	blobs := newFakeBlobs()
	blobs.blobs["c1/d1.pdf"] = []byte("someone else's upload")
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), blobs, local)

	require.NoError(t, engine.DeleteDocument(context.Background(), "d1"))
	require.Contains(t, blobs.blobs, "c1/d1.pdf")
}

func TestDeleteDocumentToleratesBlobFailure(t *testing.T) {
	local := newFakeLocal(docQueueApp(CaseDocument{
		ID: "d1", StoragePath: "c1/d1.pdf", LocalState: DocSynced, UpdatedAt: ts(1),
	}), nil)
	blobs := newFakeBlobs()
	blobs.removeErr = errors.New("storage down")
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), blobs, local)

	require.NoError(t, engine.DeleteDocument(context.Background(), "d1"))
	require.True(t, local.savedDel.SuppressedDocuments.Has("d1"))
}

func TestDeleteDocumentUnknownID(t *testing.T) {
	local := newFakeLocal(docQueueApp(), nil)
	engine := newTestEngine(t, newFakeRemote(&Snapshot{}), newFakeBlobs(), local)
	require.Error(t, engine.DeleteDocument(context.Background(), "nope"))
}
