// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"context"
	"fmt"
)

// Document residency lifecycle:
//
//	pending_upload  -> synced                 (queue pass uploads the file)
//	pending_download -> downloading -> synced (queue pass fetches the file)
//	                                -> error  (retried on the next pass)
//	any state -> isLocalOnly                  (tombstone-with-residency or
//	                                           vanished-remote, see merge)
//
// An explicit user delete bypasses the tombstone log entirely: the file is
// removed locally and from remote storage, and the id goes into the
// locally-suppressed set so a later pull does not resurrect it on this
// device. Other devices keep their copy.

// DeleteDocument performs the explicit user deletion of a document. It is
// serialized against sync rounds.
func (e *Engine) DeleteDocument(ctx context.Context, docID string) error {
	e.inFlight.Lock()
	defer e.inFlight.Unlock()

	app, del, err := e.loadLocal(ctx)
	if err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("no local data for owner %s", e.cfg.OwnerID)
	}

	var doc *CaseDocument
	kept := app.Documents[:0:0]
	for i := range app.Documents {
		if app.Documents[i].ID == docID {
			doc = &app.Documents[i]
			continue
		}
		kept = append(kept, app.Documents[i])
	}
	if doc == nil {
		return fmt.Errorf("document %s not found", docID)
	}
	app.Documents = kept

	if err := e.local.DeleteDocumentFile(ctx, docID); err != nil {
		return fmt.Errorf("delete local document file: %w", err)
	}
	if e.blobs != nil && doc.StoragePath != "" && !doc.IsLocalOnly {
		if _, err := e.blobs.Remove(ctx, []string{doc.StoragePath}); err != nil {
			// The blob outliving the record is harmless; the remote expiry
			// job collects it eventually.
			e.logger.Warn("remote blob removal failed", "path", doc.StoragePath, "error", err)
		}
	}

	del.SuppressedDocuments.Add(docID)
	if err := e.local.SaveDeletionSet(ctx, e.cfg.OwnerID, del); err != nil {
		return fmt.Errorf("persist deletion intents: %w", err)
	}
	if err := e.local.SaveAppData(ctx, e.cfg.OwnerID, app); err != nil {
		return fmt.Errorf("persist local data: %w", err)
	}
	return nil
}

// RunDocumentQueue performs one polling pass over the document collection:
// uploads pending_upload files, downloads pending_download ones, and
// re-enters errored documents into the appropriate pending state. It is
// serialized against sync rounds. Per-document failures are recorded on the
// document and do not abort the pass.
func (e *Engine) RunDocumentQueue(ctx context.Context) error {
	e.inFlight.Lock()
	defer e.inFlight.Unlock()

	if e.blobs == nil {
		return ErrConfiguration
	}
	app, _, err := e.loadLocal(ctx)
	if err != nil {
		return err
	}
	if app == nil {
		return nil
	}

	changed := false
	for i := range app.Documents {
		doc := &app.Documents[i]
		if doc.IsLocalOnly {
			continue
		}

		if doc.LocalState == DocError {
			// Retry re-entry: direction depends on whether the bytes are
			// already resident.
			if _, err := e.local.LoadDocumentFile(ctx, doc.ID); err == nil {
				doc.LocalState = DocPendingUpload
			} else {
				doc.LocalState = DocPendingDownload
			}
			changed = true
		}

		switch doc.LocalState {
		case DocPendingUpload:
			if e.uploadDocument(ctx, doc) {
				changed = true
			}
		case DocPendingDownload:
			doc.LocalState = DocDownloading
			if e.downloadDocument(ctx, doc) {
				changed = true
			}
		}
	}

	if !changed {
		return nil
	}
	return e.local.SaveAppData(ctx, e.cfg.OwnerID, app)
}

func (e *Engine) uploadDocument(ctx context.Context, doc *CaseDocument) bool {
	data, err := e.local.LoadDocumentFile(ctx, doc.ID)
	if err != nil {
		e.logger.Warn("document upload: local file missing", "id", doc.ID, "error", err)
		doc.LocalState = DocError
		return true
	}
	if err := e.blobs.Upload(ctx, doc.StoragePath, data, true); err != nil {
		e.logger.Warn("document upload failed", "id", doc.ID, "error", err)
		doc.LocalState = DocError
		return true
	}
	doc.LocalState = DocSynced
	return true
}

func (e *Engine) downloadDocument(ctx context.Context, doc *CaseDocument) bool {
	data, err := e.blobs.Download(ctx, doc.StoragePath)
	if err != nil {
		e.logger.Warn("document download failed", "id", doc.ID, "error", err)
		doc.LocalState = DocError
		return true
	}
	if err := e.local.SaveDocumentFile(ctx, doc.ID, data); err != nil {
		e.logger.Warn("document download: local save failed", "id", doc.ID, "error", err)
		doc.LocalState = DocError
		return true
	}
	doc.LocalState = DocSynced
	return true
}
