// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"context"
	"fmt"
)

// DeleteRecord performs the user-initiated deletion of one record: it is
// removed from the local nested view immediately, together with its entire
// owned subtree, and every removed key is appended to the pending-deletion
// intent set. The records are durably gone only once a later sync writes
// the tombstones and issues the remote deletes.
//
// Documents removed by the cascade additionally queue their storage paths
// for remote blob removal. For an explicit single-document delete use
// DeleteDocument, which follows the suppression path instead.
func (e *Engine) DeleteRecord(ctx context.Context, table Table, key string) error {
	e.inFlight.Lock()
	defer e.inFlight.Unlock()

	app, del, err := e.loadLocal(ctx)
	if err != nil {
		return err
	}
	if app == nil {
		return fmt.Errorf("no local data for owner %s", e.cfg.OwnerID)
	}

	snap := Flatten(app)
	marked := cascadeKeys(snap, table, key)
	if len(marked[table]) == 0 {
		return fmt.Errorf("%s %s not found", table, key)
	}

	for t, keys := range marked {
		for k := range keys {
			del.Mark(t, k)
		}
	}
	for _, doc := range snap.Documents {
		if !marked[TableCaseDocuments].Has(doc.ID) {
			continue
		}
		if doc.StoragePath != "" && !doc.IsLocalOnly {
			del.DeletedDocumentPaths = append(del.DeletedDocumentPaths, doc.StoragePath)
		}
		if err := e.local.DeleteDocumentFile(ctx, doc.ID); err != nil {
			e.logger.Warn("local document file removal failed", "id", doc.ID, "error", err)
		}
	}

	pruned := dropMarked(snap, marked)

	if err := e.local.SaveDeletionSet(ctx, e.cfg.OwnerID, del); err != nil {
		return fmt.Errorf("persist deletion intents: %w", err)
	}
	if err := e.local.SaveAppData(ctx, e.cfg.OwnerID, Reconstruct(pruned)); err != nil {
		return fmt.Errorf("persist local data: %w", err)
	}
	return nil
}

// cascadeKeys computes the full owned subtree of one record as per-table key
// sets. Soft references (accounting entries naming a client) are not
// cascaded by user deletion; only the strict ownership hierarchy is.
func cascadeKeys(snap *Snapshot, table Table, key string) map[Table]IDSet {
	marked := make(map[Table]IDSet)
	mark := func(t Table, k string) {
		set := marked[t]
		set.Add(k)
		marked[t] = set
	}

	exists := false
	for _, rec := range snap.Records(table) {
		if rec.Key() == key {
			exists = true
			break
		}
	}
	if !exists {
		return marked
	}
	mark(table, key)

	if table == TableClients {
		for _, cs := range snap.Cases {
			if cs.ClientID == key {
				mark(TableCases, cs.ID)
			}
		}
		for _, inv := range snap.Invoices {
			if inv.ClientID == key {
				mark(TableInvoices, inv.ID)
			}
		}
	}
	if caseSet := marked[TableCases]; len(caseSet) > 0 {
		for _, stage := range snap.Stages {
			if caseSet.Has(stage.CaseID) {
				mark(TableStages, stage.ID)
			}
		}
		for _, doc := range snap.Documents {
			if caseSet.Has(doc.CaseID) {
				mark(TableCaseDocuments, doc.ID)
			}
		}
	}
	if stageSet := marked[TableStages]; len(stageSet) > 0 {
		for _, session := range snap.Sessions {
			if stageSet.Has(session.StageID) {
				mark(TableSessions, session.ID)
			}
		}
	}
	if invoiceSet := marked[TableInvoices]; len(invoiceSet) > 0 {
		for _, item := range snap.InvoiceItems {
			if invoiceSet.Has(item.InvoiceID) {
				mark(TableInvoiceItems, item.ID)
			}
		}
	}
	return marked
}

func dropMarked(snap *Snapshot, marked map[Table]IDSet) *Snapshot {
	out := &Snapshot{}
	out.Clients = withoutKeys(snap.Clients, marked[TableClients])
	out.Cases = withoutKeys(snap.Cases, marked[TableCases])
	out.Stages = withoutKeys(snap.Stages, marked[TableStages])
	out.Sessions = withoutKeys(snap.Sessions, marked[TableSessions])
	out.AdminTasks = withoutKeys(snap.AdminTasks, marked[TableAdminTasks])
	out.Appointments = withoutKeys(snap.Appointments, marked[TableAppointments])
	out.AccountingEntries = withoutKeys(snap.AccountingEntries, marked[TableAccountingEntries])
	out.Invoices = withoutKeys(snap.Invoices, marked[TableInvoices])
	out.InvoiceItems = withoutKeys(snap.InvoiceItems, marked[TableInvoiceItems])
	out.Assistants = withoutKeys(snap.Assistants, marked[TableAssistants])
	out.Documents = withoutKeys(snap.Documents, marked[TableCaseDocuments])
	out.Profiles = withoutKeys(snap.Profiles, marked[TableProfiles])
	out.SiteFinances = withoutKeys(snap.SiteFinances, marked[TableSiteFinances])
	return out
}

func withoutKeys[R Record](recs []R, gone IDSet) []R {
	if len(gone) == 0 {
		return recs
	}
	var out []R
	for i := range recs {
		if gone.Has(recs[i].Key()) {
			continue
		}
		out = append(out, recs[i])
	}
	return out
}
