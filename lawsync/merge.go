// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

// SyncPlan is the outcome of a full merge round: Upserts is the subset of
// local records to push remotely, Merged the authoritative post-sync record
// set to keep locally. Both are orphan-pruned before use (PruneOrphans).
type SyncPlan struct {
	Upserts Snapshot
	Merged  Snapshot
}

// MergeSnapshots reconciles the local and remote flat snapshots under
// last-write-wins semantics, honoring the pending local deletion intents:
// a record marked for deletion is never pushed and never resurrected from
// the pull, and a child whose parent is pending deletion is dropped
// entirely. Pure function over its three inputs; running it twice on the
// same triple yields identical output.
func MergeSnapshots(local, remote *Snapshot, del *DeletionSet) *SyncPlan {
	plan := &SyncPlan{}

	plan.Upserts.Clients, plan.Merged.Clients = mergeRecords(
		local.Clients, remote.Clients, del.ForTable(TableClients), nil)

	plan.Upserts.Cases, plan.Merged.Cases = mergeRecords(
		local.Cases, remote.Cases, del.ForTable(TableCases),
		func(c Case) bool { return del.Clients.Has(c.ClientID) })

	plan.Upserts.Stages, plan.Merged.Stages = mergeRecords(
		local.Stages, remote.Stages, del.ForTable(TableStages),
		func(s Stage) bool { return del.Cases.Has(s.CaseID) })

	plan.Upserts.Sessions, plan.Merged.Sessions = mergeRecords(
		local.Sessions, remote.Sessions, del.ForTable(TableSessions),
		func(s Session) bool { return del.Stages.Has(s.StageID) })

	plan.Upserts.Invoices, plan.Merged.Invoices = mergeRecords(
		local.Invoices, remote.Invoices, del.ForTable(TableInvoices),
		func(i Invoice) bool { return del.Clients.Has(i.ClientID) })

	plan.Upserts.InvoiceItems, plan.Merged.InvoiceItems = mergeRecords(
		local.InvoiceItems, remote.InvoiceItems, del.ForTable(TableInvoiceItems),
		func(i InvoiceItem) bool { return del.Invoices.Has(i.InvoiceID) })

	// Accounting entries are soft children: only entries that actually
	// reference a pending-deletion client are pre-empted.
	plan.Upserts.AccountingEntries, plan.Merged.AccountingEntries = mergeRecords(
		local.AccountingEntries, remote.AccountingEntries, del.ForTable(TableAccountingEntries),
		func(a AccountingEntry) bool { return a.ClientID != "" && del.Clients.Has(a.ClientID) })

	plan.Upserts.AdminTasks, plan.Merged.AdminTasks = mergeRecords(
		local.AdminTasks, remote.AdminTasks, del.ForTable(TableAdminTasks), nil)

	plan.Upserts.Appointments, plan.Merged.Appointments = mergeRecords(
		local.Appointments, remote.Appointments, del.ForTable(TableAppointments), nil)

	plan.Upserts.Assistants, plan.Merged.Assistants = mergeRecords(
		local.Assistants, remote.Assistants, del.ForTable(TableAssistants), nil)

	plan.Upserts.Profiles, plan.Merged.Profiles = mergeRecords(
		local.Profiles, remote.Profiles, del.ForTable(TableProfiles), nil)

	plan.Upserts.SiteFinances, plan.Merged.SiteFinances = mergeRecords(
		local.SiteFinances, remote.SiteFinances, del.ForTable(TableSiteFinances), nil)

	plan.Upserts.Documents, plan.Merged.Documents = mergeDocuments(
		local.Documents, remote.Documents, del)

	return plan
}

// mergeRecords runs the per-table reconciliation: drop children of
// pending-deletion parents, last-write-wins on records present on both
// sides (remote wins ties), queue local-only records for upsert, and adopt
// remote-only records unless they are pending local deletion.
func mergeRecords[R Record](local, remote []R, pending IDSet, parentPending func(R) bool) (upserts, merged []R) {
	remoteByKey := make(map[string]R, len(remote))
	for i := range remote {
		remoteByKey[remote[i].Key()] = remote[i]
	}

	localKeys := make(map[string]struct{}, len(local))
	for i := range local {
		rec := local[i]
		localKeys[rec.Key()] = struct{}{}

		if parentPending != nil && parentPending(rec) {
			// A pending parent deletion pre-empts pushing or keeping the
			// orphaned child.
			continue
		}
		if pending.Has(rec.Key()) {
			continue
		}

		remoteRec, ok := remoteByKey[rec.Key()]
		if !ok {
			upserts = append(upserts, rec)
			merged = append(merged, rec)
			continue
		}
		if rec.Updated().After(remoteRec.Updated()) {
			upserts = append(upserts, rec)
			merged = append(merged, rec)
		} else {
			merged = append(merged, remoteRec)
		}
	}

	for i := range remote {
		rec := remote[i]
		if _, ok := localKeys[rec.Key()]; ok {
			continue
		}
		if pending.Has(rec.Key()) {
			// Deleted locally, push of the deletion still pending: the pull
			// racing the delete must not resurrect it.
			continue
		}
		if parentPending != nil && parentPending(rec) {
			continue
		}
		merged = append(merged, rec)
	}

	return upserts, merged
}

// mergeDocuments is the documents variant of mergeRecords. Beyond the
// common rules it enforces document residency: a local-only document is
// never pushed, and a synced document that vanished remotely without a
// local deletion intent becomes local-only instead of being re-uploaded
// (the remote side expires old files without tombstoning them).
func mergeDocuments(local, remote []CaseDocument, del *DeletionSet) (upserts, merged []CaseDocument) {
	pending := del.ForTable(TableCaseDocuments)

	remoteByKey := make(map[string]CaseDocument, len(remote))
	for i := range remote {
		remoteByKey[remote[i].ID] = remote[i]
	}

	localKeys := make(map[string]struct{}, len(local))
	for i := range local {
		doc := local[i]
		localKeys[doc.ID] = struct{}{}

		if del.Cases.Has(doc.CaseID) {
			continue
		}
		if pending.Has(doc.ID) {
			continue
		}

		remoteDoc, ok := remoteByKey[doc.ID]
		if !ok {
			if doc.IsLocalOnly {
				merged = append(merged, doc)
				continue
			}
			if doc.LocalState == DocSynced {
				// Vanished remotely without local intent (e.g. remote expiry
				// cleanup). Keep the file, stop tracking it remotely.
				doc.IsLocalOnly = true
				merged = append(merged, doc)
				continue
			}
			upserts = append(upserts, doc)
			merged = append(merged, doc)
			continue
		}

		if doc.Updated().After(remoteDoc.Updated()) {
			if !doc.IsLocalOnly {
				upserts = append(upserts, doc)
			}
			merged = append(merged, doc)
		} else {
			// Remote wins, but residency is device-local state: the remote
			// row knows nothing about where the file lives here.
			remoteDoc.LocalState = doc.LocalState
			remoteDoc.IsLocalOnly = doc.IsLocalOnly
			merged = append(merged, remoteDoc)
		}
	}

	for i := range remote {
		doc := remote[i]
		if _, ok := localKeys[doc.ID]; ok {
			continue
		}
		if pending.Has(doc.ID) || del.SuppressedDocuments.Has(doc.ID) {
			continue
		}
		if del.Cases.Has(doc.CaseID) {
			continue
		}
		// New on the remote side: the file itself has not been fetched yet.
		doc.LocalState = DocPendingDownload
		doc.IsLocalOnly = false
		merged = append(merged, doc)
	}

	return upserts, merged
}

// RefreshMerge is the lighter pull-only reconciliation used by the refresh
// path: last-write-wins by id and timestamp, no upserts, no deletes, with
// the same no-resurrection guarantees for pending and suppressed records.
func RefreshMerge(local, remote *Snapshot, del *DeletionSet) *Snapshot {
	out := &Snapshot{}

	_, out.Clients = mergeRecords(local.Clients, remote.Clients, del.ForTable(TableClients), nil)
	_, out.Cases = mergeRecords(local.Cases, remote.Cases, del.ForTable(TableCases), nil)
	_, out.Stages = mergeRecords(local.Stages, remote.Stages, del.ForTable(TableStages), nil)
	_, out.Sessions = mergeRecords(local.Sessions, remote.Sessions, del.ForTable(TableSessions), nil)
	_, out.AdminTasks = mergeRecords(local.AdminTasks, remote.AdminTasks, del.ForTable(TableAdminTasks), nil)
	_, out.Appointments = mergeRecords(local.Appointments, remote.Appointments, del.ForTable(TableAppointments), nil)
	_, out.AccountingEntries = mergeRecords(local.AccountingEntries, remote.AccountingEntries, del.ForTable(TableAccountingEntries), nil)
	_, out.Invoices = mergeRecords(local.Invoices, remote.Invoices, del.ForTable(TableInvoices), nil)
	_, out.InvoiceItems = mergeRecords(local.InvoiceItems, remote.InvoiceItems, del.ForTable(TableInvoiceItems), nil)
	_, out.Assistants = mergeRecords(local.Assistants, remote.Assistants, del.ForTable(TableAssistants), nil)
	_, out.Profiles = mergeRecords(local.Profiles, remote.Profiles, del.ForTable(TableProfiles), nil)
	_, out.SiteFinances = mergeRecords(local.SiteFinances, remote.SiteFinances, del.ForTable(TableSiteFinances), nil)
	_, out.Documents = mergeDocuments(local.Documents, remote.Documents, del)

	return out
}
