// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const (
	// SkewBuffer is added to a tombstone's deletion time whenever it is
	// compared against a record's updated_at. A local edit newer than
	// deleted_at+SkewBuffer overrides the deletion ("undelete by edit").
	SkewBuffer = 2000 * time.Millisecond

	// DeletionLogWindow is how far back a full sync reads the remote
	// tombstone log. A device offline longer than this can resurrect
	// records other devices already deleted; known limitation, no
	// mitigation attempted.
	DeletionLogWindow = 30 * 24 * time.Hour
)

// Tombstone is one entry of the append-only remote deletion log.
type Tombstone struct {
	TableName Table     `json:"table_name"`
	RecordID  string    `json:"record_id"`
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// IDSet is a set of record ids (or assistant names) that marshals as a
// sorted JSON array, matching how the intent set is persisted.
type IDSet map[string]struct{}

func (s IDSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s *IDSet) Add(key string) {
	if *s == nil {
		*s = make(IDSet)
	}
	(*s)[key] = struct{}{}
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return json.Marshal(keys)
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = make(IDSet, len(keys))
	for _, k := range keys {
		(*s)[k] = struct{}{}
	}
	return nil
}

// DeletionSet holds the device's not-yet-synced deletion intents: record
// ids/names per entity, plus deleted document storage paths (a document
// delete needs a remote blob removal on top of the row delete) and the
// locally suppressed document ids (user-deleted documents that bypass the
// shared tombstone log, see CaseDocument lifecycle).
//
// JSON keys use the intent-set (camelCase) naming convention; see
// DeletionSetKey for the mapping from flat table names.
type DeletionSet struct {
	Clients           IDSet `json:"clients,omitempty"`
	Cases             IDSet `json:"cases,omitempty"`
	Stages            IDSet `json:"stages,omitempty"`
	Sessions          IDSet `json:"sessions,omitempty"`
	AdminTasks        IDSet `json:"adminTasks,omitempty"`
	Appointments      IDSet `json:"appointments,omitempty"`
	AccountingEntries IDSet `json:"accountingEntries,omitempty"`
	Invoices          IDSet `json:"invoices,omitempty"`
	InvoiceItems      IDSet `json:"invoiceItems,omitempty"`
	Assistants        IDSet `json:"assistants,omitempty"`
	Documents         IDSet `json:"documents,omitempty"`
	Profiles          IDSet `json:"profiles,omitempty"`
	SiteFinances      IDSet `json:"siteFinances,omitempty"`

	DeletedDocumentPaths []string `json:"deletedDocumentPaths,omitempty"`
	SuppressedDocuments  IDSet    `json:"suppressedDocuments,omitempty"`
}

// ForTable returns the intent set for a flat table name. The returned set
// may be nil; IDSet.Has on a nil set is false.
func (d *DeletionSet) ForTable(t Table) IDSet {
	if d == nil {
		return nil
	}
	switch t {
	case TableClients:
		return d.Clients
	case TableCases:
		return d.Cases
	case TableStages:
		return d.Stages
	case TableSessions:
		return d.Sessions
	case TableAdminTasks:
		return d.AdminTasks
	case TableAppointments:
		return d.Appointments
	case TableAccountingEntries:
		return d.AccountingEntries
	case TableInvoices:
		return d.Invoices
	case TableInvoiceItems:
		return d.InvoiceItems
	case TableAssistants:
		return d.Assistants
	case TableCaseDocuments:
		return d.Documents
	case TableProfiles:
		return d.Profiles
	case TableSiteFinances:
		return d.SiteFinances
	}
	return nil
}

// Mark records a deletion intent for one record of a table.
func (d *DeletionSet) Mark(t Table, key string) {
	switch t {
	case TableClients:
		d.Clients.Add(key)
	case TableCases:
		d.Cases.Add(key)
	case TableStages:
		d.Stages.Add(key)
	case TableSessions:
		d.Sessions.Add(key)
	case TableAdminTasks:
		d.AdminTasks.Add(key)
	case TableAppointments:
		d.Appointments.Add(key)
	case TableAccountingEntries:
		d.AccountingEntries.Add(key)
	case TableInvoices:
		d.Invoices.Add(key)
	case TableInvoiceItems:
		d.InvoiceItems.Add(key)
	case TableAssistants:
		d.Assistants.Add(key)
	case TableCaseDocuments:
		d.Documents.Add(key)
	case TableProfiles:
		d.Profiles.Add(key)
	case TableSiteFinances:
		d.SiteFinances.Add(key)
	}
}

// HasRowIntents reports whether any per-table deletion intent is pending.
// Suppressed documents and blob paths do not count: they are not row
// deletions.
func (d *DeletionSet) HasRowIntents() bool {
	if d == nil {
		return false
	}
	for _, t := range AllTables {
		if len(d.ForTable(t)) > 0 {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the set carries no pending work at all (row
// intents or blob paths). Suppressed documents are durable bookkeeping, not
// pending work, and are ignored here.
func (d *DeletionSet) IsEmpty() bool {
	return !d.HasRowIntents() && (d == nil || len(d.DeletedDocumentPaths) == 0)
}

// ClearRowIntents drops every per-table intent, keeping the suppressed
// document ids and any blob paths the caller did not clear.
func (d *DeletionSet) ClearRowIntents() {
	d.Clients = nil
	d.Cases = nil
	d.Stages = nil
	d.Sessions = nil
	d.AdminTasks = nil
	d.Appointments = nil
	d.AccountingEntries = nil
	d.Invoices = nil
	d.InvoiceItems = nil
	d.Assistants = nil
	d.Documents = nil
	d.Profiles = nil
	d.SiteFinances = nil
}

// tombstoneIndex keys tombstones by table:recordId for O(1) lookups.
type tombstoneIndex map[string]time.Time

func indexTombstones(tombstones []Tombstone) tombstoneIndex {
	idx := make(tombstoneIndex, len(tombstones))
	for _, ts := range tombstones {
		key := fmt.Sprintf("%s:%s", ts.TableName, ts.RecordID)
		// Keep the newest deletion time when the log holds duplicates.
		if prev, ok := idx[key]; !ok || ts.DeletedAt.After(prev) {
			idx[key] = ts.DeletedAt
		}
	}
	return idx
}

// deletedAt returns the tombstone time for a record, if one exists.
func (idx tombstoneIndex) deletedAt(t Table, key string) (time.Time, bool) {
	at, ok := idx[fmt.Sprintf("%s:%s", t, key)]
	return at, ok
}

// tombstoned reports whether a record is covered by a tombstone that its own
// updated_at does not override. A record edited after deleted_at+SkewBuffer
// survives the deletion.
func (idx tombstoneIndex) tombstoned(t Table, rec Record) bool {
	at, ok := idx.deletedAt(t, rec.Key())
	if !ok {
		return false
	}
	return !rec.Updated().After(at.Add(SkewBuffer))
}

// ApplyDeletionLog filters a flat local snapshot against the remote
// tombstone log, then cascades the surviving-parent constraint down the
// hierarchy so that no child outlives its deleted parent. Documents get the
// residency special case: a tombstoned document whose file is already
// resident locally is converted to local-only instead of dropped. Profiles
// are never filtered. Pure function: returns a new snapshot.
func ApplyDeletionLog(snap *Snapshot, tombstones []Tombstone) *Snapshot {
	idx := indexTombstones(tombstones)
	out := &Snapshot{}

	out.Clients = dropTombstoned(idx, TableClients, snap.Clients)
	clientIDs := keySet(out.Clients)

	// The cascade runs parents before children: a case survives only when
	// its client does, independently of whether the case itself had a
	// tombstone.
	out.Cases = keepWithParent(dropTombstoned(idx, TableCases, snap.Cases), clientIDs,
		func(c Case) string { return c.ClientID })
	caseIDs := keySet(out.Cases)

	out.Stages = keepWithParent(dropTombstoned(idx, TableStages, snap.Stages), caseIDs,
		func(s Stage) string { return s.CaseID })
	stageIDs := keySet(out.Stages)

	out.Sessions = keepWithParent(dropTombstoned(idx, TableSessions, snap.Sessions), stageIDs,
		func(s Session) string { return s.StageID })

	// Invoices carry a stored client reference (not synthesized during
	// flattening); only invoices that name a deleted client are cascaded.
	for _, invoice := range dropTombstoned(idx, TableInvoices, snap.Invoices) {
		if invoice.ClientID != "" {
			if _, ok := clientIDs[invoice.ClientID]; !ok {
				continue
			}
		}
		out.Invoices = append(out.Invoices, invoice)
	}
	invoiceIDs := keySet(out.Invoices)

	out.InvoiceItems = keepWithParent(dropTombstoned(idx, TableInvoiceItems, snap.InvoiceItems), invoiceIDs,
		func(i InvoiceItem) string { return i.InvoiceID })

	// Accounting entries cascade only when they reference a client at all.
	for _, entry := range dropTombstoned(idx, TableAccountingEntries, snap.AccountingEntries) {
		if entry.ClientID != "" {
			if _, ok := clientIDs[entry.ClientID]; !ok {
				continue
			}
		}
		out.AccountingEntries = append(out.AccountingEntries, entry)
	}

	out.AdminTasks = dropTombstoned(idx, TableAdminTasks, snap.AdminTasks)
	out.Appointments = dropTombstoned(idx, TableAppointments, snap.Appointments)
	out.Assistants = dropTombstoned(idx, TableAssistants, snap.Assistants)
	out.SiteFinances = dropTombstoned(idx, TableSiteFinances, snap.SiteFinances)

	// Profiles are never filtered by the deletion log.
	out.Profiles = append(out.Profiles, snap.Profiles...)

	for _, doc := range snap.Documents {
		if idx.tombstoned(TableCaseDocuments, doc) {
			if doc.LocalState == DocSynced || doc.IsLocalOnly {
				// File is resident: keep it as a private local artifact no
				// longer tracked remotely.
				doc.IsLocalOnly = true
			} else {
				// Never downloaded; there is no remote copy left to fetch.
				continue
			}
		}
		if _, ok := caseIDs[doc.CaseID]; !ok {
			continue
		}
		out.Documents = append(out.Documents, doc)
	}

	return out
}

func dropTombstoned[R Record](idx tombstoneIndex, t Table, recs []R) []R {
	var out []R
	for i := range recs {
		if idx.tombstoned(t, recs[i]) {
			continue
		}
		out = append(out, recs[i])
	}
	return out
}

func keepWithParent[R Record](recs []R, parents map[string]struct{}, parentKey func(R) string) []R {
	var out []R
	for i := range recs {
		if _, ok := parents[parentKey(recs[i])]; !ok {
			continue
		}
		out = append(out, recs[i])
	}
	return out
}
