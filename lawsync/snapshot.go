// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

// AppData is the nested domain graph as the application edits it: clients
// own cases own stages own sessions, invoices own items, and the remaining
// collections are flat. Documents are children of cases by CaseID but are
// kept as a top-level list because their lifecycle (file residency) is
// managed separately from the case tree.
type AppData struct {
	Clients           []Client             `json:"clients"`
	AdminTasks        []AdminTask          `json:"adminTasks"`
	Appointments      []Appointment        `json:"appointments"`
	AccountingEntries []AccountingEntry    `json:"accountingEntries"`
	Invoices          []Invoice            `json:"invoices"`
	Assistants        []Assistant          `json:"assistants"`
	Documents         []CaseDocument       `json:"documents"`
	Profiles          []Profile            `json:"profiles"`
	SiteFinances      []SiteFinancialEntry `json:"siteFinances"`
}

// Snapshot is the flat per-table representation: one independent record
// slice per table, children carrying the synthetic foreign key copied from
// their parent during flattening.
type Snapshot struct {
	Clients           []Client             `json:"clients"`
	Cases             []Case               `json:"cases"`
	Stages            []Stage              `json:"stages"`
	Sessions          []Session            `json:"sessions"`
	AdminTasks        []AdminTask          `json:"admin_tasks"`
	Appointments      []Appointment        `json:"appointments"`
	AccountingEntries []AccountingEntry    `json:"accounting_entries"`
	Invoices          []Invoice            `json:"invoices"`
	InvoiceItems      []InvoiceItem        `json:"invoice_items"`
	Assistants        []Assistant          `json:"assistants"`
	Documents         []CaseDocument       `json:"case_documents"`
	Profiles          []Profile            `json:"profiles"`
	SiteFinances      []SiteFinancialEntry `json:"site_finances"`
}

// IsEmpty reports whether the snapshot holds no records at all.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Clients) == 0 && len(s.Cases) == 0 && len(s.Stages) == 0 &&
		len(s.Sessions) == 0 && len(s.AdminTasks) == 0 && len(s.Appointments) == 0 &&
		len(s.AccountingEntries) == 0 && len(s.Invoices) == 0 && len(s.InvoiceItems) == 0 &&
		len(s.Assistants) == 0 && len(s.Documents) == 0 && len(s.Profiles) == 0 &&
		len(s.SiteFinances) == 0
}

// IsEffectivelyEmpty reports whether all primary collections are empty, the
// first half of the fresh-device bootstrap fast-path condition. Profiles are
// ignored: a new device may already carry its own profile row.
func (s *Snapshot) IsEffectivelyEmpty() bool {
	return len(s.Clients) == 0 && len(s.AdminTasks) == 0 && len(s.Appointments) == 0 &&
		len(s.AccountingEntries) == 0 && len(s.Invoices) == 0 && len(s.Assistants) == 0 &&
		len(s.Documents) == 0 && len(s.SiteFinances) == 0
}

// Records returns the snapshot's record slice for a table as []Record.
func (s *Snapshot) Records(t Table) []Record {
	switch t {
	case TableClients:
		return asRecords(s.Clients)
	case TableCases:
		return asRecords(s.Cases)
	case TableStages:
		return asRecords(s.Stages)
	case TableSessions:
		return asRecords(s.Sessions)
	case TableAdminTasks:
		return asRecords(s.AdminTasks)
	case TableAppointments:
		return asRecords(s.Appointments)
	case TableAccountingEntries:
		return asRecords(s.AccountingEntries)
	case TableInvoices:
		return asRecords(s.Invoices)
	case TableInvoiceItems:
		return asRecords(s.InvoiceItems)
	case TableAssistants:
		return asRecords(s.Assistants)
	case TableCaseDocuments:
		return asRecords(s.Documents)
	case TableProfiles:
		return asRecords(s.Profiles)
	case TableSiteFinances:
		return asRecords(s.SiteFinances)
	}
	return nil
}

// ReplaceRecord swaps in a server-echoed record by key. Records the snapshot
// does not hold are ignored: the echo is a reconcile signal, not an insert
// channel. A record of the wrong concrete type for the table is ignored the
// same way (malformed echo, logged by the caller).
func (s *Snapshot) ReplaceRecord(t Table, rec Record) {
	switch t {
	case TableClients:
		replaceByKey(s.Clients, rec)
	case TableCases:
		replaceByKey(s.Cases, rec)
	case TableStages:
		replaceByKey(s.Stages, rec)
	case TableSessions:
		replaceByKey(s.Sessions, rec)
	case TableAdminTasks:
		replaceByKey(s.AdminTasks, rec)
	case TableAppointments:
		replaceByKey(s.Appointments, rec)
	case TableAccountingEntries:
		replaceByKey(s.AccountingEntries, rec)
	case TableInvoices:
		replaceByKey(s.Invoices, rec)
	case TableInvoiceItems:
		replaceByKey(s.InvoiceItems, rec)
	case TableAssistants:
		replaceByKey(s.Assistants, rec)
	case TableCaseDocuments:
		replaceByKey(s.Documents, rec)
	case TableProfiles:
		replaceByKey(s.Profiles, rec)
	case TableSiteFinances:
		replaceByKey(s.SiteFinances, rec)
	}
}

func asRecords[R Record](recs []R) []Record {
	out := make([]Record, len(recs))
	for i := range recs {
		out[i] = recs[i]
	}
	return out
}

func replaceByKey[R Record](recs []R, rec Record) {
	typed, ok := rec.(R)
	if !ok {
		return
	}
	for i := range recs {
		if recs[i].Key() == typed.Key() {
			recs[i] = typed
			return
		}
	}
}

// keySet collects the primary keys of a record slice.
func keySet[R Record](recs []R) map[string]struct{} {
	out := make(map[string]struct{}, len(recs))
	for i := range recs {
		out[recs[i].Key()] = struct{}{}
	}
	return out
}
