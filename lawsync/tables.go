// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

// Table identifies one of the thirteen flat record tables by its remote
// (snake_case) name.
type Table string

const (
	TableClients           Table = "clients"
	TableCases             Table = "cases"
	TableStages            Table = "stages"
	TableSessions          Table = "sessions"
	TableAdminTasks        Table = "admin_tasks"
	TableAppointments      Table = "appointments"
	TableAccountingEntries Table = "accounting_entries"
	TableInvoices          Table = "invoices"
	TableInvoiceItems      Table = "invoice_items"
	TableAssistants        Table = "assistants"
	TableCaseDocuments     Table = "case_documents"
	TableProfiles          Table = "profiles"
	TableSiteFinances      Table = "site_finances"
)

// AllTables lists every table in a stable order.
var AllTables = []Table{
	TableClients,
	TableCases,
	TableStages,
	TableSessions,
	TableAdminTasks,
	TableAppointments,
	TableAccountingEntries,
	TableInvoices,
	TableInvoiceItems,
	TableAssistants,
	TableCaseDocuments,
	TableProfiles,
	TableSiteFinances,
}

// DeleteOrder is the order remote row deletes are issued in: children before
// parents, so the remote store never sees a dangling foreign key.
var DeleteOrder = []Table{
	TableCaseDocuments,
	TableInvoiceItems,
	TableSessions,
	TableStages,
	TableCases,
	TableInvoices,
	TableAdminTasks,
	TableAppointments,
	TableAccountingEntries,
	TableAssistants,
	TableClients,
	TableSiteFinances,
	TableProfiles,
}

// pushOrder mirrors DeleteOrder reversed: parents before children. The first
// hierarchicalPushTables entries must be pushed sequentially; the rest are
// independent and may be pushed concurrently.
var pushOrder = []Table{
	TableClients,
	TableInvoices,
	TableCases,
	TableStages,
	TableSessions,
	TableInvoiceItems,
	TableCaseDocuments,
	// independent trailing tables
	TableProfiles,
	TableSiteFinances,
	TableAssistants,
	TableAccountingEntries,
	TableAppointments,
	TableAdminTasks,
}

const hierarchicalPushTables = 7

// deletionSetKeys maps flat table names to the camelCase keys used by the
// deletion-intent set. The two conventions coexist historically; every
// cross-component lookup goes through this table.
var deletionSetKeys = map[Table]string{
	TableClients:           "clients",
	TableCases:             "cases",
	TableStages:            "stages",
	TableSessions:          "sessions",
	TableAdminTasks:        "adminTasks",
	TableAppointments:      "appointments",
	TableAccountingEntries: "accountingEntries",
	TableInvoices:          "invoices",
	TableInvoiceItems:      "invoiceItems",
	TableAssistants:        "assistants",
	TableCaseDocuments:     "documents",
	TableProfiles:          "profiles",
	TableSiteFinances:      "siteFinances",
}

// DeletionSetKey returns the deletion-intent set key for a flat table name.
func DeletionSetKey(t Table) string { return deletionSetKeys[t] }
