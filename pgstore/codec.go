// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"encoding/json"
	"fmt"

	"github.com/aboodalmontad/lawsync/lawsync"
)

// deletionLogTable is the append-only tombstone table expected next to the
// record tables.
const deletionLogTable = "sync_deletions"

// keyColumn returns the primary key column for a table; assistants are
// keyed by name.
func keyColumn(t lawsync.Table) string {
	if t == lawsync.TableAssistants {
		return "name"
	}
	return "id"
}

func encodeRecord(rec lawsync.Record) ([]byte, error) {
	return json.Marshal(rec)
}

func decodePayload[R any](payload []byte) (R, error) {
	var rec R
	if err := json.Unmarshal(payload, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// decodeRecord unmarshals a payload into the concrete type for its table.
func decodeRecord(t lawsync.Table, payload []byte) (lawsync.Record, error) {
	switch t {
	case lawsync.TableClients:
		return decodePayload[lawsync.Client](payload)
	case lawsync.TableCases:
		return decodePayload[lawsync.Case](payload)
	case lawsync.TableStages:
		return decodePayload[lawsync.Stage](payload)
	case lawsync.TableSessions:
		return decodePayload[lawsync.Session](payload)
	case lawsync.TableAdminTasks:
		return decodePayload[lawsync.AdminTask](payload)
	case lawsync.TableAppointments:
		return decodePayload[lawsync.Appointment](payload)
	case lawsync.TableAccountingEntries:
		return decodePayload[lawsync.AccountingEntry](payload)
	case lawsync.TableInvoices:
		return decodePayload[lawsync.Invoice](payload)
	case lawsync.TableInvoiceItems:
		return decodePayload[lawsync.InvoiceItem](payload)
	case lawsync.TableAssistants:
		return decodePayload[lawsync.Assistant](payload)
	case lawsync.TableCaseDocuments:
		return decodePayload[lawsync.CaseDocument](payload)
	case lawsync.TableProfiles:
		return decodePayload[lawsync.Profile](payload)
	case lawsync.TableSiteFinances:
		return decodePayload[lawsync.SiteFinancialEntry](payload)
	}
	return nil, fmt.Errorf("unknown table %q", t)
}
