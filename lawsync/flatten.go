// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

// Flatten converts the nested domain graph into the flat per-table
// representation. Each child row gains the synthetic foreign key copied from
// its parent during the walk; nested child slices are stripped from the flat
// copies. Pure function: the input graph is not modified.
func Flatten(app *AppData) *Snapshot {
	snap := &Snapshot{}
	if app == nil {
		return snap
	}

	for _, client := range app.Clients {
		flat := client
		flat.Cases = nil
		snap.Clients = append(snap.Clients, flat)

		for _, cs := range client.Cases {
			flatCase := cs
			flatCase.ClientID = client.ID
			flatCase.Stages = nil
			snap.Cases = append(snap.Cases, flatCase)

			for _, stage := range cs.Stages {
				flatStage := stage
				flatStage.CaseID = cs.ID
				flatStage.Sessions = nil
				snap.Stages = append(snap.Stages, flatStage)

				for _, session := range stage.Sessions {
					flatSession := session
					flatSession.StageID = stage.ID
					snap.Sessions = append(snap.Sessions, flatSession)
				}
			}
		}
	}

	for _, invoice := range app.Invoices {
		flat := invoice
		flat.Items = nil
		snap.Invoices = append(snap.Invoices, flat)

		for _, item := range invoice.Items {
			flatItem := item
			flatItem.InvoiceID = invoice.ID
			snap.InvoiceItems = append(snap.InvoiceItems, flatItem)
		}
	}

	snap.AdminTasks = append(snap.AdminTasks, app.AdminTasks...)
	snap.Appointments = append(snap.Appointments, app.Appointments...)
	snap.AccountingEntries = append(snap.AccountingEntries, app.AccountingEntries...)
	snap.Assistants = append(snap.Assistants, app.Assistants...)
	snap.Documents = append(snap.Documents, app.Documents...)
	snap.Profiles = append(snap.Profiles, app.Profiles...)
	snap.SiteFinances = append(snap.SiteFinances, app.SiteFinances...)

	return snap
}

// Reconstruct is the inverse of Flatten: it groups each child table by its
// foreign key and re-attaches the groups to their parents by id. Children
// with a foreign key that matches no parent are dropped, and an absent table
// is treated as empty; Reconstruct never fails.
//
// For any structurally valid graph, Reconstruct(Flatten(g)) is deep-equal
// to g.
func Reconstruct(snap *Snapshot) *AppData {
	app := &AppData{}
	if snap == nil {
		return app
	}

	sessionsByStage := make(map[string][]Session)
	for _, session := range snap.Sessions {
		if session.StageID == "" {
			continue
		}
		flat := session
		flat.StageID = ""
		sessionsByStage[session.StageID] = append(sessionsByStage[session.StageID], flat)
	}

	stagesByCase := make(map[string][]Stage)
	for _, stage := range snap.Stages {
		if stage.CaseID == "" {
			continue
		}
		nested := stage
		nested.CaseID = ""
		nested.Sessions = sessionsByStage[stage.ID]
		stagesByCase[stage.CaseID] = append(stagesByCase[stage.CaseID], nested)
	}

	casesByClient := make(map[string][]Case)
	for _, cs := range snap.Cases {
		if cs.ClientID == "" {
			continue
		}
		nested := cs
		nested.ClientID = ""
		nested.Stages = stagesByCase[cs.ID]
		casesByClient[cs.ClientID] = append(casesByClient[cs.ClientID], nested)
	}

	for _, client := range snap.Clients {
		nested := client
		nested.Cases = casesByClient[client.ID]
		app.Clients = append(app.Clients, nested)
	}

	itemsByInvoice := make(map[string][]InvoiceItem)
	for _, item := range snap.InvoiceItems {
		if item.InvoiceID == "" {
			continue
		}
		nested := item
		nested.InvoiceID = ""
		itemsByInvoice[item.InvoiceID] = append(itemsByInvoice[item.InvoiceID], nested)
	}

	for _, invoice := range snap.Invoices {
		nested := invoice
		nested.Items = itemsByInvoice[invoice.ID]
		app.Invoices = append(app.Invoices, nested)
	}

	app.AdminTasks = append(app.AdminTasks, snap.AdminTasks...)
	app.Appointments = append(app.Appointments, snap.Appointments...)
	app.AccountingEntries = append(app.AccountingEntries, snap.AccountingEntries...)
	app.Assistants = append(app.Assistants, snap.Assistants...)
	app.Documents = append(app.Documents, snap.Documents...)
	app.Profiles = append(app.Profiles, snap.Profiles...)
	app.SiteFinances = append(app.SiteFinances, snap.SiteFinances...)

	return app
}
