// Copyright 2025 The lawsync Authors
// SPDX-License-Identifier: Apache-2.0

package lawsync

import (
	"time"

	"github.com/google/uuid"
)

// Record is implemented by every row type the engine reconciles. Key returns
// the primary key (the id field, or the name for assistants); Updated returns
// the record's last-write timestamp (zero time when never set, which compares
// as older than everything).
type Record interface {
	Key() string
	Updated() time.Time
}

// NewID returns a fresh record id. IDs are assigned by the creating device
// and never reused.
func NewID() string { return uuid.New().String() }

// Client is the root of the ownership hierarchy.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	// Cases is populated only in the nested representation.
	Cases []Case `json:"cases,omitempty"`
}

func (c Client) Key() string        { return c.ID }
func (c Client) Updated() time.Time { return c.UpdatedAt }

// Case is a legal matter owned by a client.
type Case struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id,omitempty"` // set during flattening
	Title     string    `json:"title"`
	CourtName string    `json:"court_name,omitempty"`
	CaseNo    string    `json:"case_no,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Status    string    `json:"status,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	Stages []Stage `json:"stages,omitempty"`
}

func (c Case) Key() string        { return c.ID }
func (c Case) Updated() time.Time { return c.UpdatedAt }

// Stage is a procedural phase of a case (first instance, appeal, ...).
type Stage struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id,omitempty"`
	Name      string    `json:"name"`
	CourtName string    `json:"court_name,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Closed    bool      `json:"closed,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	Sessions []Session `json:"sessions,omitempty"`
}

func (s Stage) Key() string        { return s.ID }
func (s Stage) Updated() time.Time { return s.UpdatedAt }

// Session is a single court hearing inside a stage.
type Session struct {
	ID           string    `json:"id"`
	StageID      string    `json:"stage_id,omitempty"`
	Date         string    `json:"date,omitempty"` // calendar date, no timezone
	Postponement string    `json:"postponement,omitempty"`
	NextDate     string    `json:"next_date,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s Session) Key() string        { return s.ID }
func (s Session) Updated() time.Time { return s.UpdatedAt }

// Invoice is billed to a client; deleting the client cascades to it.
type Invoice struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id,omitempty"`
	Number    string    `json:"number,omitempty"`
	Date      string    `json:"date,omitempty"`
	Total     float64   `json:"total,omitempty"`
	Paid      bool      `json:"paid,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []InvoiceItem `json:"items,omitempty"`
}

func (i Invoice) Key() string        { return i.ID }
func (i Invoice) Updated() time.Time { return i.UpdatedAt }

// InvoiceItem is a line on an invoice.
type InvoiceItem struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (i InvoiceItem) Key() string        { return i.ID }
func (i InvoiceItem) Updated() time.Time { return i.UpdatedAt }

// AdminTask is an office to-do item, independent of the case hierarchy.
type AdminTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DueDate   string    `json:"due_date,omitempty"`
	Done      bool      `json:"done,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t AdminTask) Key() string        { return t.ID }
func (t AdminTask) Updated() time.Time { return t.UpdatedAt }

// Appointment is a calendar entry, independent of the case hierarchy.
type Appointment struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Time      string    `json:"time,omitempty"`
	Date      string    `json:"date,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a Appointment) Key() string        { return a.ID }
func (a Appointment) Updated() time.Time { return a.UpdatedAt }

// AccountingEntry records money in/out. ClientID and CaseID are soft
// references: an entry that names a deleted client is cascaded away, one
// with no client reference is kept regardless.
type AccountingEntry struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id,omitempty"`
	CaseID      string    `json:"case_id,omitempty"`
	Kind        string    `json:"kind,omitempty"` // income | expense
	Amount      float64   `json:"amount,omitempty"`
	Date        string    `json:"date,omitempty"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a AccountingEntry) Key() string        { return a.ID }
func (a AccountingEntry) Updated() time.Time { return a.UpdatedAt }

// Assistant is keyed by name, not id: the name is the primary key on the
// remote side and in the deletion-intent set.
type Assistant struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a Assistant) Key() string        { return a.Name }
func (a Assistant) Updated() time.Time { return a.UpdatedAt }

// DocumentState is the local residency state of a CaseDocument. See the
// lifecycle rules on CaseDocument.
type DocumentState string

const (
	DocSynced          DocumentState = "synced"
	DocPendingUpload   DocumentState = "pending_upload"
	DocPendingDownload DocumentState = "pending_download"
	DocDownloading     DocumentState = "downloading"
	DocError           DocumentState = "error"
)

// CaseDocument is a file-backed record owned by a case. StoragePath names
// the remote blob; the bytes themselves live in the local document store
// and/or the remote blob store depending on LocalState.
//
// IsLocalOnly marks a document that must never be pushed to the remote store
// again, and whose absence remotely must not be read as "to be re-created".
type CaseDocument struct {
	ID          string        `json:"id"`
	CaseID      string        `json:"caseId"`
	Name        string        `json:"name"`
	MimeType    string        `json:"mime_type,omitempty"`
	Size        int64         `json:"size,omitempty"`
	StoragePath string        `json:"storage_path,omitempty"`
	LocalState  DocumentState `json:"localState"`
	IsLocalOnly bool          `json:"isLocalOnly,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (d CaseDocument) Key() string        { return d.ID }
func (d CaseDocument) Updated() time.Time { return d.UpdatedAt }

// Profile is per-account settings. Profiles are never tombstoned and never
// filtered by the deletion log.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Profile) Key() string        { return p.ID }
func (p Profile) Updated() time.Time { return p.UpdatedAt }

// SiteFinancialEntry is office-level bookkeeping, independent of clients.
type SiteFinancialEntry struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Date        string    `json:"date,omitempty"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s SiteFinancialEntry) Key() string        { return s.ID }
func (s SiteFinancialEntry) Updated() time.Time { return s.UpdatedAt }
