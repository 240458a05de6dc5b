package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusReopened TicketStatus = "reopened"
	TicketStatusClosed   TicketStatus = "closed"
)

// Active reports whether the status routes messages into a staff thread.
// Reopened behaves identically to open; the distinction is informational.
func (s TicketStatus) Active() bool {
	return s == TicketStatusOpen || s == TicketStatusReopened
}

// Ticket is the durable record of one support case. Ids are assigned
// monotonically by the database; the record is never deleted, only
// status-transitioned.
type Ticket struct {
	ID          int64
	ChatID      int64
	AccountID   *int64
	ThreadID    *int64
	Subject     *string
	StoreID     *string
	Category    string
	OrderNumber *string
	Description string
	Branch      string
	Status      TicketStatus
	Rating      *int
	IsClosed    bool
	CreatedAt   time.Time
	ClosedAt    *time.Time
}

// HasThread reports whether the ticket is bound to a staff discussion thread.
// The binding is set once at creation and never changes.
func (t *Ticket) HasThread() bool {
	return t.ThreadID != nil && *t.ThreadID != 0
}
