package events

import (
	"time"

	"github.com/boon-market/support-router/internal/domain"
)

// EventType enumerates ticket lifecycle events.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventThreadBound    EventType = "thread_bound"
	EventTicketClosed   EventType = "ticket_closed"
	EventTicketReopened EventType = "ticket_reopened"
	EventTicketRated    EventType = "ticket_rated"
)

// Event represents a lifecycle event emitted by the router and survey
// services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	ChatID    int64       `json:"chat_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category    string  `json:"category"`
	OrderNumber *string `json:"order_number,omitempty"`
	Branch      string  `json:"branch"`
	Registered  bool    `json:"registered"`
}

// ThreadBoundPayload payload.
type ThreadBoundPayload struct {
	ThreadID int64  `json:"thread_id"`
	Subject  string `json:"subject"`
}

// TicketStatusPayload carries close/reopen transitions.
type TicketStatusPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}

// TicketRatedPayload payload.
type TicketRatedPayload struct {
	Rating int `json:"rating"`
}
