package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/boon-market/support-router/internal/events"
)

// NotificationService observes ticket lifecycle events and emits the
// structured audit log staff dashboards scrape. It never touches the
// messenger; staff-visible notices are sent inline by the services that
// cause them.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to all lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventThreadBound, n.handleThreadBound)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleStatusChange)
	n.dispatcher.Subscribe(events.EventTicketReopened, n.handleStatusChange)
	n.dispatcher.Subscribe(events.EventTicketRated, n.handleTicketRated)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated",
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64("chat_id", event.ChatID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleThreadBound(ctx context.Context, event events.Event) error {
	n.logger.Info("ThreadBound",
		zap.Int64("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleStatusChange(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged",
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketRated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketRated",
		zap.Int64("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}
