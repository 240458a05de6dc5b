package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boon-market/support-router/internal/config"
	"github.com/boon-market/support-router/internal/domain"
	"github.com/boon-market/support-router/internal/events"
	"github.com/boon-market/support-router/internal/gateway"
	"github.com/boon-market/support-router/internal/repository"
	"github.com/boon-market/support-router/pkg/util/errorutil"
)

// RouterService owns the binding between tickets and staff discussion
// threads and forwards messages in both directions.
type RouterService struct {
	tickets    repository.TicketRepository
	orders     repository.OrderRepository
	directory  *DirectoryService
	messenger  gateway.Messenger
	dispatcher events.Dispatcher
	gatewayCfg config.GatewayConfig
	schedule   *Schedule
	logger     *zap.Logger
	now        func() time.Time
}

// RouterDependencies bundles collaborators for the router.
type RouterDependencies struct {
	TicketRepo repository.TicketRepository
	OrderRepo  repository.OrderRepository
	Directory  *DirectoryService
	Messenger  gateway.Messenger
	Dispatcher events.Dispatcher
	GatewayCfg config.GatewayConfig
	Schedule   *Schedule
	Logger     *zap.Logger
}

// NewRouterService constructs the service.
func NewRouterService(deps RouterDependencies) *RouterService {
	return &RouterService{
		tickets:    deps.TicketRepo,
		orders:     deps.OrderRepo,
		directory:  deps.Directory,
		messenger:  deps.Messenger,
		dispatcher: deps.Dispatcher,
		gatewayCfg: deps.GatewayCfg,
		schedule:   deps.Schedule,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// ActiveTicket returns the chat's open or reopened ticket, if any.
func (s *RouterService) ActiveTicket(ctx context.Context, chatID int64) (*domain.Ticket, error) {
	return s.tickets.FindLastOpenByChat(ctx, chatID)
}

// CreateTicket runs the creation algorithm: enrich, persist, bind a fresh
// discussion thread, post the staff summary and acknowledge the user.
func (s *RouterService) CreateTicket(ctx context.Context, msg *gateway.Message, category, orderSelection string) (*domain.Ticket, error) {
	account, err := s.directory.FindByChatID(ctx, msg.ChatID)
	if err != nil {
		return nil, err
	}
	displayName := account.DisplayName(msg.From.FullName)
	branch := branchUnknown
	if account != nil && account.Phone != nil && strings.HasPrefix(*account.Phone, "7") {
		branch = branchRussia
	}

	var orderNumber *string
	if orderSelection != "" && orderSelection != orderUnspecified {
		orderNumber = &orderSelection
	}

	// Enrichment is best effort; the ticket is created regardless.
	var storeID *string
	storeTitle := ""
	if orderNumber != nil && account != nil {
		if order, err := s.orders.GetByNumber(ctx, *orderNumber); err != nil {
			s.logger.Warn("order enrichment failed", zap.String("order", *orderNumber), zap.Error(err))
		} else if order != nil && order.StoreID != nil {
			storeID = order.StoreID
			if title, err := s.orders.StoreTitle(ctx, *order.StoreID); err != nil {
				s.logger.Warn("store enrichment failed", zap.String("store", *order.StoreID), zap.Error(err))
			} else {
				storeTitle = title
			}
		}
	}

	// Media without a caption still makes a valid ticket.
	description := msg.Body()
	if description == "" {
		description = descriptionNone
	}

	input := repository.TicketCreateInput{
		ChatID:      msg.ChatID,
		Category:    category,
		OrderNumber: orderNumber,
		Description: description,
		Branch:      branch,
		StoreID:     storeID,
	}
	if account != nil {
		input.AccountID = &account.ID
	}
	ticket, err := s.tickets.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ChatID:   ticket.ChatID,
		Payload: events.TicketCreatedPayload{
			Category:    category,
			OrderNumber: orderNumber,
			Branch:      branch,
			Registered:  account != nil,
		},
	})

	subject := buildSubject(account != nil, storeTitle, orderNumber, displayName, category, ticket.ID)
	summary := buildSummary(displayName, ticket.ID, category, orderNumber, storeTitle, description)

	thread, err := s.messenger.CreateDiscussionThread(ctx, s.gatewayCfg.StaffGroupID, subject)
	if err != nil {
		// The ticket stays unbound: the next user message reports a
		// routing inconsistency and asks for a fresh intake.
		s.logger.Error("discussion thread creation failed",
			zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return nil, err
	}
	if err := s.tickets.BindThread(ctx, ticket.ID, thread.ID, subject); err != nil {
		// The thread exists but the ticket does not point at it; staff
		// replies there would never reach the user.
		s.logger.Error("thread binding failed",
			zap.Int64("ticket_id", ticket.ID), zap.Int64("thread_id", thread.ID), zap.Error(err))
		return nil, errorutil.NewRoutingInconsistent("ticket thread binding failed",
			map[string]any{"ticket_id": ticket.ID, "thread_id": thread.ID})
	}
	s.publish(ctx, events.Event{
		Type:     events.EventThreadBound,
		TicketID: ticket.ID,
		ChatID:   ticket.ChatID,
		Payload:  events.ThreadBoundPayload{ThreadID: thread.ID, Subject: subject},
	})

	if _, err := s.messenger.SendText(ctx, s.gatewayCfg.StaffGroupID, summary, gateway.SendOptions{ThreadID: thread.ID, HTML: true}); err != nil {
		s.logger.Error("ticket summary delivery failed",
			zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}

	ack := fmt.Sprintf(textAckStaffed, ticket.ID)
	if !s.schedule.Staffed(s.now()) {
		ack = fmt.Sprintf(textAckOffHours, ticket.ID)
	}
	ack += textAckSuffix
	if _, err := s.messenger.SendText(ctx, msg.ChatID, ack, gateway.SendOptions{RemoveKeyboard: true}); err != nil {
		s.logger.Error("ticket acknowledgment delivery failed",
			zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}

	return ticket, nil
}

// ForwardUserMessage routes a free-form user message into the bound staff
// thread, transparently reopening a closed ticket first. Forwarding
// failures are surfaced to the user and never mutate ticket state.
func (s *RouterService) ForwardUserMessage(ctx context.Context, msg *gateway.Message) error {
	ticket, err := s.tickets.FindLastOpenByChat(ctx, msg.ChatID)
	if err != nil {
		s.logger.Error("active ticket lookup failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
		return s.notify(ctx, msg.ChatID, textStorageFailed)
	}
	if ticket == nil {
		// No active ticket. A message after closure continues the old
		// conversation: fall back to the newest threaded ticket and let
		// the reopen branch below revive it.
		ticket, err = s.tickets.FindLastThreadedByChat(ctx, msg.ChatID)
		if err != nil {
			s.logger.Error("threaded ticket lookup failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
			return s.notify(ctx, msg.ChatID, textStorageFailed)
		}
	}
	if ticket == nil {
		return s.notify(ctx, msg.ChatID, textStartIntake)
	}

	// Closure may race the next message; heal by reopening.
	if ticket.IsClosed || !ticket.Status.Active() {
		if err := s.tickets.UpdateStatus(ctx, ticket.ID, domain.TicketStatusReopened); err != nil {
			s.logger.Error("ticket reopen failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
			return s.notify(ctx, msg.ChatID, textReopenFailed)
		}
		s.logger.Info("ticket reopened on user message", zap.Int64("ticket_id", ticket.ID))
		s.publish(ctx, events.Event{
			Type:     events.EventTicketReopened,
			TicketID: ticket.ID,
			ChatID:   ticket.ChatID,
			Payload: events.TicketStatusPayload{
				OldStatus: ticket.Status,
				NewStatus: domain.TicketStatusReopened,
				Reason:    "user_message",
			},
		})
		if ticket.HasThread() {
			if err := s.messenger.ReopenDiscussionThread(ctx, s.gatewayCfg.StaffGroupID, *ticket.ThreadID); err != nil {
				s.logger.Warn("discussion thread reopen failed",
					zap.Int64("thread_id", *ticket.ThreadID), zap.Error(err))
			}
			notice := fmt.Sprintf(textStaffReopened, ticket.ID)
			if _, err := s.messenger.SendText(ctx, s.gatewayCfg.StaffGroupID, notice, gateway.SendOptions{ThreadID: *ticket.ThreadID}); err != nil {
				s.logger.Warn("staff reopen notice failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
			}
		}
	}

	if !ticket.HasThread() {
		s.logger.Warn("ticket has no bound thread",
			zap.Int64("ticket_id", ticket.ID), zap.Int64("chat_id", msg.ChatID))
		return s.notify(ctx, msg.ChatID, textNoThreadBinding)
	}

	ref := gateway.MessageRef{ChatID: msg.ChatID, MessageID: msg.ID}
	if _, err := s.messenger.ForwardMessage(ctx, ref, *ticket.ThreadID); err != nil {
		switch {
		case gateway.IsBadRequest(err):
			s.logger.Error("forward rejected by transport",
				zap.Int64("thread_id", *ticket.ThreadID), zap.Error(err))
			return s.notify(ctx, msg.ChatID, textForwardBadReq)
		case gateway.IsForbidden(err):
			s.logger.Error("forward forbidden", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
			return s.notify(ctx, msg.ChatID, textForwardForbidden)
		default:
			s.logger.Error("forward failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
			return s.notify(ctx, msg.ChatID, textForwardFailed)
		}
	}
	return nil
}

// ForwardStaffReply copies a staff reply from a discussion thread to the
// bound user conversation.
func (s *RouterService) ForwardStaffReply(ctx context.Context, msg *gateway.Message) error {
	if msg.ReplyTo == nil || msg.ThreadID == 0 {
		return nil
	}
	ticket, err := s.tickets.FindByThread(ctx, msg.ThreadID)
	if err != nil {
		return err
	}
	if ticket == nil || ticket.ChatID == 0 {
		s.logger.Info("no ticket found for thread, skipping copy", zap.Int64("thread_id", msg.ThreadID))
		return nil
	}

	ref := gateway.MessageRef{ChatID: msg.ChatID, MessageID: msg.ID}
	if _, err := s.messenger.CopyMessage(ctx, ref, ticket.ChatID); err != nil {
		var notice string
		switch {
		case gateway.IsBotTarget(err):
			notice = fmt.Sprintf(textReplyBotTarget, ticket.ChatID)
		case gateway.IsForbidden(err):
			notice = fmt.Sprintf(textReplyBlocked, ticket.ChatID, s.gatewayCfg.BotUsername)
		default:
			s.logger.Error("staff reply copy failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
			return nil
		}
		if _, err := s.messenger.SendText(ctx, msg.ChatID, notice, gateway.SendOptions{ThreadID: msg.ThreadID}); err != nil {
			s.logger.Error("delivery notice failed", zap.Int64("thread_id", msg.ThreadID), zap.Error(err))
		}
	}
	return nil
}

// CloseTicket handles an explicit staff close inside a discussion thread:
// idempotent against an already-closed ticket, and dispatches the closure
// survey to the user.
func (s *RouterService) CloseTicket(ctx context.Context, msg *gateway.Message) error {
	if msg.ThreadID == 0 {
		return s.notifyThread(ctx, msg, textCloseOutsideThread)
	}
	ticket, err := s.tickets.FindByThread(ctx, msg.ThreadID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return s.notifyThread(ctx, msg, textNoTicketForThread)
	}
	if ticket.IsClosed {
		return s.notifyThread(ctx, msg, fmt.Sprintf(textAlreadyClosed, ticket.ID))
	}

	oldStatus := ticket.Status
	if err := s.tickets.Close(ctx, ticket.ID); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		ChatID:   ticket.ChatID,
		Payload: events.TicketStatusPayload{
			OldStatus: oldStatus,
			NewStatus: domain.TicketStatusClosed,
			Reason:    "staff_close",
		},
	})
	if err := s.notifyThread(ctx, msg, fmt.Sprintf(textClosedNotice, ticket.ID)); err != nil {
		s.logger.Error("close notice failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}

	survey := gateway.NewInlineKeyboard([]gateway.Button{
		{Label: btnSurveyYes, Data: packTicketCallback(actionClosureYes, ticket.ID)},
		{Label: btnSurveyNo, Data: packTicketCallback(actionClosureNo, ticket.ID)},
	})
	if _, err := s.messenger.SendText(ctx, ticket.ChatID, textSurveyPrompt, gateway.SendOptions{Keyboard: survey}); err != nil {
		s.logger.Error("closure survey delivery failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return s.notifyThread(ctx, msg, fmt.Sprintf(textSurveySendFailed, ticket.ChatID))
	}
	return nil
}

// GroupHello reports the group id when the bot joins a staff group.
func (s *RouterService) GroupHello(ctx context.Context, msg *gateway.Message) error {
	text := fmt.Sprintf("Hello!\nID of this group: <code>%d</code>", msg.ChatID)
	if !msg.IsForum {
		text += "\n\n⚠️ Please enable topics in the group settings. This will also change its ID."
	}
	_, err := s.messenger.SendText(ctx, msg.ChatID, text, gateway.SendOptions{HTML: true})
	return err
}

func (s *RouterService) notify(ctx context.Context, chatID int64, text string) error {
	_, err := s.messenger.SendText(ctx, chatID, text, gateway.SendOptions{})
	return err
}

func (s *RouterService) notifyThread(ctx context.Context, msg *gateway.Message, text string) error {
	_, err := s.messenger.SendText(ctx, msg.ChatID, text, gateway.SendOptions{ThreadID: msg.ThreadID})
	return err
}

func (s *RouterService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// buildSubject derives the deterministic thread title.
func buildSubject(registered bool, storeTitle string, orderNumber *string, displayName, category string, ticketID int64) string {
	if !registered {
		return fmt.Sprintf(subjectUnregistered, displayName, category)
	}
	parts := make([]string, 0, 3)
	if storeTitle != "" {
		parts = append(parts, storeTitle)
	}
	if orderNumber != nil {
		parts = append(parts, *orderNumber)
	}
	parts = append(parts, fmt.Sprintf("%d|%s", ticketID, displayName))
	return strings.Join(parts, ": ")
}

// buildSummary renders the structured staff-facing ticket card.
func buildSummary(displayName string, ticketID int64, category string, orderNumber *string, storeTitle, description string) string {
	orderDisplay := fieldUnspecified
	if orderNumber != nil {
		orderDisplay = *orderNumber
	}
	storeDisplay := fieldUnspecified
	if storeTitle != "" {
		storeDisplay = storeTitle
	}
	if description == "" {
		description = "No text"
	}
	return fmt.Sprintf(ticketSummaryTemplate, displayName, ticketID, category, orderDisplay, storeDisplay, description)
}
