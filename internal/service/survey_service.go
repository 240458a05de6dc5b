package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boon-market/support-router/internal/config"
	"github.com/boon-market/support-router/internal/domain"
	"github.com/boon-market/support-router/internal/events"
	"github.com/boon-market/support-router/internal/gateway"
	"github.com/boon-market/support-router/internal/repository"
)

// SurveyService handles the closure survey and the 1-5 service rating that
// follows a confirmed closure.
type SurveyService struct {
	tickets    repository.TicketRepository
	messenger  gateway.Messenger
	dispatcher events.Dispatcher
	gatewayCfg config.GatewayConfig
	schedule   *Schedule
	logger     *zap.Logger
	now        func() time.Time
}

// SurveyDependencies bundles collaborators for the survey flow.
type SurveyDependencies struct {
	TicketRepo repository.TicketRepository
	Messenger  gateway.Messenger
	Dispatcher events.Dispatcher
	GatewayCfg config.GatewayConfig
	Schedule   *Schedule
	Logger     *zap.Logger
}

// NewSurveyService constructs the service.
func NewSurveyService(deps SurveyDependencies) *SurveyService {
	return &SurveyService{
		tickets:    deps.TicketRepo,
		messenger:  deps.Messenger,
		dispatcher: deps.Dispatcher,
		gatewayCfg: deps.GatewayCfg,
		schedule:   deps.Schedule,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// HandleCallback dispatches a survey or rating button press.
func (s *SurveyService) HandleCallback(ctx context.Context, cb *gateway.Callback) error {
	if action, ticketID, err := unpackTicketCallback(cb.Data); err == nil {
		switch action {
		case actionClosureYes:
			return s.handleClosureYes(ctx, cb, ticketID)
		case actionClosureNo:
			return s.handleClosureNo(ctx, cb, ticketID)
		}
	}
	if ticketID, rating, err := unpackRateCallback(cb.Data); err == nil {
		return s.handleRating(ctx, cb, ticketID, rating)
	}
	s.logger.Warn("unrecognized callback payload", zap.String("data", cb.Data))
	return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackBadData)
}

// handleClosureYes confirms the closure and asks for a rating. The survey
// message is edited first: a second press of the same button fails that
// edit and is answered without repeating the staff-side effects.
func (s *SurveyService) handleClosureYes(ctx context.Context, cb *gateway.Callback, ticketID int64) error {
	if cb.Message == nil {
		return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackBadData)
	}

	prompt := fmt.Sprintf(textRatingPrompt, ticketID)
	err := s.messenger.EditText(ctx, cb.Message.ChatID, cb.Message.ID, prompt,
		gateway.SendOptions{Keyboard: ratingKeyboard(ticketID)})
	if gateway.IsBadRequest(err) {
		return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackClosed)
	}
	if err != nil {
		return err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackNoTicket)
	}

	// /close already closed the ticket; re-close only after a reopen
	// slipped in between.
	if !ticket.IsClosed {
		oldStatus := ticket.Status
		if err := s.tickets.Close(ctx, ticketID); err != nil {
			return err
		}
		s.publish(ctx, events.Event{
			Type:     events.EventTicketClosed,
			TicketID: ticketID,
			ChatID:   ticket.ChatID,
			Payload: events.TicketStatusPayload{
				OldStatus: oldStatus,
				NewStatus: domain.TicketStatusClosed,
				Reason:    "survey_confirmed",
			},
		})
	}

	if ticket.HasThread() {
		notice := fmt.Sprintf(textStaffClosedConfirmed, ticketID)
		if _, err := s.messenger.SendText(ctx, s.gatewayCfg.StaffGroupID, notice, gateway.SendOptions{ThreadID: *ticket.ThreadID}); err != nil {
			s.logger.Error("staff closure notice failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
		if err := s.messenger.CloseDiscussionThread(ctx, s.gatewayCfg.StaffGroupID, *ticket.ThreadID); err != nil {
			s.logger.Error("discussion thread close failed",
				zap.Int64("thread_id", *ticket.ThreadID), zap.Error(err))
		}
	}

	return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackClosed)
}

// handleClosureNo reopens the ticket and keeps the thread active.
func (s *SurveyService) handleClosureNo(ctx context.Context, cb *gateway.Callback, ticketID int64) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackNoTicket)
	}
	if ticket.Status == domain.TicketStatusReopened && !ticket.IsClosed {
		// Second press of the same button.
		return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackReopened)
	}

	oldStatus := ticket.Status
	if err := s.tickets.UpdateStatus(ctx, ticketID, domain.TicketStatusReopened); err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticketID,
		ChatID:   ticket.ChatID,
		Payload: events.TicketStatusPayload{
			OldStatus: oldStatus,
			NewStatus: domain.TicketStatusReopened,
			Reason:    "survey_declined",
		},
	})

	text := fmt.Sprintf(textReopenStaffed, ticketID)
	if !s.schedule.Staffed(s.now()) {
		text = fmt.Sprintf(textReopenOffHours, ticketID)
	}
	if cb.Message != nil {
		if err := s.messenger.EditText(ctx, cb.Message.ChatID, cb.Message.ID, text, gateway.SendOptions{}); err != nil && !gateway.IsBadRequest(err) {
			s.logger.Error("survey message edit failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
	}

	if ticket.HasThread() {
		notice := fmt.Sprintf(textStaffReopened, ticketID)
		if _, err := s.messenger.SendText(ctx, s.gatewayCfg.StaffGroupID, notice, gateway.SendOptions{ThreadID: *ticket.ThreadID}); err != nil {
			s.logger.Error("staff reopen notice failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
	}

	return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackReopened)
}

// handleRating records the 1-5 service rating. A ticket holds at most one
// rating; repeats are rejected.
func (s *SurveyService) handleRating(ctx context.Context, cb *gateway.Callback, ticketID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackBadData)
	}

	err := s.tickets.UpdateRating(ctx, ticketID, rating)
	switch {
	case errors.Is(err, repository.ErrAlreadyRated):
		return s.messenger.AnswerCallback(ctx, cb.ID, textAlreadyRated)
	case errors.Is(err, repository.ErrTicketNotFound):
		return s.messenger.AnswerCallback(ctx, cb.ID, textCallbackNoTicket)
	case err != nil:
		return err
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		s.logger.Error("ticket lookup after rating failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
	}
	chatID := int64(0)
	if ticket != nil {
		chatID = ticket.ChatID
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketRated,
		TicketID: ticketID,
		ChatID:   chatID,
		Payload:  events.TicketRatedPayload{Rating: rating},
	})

	if cb.Message != nil {
		thanks := fmt.Sprintf(textRatingThanks, ticketID)
		if err := s.messenger.EditText(ctx, cb.Message.ChatID, cb.Message.ID, thanks, gateway.SendOptions{}); err != nil && !gateway.IsBadRequest(err) {
			s.logger.Error("rating message edit failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
	}

	if ticket != nil && ticket.HasThread() {
		notice := fmt.Sprintf(textStaffRated, ticketID, rating)
		if _, err := s.messenger.SendText(ctx, s.gatewayCfg.StaffGroupID, notice, gateway.SendOptions{ThreadID: *ticket.ThreadID}); err != nil {
			s.logger.Error("staff rating notice failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
	}

	return s.messenger.AnswerCallback(ctx, cb.ID, "")
}

func (s *SurveyService) publish(ctx context.Context, event events.Event) {
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

func ratingKeyboard(ticketID int64) *gateway.Keyboard {
	row := make([]gateway.Button, 0, 5)
	for n := 1; n <= 5; n++ {
		row = append(row, gateway.Button{
			Label: strconv.Itoa(n),
			Data:  packRateCallback(ticketID, n),
		})
	}
	return gateway.NewInlineKeyboard(row)
}
