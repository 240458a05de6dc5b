package service

import (
	"context"

	"github.com/boon-market/support-router/internal/domain"
	"github.com/boon-market/support-router/internal/events"
	"github.com/boon-market/support-router/internal/gateway"
	"github.com/boon-market/support-router/internal/repository"
)

// sentMessage records one outbound text for assertions.
type sentMessage struct {
	TargetID int64
	Text     string
	Opts     gateway.SendOptions
}

type mockMessenger struct {
	SendTextFn               func(ctx context.Context, targetID int64, text string, opts gateway.SendOptions) (gateway.MessageHandle, error)
	SendDocumentFn           func(ctx context.Context, targetID int64, filePath, caption string) (gateway.MessageHandle, error)
	ForwardMessageFn         func(ctx context.Context, ref gateway.MessageRef, targetThreadID int64) (gateway.MessageHandle, error)
	CopyMessageFn            func(ctx context.Context, ref gateway.MessageRef, targetID int64) (gateway.MessageHandle, error)
	EditTextFn               func(ctx context.Context, targetID, messageID int64, text string, opts gateway.SendOptions) error
	CreateDiscussionThreadFn func(ctx context.Context, groupID int64, title string) (gateway.ThreadHandle, error)
	CloseDiscussionThreadFn  func(ctx context.Context, groupID, threadID int64) error
	ReopenDiscussionThreadFn func(ctx context.Context, groupID, threadID int64) error
	AnswerCallbackFn         func(ctx context.Context, callbackID, text string) error

	Sent      []sentMessage
	Forwarded []gateway.MessageRef
	Copied    []gateway.MessageRef
	Edited    []sentMessage
	Answered  []string
	Closed    []int64
	Reopened  []int64
}

func (m *mockMessenger) SendText(ctx context.Context, targetID int64, text string, opts gateway.SendOptions) (gateway.MessageHandle, error) {
	m.Sent = append(m.Sent, sentMessage{TargetID: targetID, Text: text, Opts: opts})
	if m.SendTextFn != nil {
		return m.SendTextFn(ctx, targetID, text, opts)
	}
	return gateway.MessageHandle{ChatID: targetID, MessageID: int64(len(m.Sent))}, nil
}

func (m *mockMessenger) SendDocument(ctx context.Context, targetID int64, filePath, caption string) (gateway.MessageHandle, error) {
	if m.SendDocumentFn != nil {
		return m.SendDocumentFn(ctx, targetID, filePath, caption)
	}
	return gateway.MessageHandle{}, nil
}

func (m *mockMessenger) ForwardMessage(ctx context.Context, ref gateway.MessageRef, targetThreadID int64) (gateway.MessageHandle, error) {
	m.Forwarded = append(m.Forwarded, ref)
	if m.ForwardMessageFn != nil {
		return m.ForwardMessageFn(ctx, ref, targetThreadID)
	}
	return gateway.MessageHandle{}, nil
}

func (m *mockMessenger) CopyMessage(ctx context.Context, ref gateway.MessageRef, targetID int64) (gateway.MessageHandle, error) {
	m.Copied = append(m.Copied, ref)
	if m.CopyMessageFn != nil {
		return m.CopyMessageFn(ctx, ref, targetID)
	}
	return gateway.MessageHandle{}, nil
}

func (m *mockMessenger) EditText(ctx context.Context, targetID, messageID int64, text string, opts gateway.SendOptions) error {
	m.Edited = append(m.Edited, sentMessage{TargetID: targetID, Text: text, Opts: opts})
	if m.EditTextFn != nil {
		return m.EditTextFn(ctx, targetID, messageID, text, opts)
	}
	return nil
}

func (m *mockMessenger) CreateDiscussionThread(ctx context.Context, groupID int64, title string) (gateway.ThreadHandle, error) {
	if m.CreateDiscussionThreadFn != nil {
		return m.CreateDiscussionThreadFn(ctx, groupID, title)
	}
	return gateway.ThreadHandle{ID: 777}, nil
}

func (m *mockMessenger) CloseDiscussionThread(ctx context.Context, groupID, threadID int64) error {
	m.Closed = append(m.Closed, threadID)
	if m.CloseDiscussionThreadFn != nil {
		return m.CloseDiscussionThreadFn(ctx, groupID, threadID)
	}
	return nil
}

func (m *mockMessenger) ReopenDiscussionThread(ctx context.Context, groupID, threadID int64) error {
	m.Reopened = append(m.Reopened, threadID)
	if m.ReopenDiscussionThreadFn != nil {
		return m.ReopenDiscussionThreadFn(ctx, groupID, threadID)
	}
	return nil
}

func (m *mockMessenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.Answered = append(m.Answered, text)
	if m.AnswerCallbackFn != nil {
		return m.AnswerCallbackFn(ctx, callbackID, text)
	}
	return nil
}

func (m *mockMessenger) lastSent() sentMessage {
	if len(m.Sent) == 0 {
		return sentMessage{}
	}
	return m.Sent[len(m.Sent)-1]
}

type mockTicketRepo struct {
	CreateFn                 func(ctx context.Context, input repository.TicketCreateInput) (*domain.Ticket, error)
	UpdateStatusFn           func(ctx context.Context, ticketID int64, status domain.TicketStatus) error
	GetByIDFn                func(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	FindByThreadFn           func(ctx context.Context, threadID int64) (*domain.Ticket, error)
	FindLastOpenByChatFn     func(ctx context.Context, chatID int64) (*domain.Ticket, error)
	FindLastThreadedByChatFn func(ctx context.Context, chatID int64) (*domain.Ticket, error)
	BindThreadFn             func(ctx context.Context, ticketID, threadID int64, subject string) error
	CloseFn                  func(ctx context.Context, ticketID int64) error
	UpdateRatingFn           func(ctx context.Context, ticketID int64, rating int) error
}

func (m *mockTicketRepo) Create(ctx context.Context, input repository.TicketCreateInput) (*domain.Ticket, error) {
	return m.CreateFn(ctx, input)
}

func (m *mockTicketRepo) UpdateStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, ticketID, status)
	}
	return nil
}

func (m *mockTicketRepo) GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return m.GetByIDFn(ctx, ticketID)
}

func (m *mockTicketRepo) FindByThread(ctx context.Context, threadID int64) (*domain.Ticket, error) {
	return m.FindByThreadFn(ctx, threadID)
}

func (m *mockTicketRepo) FindLastOpenByChat(ctx context.Context, chatID int64) (*domain.Ticket, error) {
	return m.FindLastOpenByChatFn(ctx, chatID)
}

func (m *mockTicketRepo) FindLastThreadedByChat(ctx context.Context, chatID int64) (*domain.Ticket, error) {
	if m.FindLastThreadedByChatFn != nil {
		return m.FindLastThreadedByChatFn(ctx, chatID)
	}
	return nil, nil
}

func (m *mockTicketRepo) BindThread(ctx context.Context, ticketID, threadID int64, subject string) error {
	if m.BindThreadFn != nil {
		return m.BindThreadFn(ctx, ticketID, threadID, subject)
	}
	return nil
}

func (m *mockTicketRepo) Close(ctx context.Context, ticketID int64) error {
	if m.CloseFn != nil {
		return m.CloseFn(ctx, ticketID)
	}
	return nil
}

func (m *mockTicketRepo) UpdateRating(ctx context.Context, ticketID int64, rating int) error {
	if m.UpdateRatingFn != nil {
		return m.UpdateRatingFn(ctx, ticketID, rating)
	}
	return nil
}

type mockAccountRepo struct {
	FindByPhoneFn  func(ctx context.Context, phone string) (*domain.Account, error)
	FindByChatIDFn func(ctx context.Context, chatID int64) (*domain.Account, error)
	LinkChatIDFn   func(ctx context.Context, accountID, chatID int64) error
}

func (m *mockAccountRepo) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return m.FindByPhoneFn(ctx, phone)
}

func (m *mockAccountRepo) FindByChatID(ctx context.Context, chatID int64) (*domain.Account, error) {
	return m.FindByChatIDFn(ctx, chatID)
}

func (m *mockAccountRepo) LinkChatID(ctx context.Context, accountID, chatID int64) error {
	if m.LinkChatIDFn != nil {
		return m.LinkChatIDFn(ctx, accountID, chatID)
	}
	return nil
}

type mockOrderRepo struct {
	RecentByAccountFn func(ctx context.Context, accountID int64, limit int) ([]domain.Order, error)
	GetByNumberFn     func(ctx context.Context, orderNumber string) (*domain.Order, error)
	StoreTitleFn      func(ctx context.Context, storeID string) (string, error)
}

func (m *mockOrderRepo) RecentByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Order, error) {
	if m.RecentByAccountFn != nil {
		return m.RecentByAccountFn(ctx, accountID, limit)
	}
	return nil, nil
}

func (m *mockOrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if m.GetByNumberFn != nil {
		return m.GetByNumberFn(ctx, orderNumber)
	}
	return nil, nil
}

func (m *mockOrderRepo) StoreTitle(ctx context.Context, storeID string) (string, error) {
	if m.StoreTitleFn != nil {
		return m.StoreTitleFn(ctx, storeID)
	}
	return "", nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	Events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.Events = append(d.Events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, 0, len(d.Events))
	for _, e := range d.Events {
		out = append(out, e.Type)
	}
	return out
}
