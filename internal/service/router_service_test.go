package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boon-market/support-router/internal/config"
	"github.com/boon-market/support-router/internal/domain"
	"github.com/boon-market/support-router/internal/events"
	"github.com/boon-market/support-router/internal/gateway"
	"github.com/boon-market/support-router/internal/repository"
	"github.com/boon-market/support-router/pkg/util/errorutil"
)

const testStaffGroup = int64(-100200)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{StaffGroupID: testStaffGroup, BotUsername: "support_bot"}
}

func testSchedule() *Schedule {
	return NewSchedule(config.SupportConfig{
		BranchTimezone:  "UTC",
		StaffedHourFrom: 8,
		StaffedHourTo:   23,
	})
}

func newTestRouter(t *testing.T, tickets repository.TicketRepository, orders repository.OrderRepository, accounts repository.AccountRepository, mm *mockMessenger) (*RouterService, *recordingDispatcher) {
	t.Helper()
	dispatcher := &recordingDispatcher{}
	svc := NewRouterService(RouterDependencies{
		TicketRepo: tickets,
		OrderRepo:  orders,
		Directory:  NewDirectoryService(accounts),
		Messenger:  mm,
		Dispatcher: dispatcher,
		GatewayCfg: testGatewayConfig(),
		Schedule:   testSchedule(),
		Logger:     zap.NewNop(),
	})
	svc.now = func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc, dispatcher
}

func TestCreateTicketRegisteredAccount(t *testing.T) {
	var boundThread int64
	var boundSubject string
	tickets := &mockTicketRepo{
		CreateFn: func(ctx context.Context, input repository.TicketCreateInput) (*domain.Ticket, error) {
			assert.Equal(t, "проблемы с заказом", input.Category)
			assert.Equal(t, "Россия", input.Branch)
			require.NotNil(t, input.OrderNumber)
			assert.Equal(t, "A-123", *input.OrderNumber)
			return &domain.Ticket{ID: 42, ChatID: input.ChatID, Category: input.Category, Status: domain.TicketStatusOpen}, nil
		},
		BindThreadFn: func(ctx context.Context, ticketID, threadID int64, subject string) error {
			assert.Equal(t, int64(42), ticketID)
			boundThread = threadID
			boundSubject = subject
			return nil
		},
	}
	orders := &mockOrderRepo{
		GetByNumberFn: func(ctx context.Context, orderNumber string) (*domain.Order, error) {
			return &domain.Order{OrderNumber: strPtr(orderNumber), StoreID: strPtr("s1")}, nil
		},
		StoreTitleFn: func(ctx context.Context, storeID string) (string, error) {
			return "Boon Central", nil
		},
	}
	accounts := &mockAccountRepo{
		FindByChatIDFn: func(ctx context.Context, chatID int64) (*domain.Account, error) {
			return &domain.Account{ID: 7, Name: strPtr("Иван"), Phone: strPtr("79991234567")}, nil
		},
	}
	mm := &mockMessenger{}

	svc, dispatcher := newTestRouter(t, tickets, orders, accounts, mm)
	msg := &gateway.Message{ID: 10, ChatID: 555, ChatType: gateway.ChatTypePrivate, From: gateway.User{ID: 555, FullName: "I. Petrov"}, Text: "сломалось"}

	ticket, err := svc.CreateTicket(context.Background(), msg, "проблемы с заказом", "A-123")
	require.NoError(t, err)
	assert.Equal(t, int64(42), ticket.ID)

	assert.Equal(t, int64(777), boundThread)
	assert.Equal(t, "Boon Central: A-123: 42|Иван", boundSubject)

	// Staff summary lands in the bound thread as HTML.
	require.Len(t, mm.Sent, 2)
	summary := mm.Sent[0]
	assert.Equal(t, testStaffGroup, summary.TargetID)
	assert.Equal(t, int64(777), summary.Opts.ThreadID)
	assert.True(t, summary.Opts.HTML)
	assert.Contains(t, summary.Text, "№42")
	assert.Contains(t, summary.Text, "сломалось")

	// Staffed-window acknowledgment removes the reply keyboard.
	ack := mm.Sent[1]
	assert.Equal(t, int64(555), ack.TargetID)
	assert.Contains(t, ack.Text, "№42")
	assert.True(t, ack.Opts.RemoveKeyboard)
	assert.NotContains(t, ack.Text, "График работы")

	assert.Equal(t, []events.EventType{events.EventTicketCreated, events.EventThreadBound}, dispatcher.types())
}

func TestCreateTicketCaptionlessMedia(t *testing.T) {
	var persisted string
	tickets := &mockTicketRepo{
		CreateFn: func(ctx context.Context, input repository.TicketCreateInput) (*domain.Ticket, error) {
			persisted = input.Description
			return &domain.Ticket{ID: 42, ChatID: input.ChatID, Category: input.Category}, nil
		},
	}
	accounts := &mockAccountRepo{
		FindByChatIDFn: func(ctx context.Context, chatID int64) (*domain.Account, error) { return nil, nil },
	}
	mm := &mockMessenger{}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, accounts, mm)
	// A photo without a caption has neither text nor caption.
	msg := &gateway.Message{ID: 10, ChatID: 555, ChatType: gateway.ChatTypePrivate, From: gateway.User{ID: 555, FullName: "Гость"}}

	_, err := svc.CreateTicket(context.Background(), msg, categoryOther, orderUnspecified)
	require.NoError(t, err)
	assert.Equal(t, descriptionNone, persisted)
	assert.Contains(t, mm.Sent[0].Text, descriptionNone)
}

func TestCreateTicketOffHoursAck(t *testing.T) {
	tickets := &mockTicketRepo{
		CreateFn: func(ctx context.Context, input repository.TicketCreateInput) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 9, ChatID: input.ChatID}, nil
		},
	}
	accounts := &mockAccountRepo{
		FindByChatIDFn: func(ctx context.Context, chatID int64) (*domain.Account, error) { return nil, nil },
	}
	mm := &mockMessenger{}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, accounts, mm)
	svc.now = func() time.Time { return time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC) }

	msg := &gateway.Message{ChatID: 1, ChatType: gateway.ChatTypePrivate, From: gateway.User{FullName: "Гость"}, Text: "помогите"}
	_, err := svc.CreateTicket(context.Background(), msg, categoryOther, orderUnspecified)
	require.NoError(t, err)

	ack := mm.lastSent()
	assert.Contains(t, ack.Text, "График работы")
}

func TestCreateTicketUnregisteredSubject(t *testing.T) {
	var subject string
	tickets := &mockTicketRepo{
		CreateFn: func(ctx context.Context, input repository.TicketCreateInput) (*domain.Ticket, error) {
			assert.Nil(t, input.AccountID)
			assert.Equal(t, "Неизвестно", input.Branch)
			return &domain.Ticket{ID: 5, ChatID: input.ChatID}, nil
		},
		BindThreadFn: func(ctx context.Context, ticketID, threadID int64, s string) error {
			subject = s
			return nil
		},
	}
	accounts := &mockAccountRepo{
		FindByChatIDFn: func(ctx context.Context, chatID int64) (*domain.Account, error) { return nil, nil },
	}
	mm := &mockMessenger{}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, accounts, mm)
	msg := &gateway.Message{ChatID: 2, ChatType: gateway.ChatTypePrivate, From: gateway.User{FullName: "Мария К."}, Text: "вопрос"}

	_, err := svc.CreateTicket(context.Background(), msg, categoryOther, orderUnspecified)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(subjectUnregistered, "Мария К.", categoryOther), subject)
}

func TestCreateTicketThreadFailure(t *testing.T) {
	bindCalled := false
	tickets := &mockTicketRepo{
		CreateFn: func(ctx context.Context, input repository.TicketCreateInput) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 3, ChatID: input.ChatID}, nil
		},
		BindThreadFn: func(ctx context.Context, ticketID, threadID int64, subject string) error {
			bindCalled = true
			return nil
		},
	}
	accounts := &mockAccountRepo{
		FindByChatIDFn: func(ctx context.Context, chatID int64) (*domain.Account, error) { return nil, nil },
	}
	mm := &mockMessenger{
		CreateDiscussionThreadFn: func(ctx context.Context, groupID int64, title string) (gateway.ThreadHandle, error) {
			return gateway.ThreadHandle{}, errors.New("group unavailable")
		},
	}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, accounts, mm)
	msg := &gateway.Message{ChatID: 4, ChatType: gateway.ChatTypePrivate, Text: "текст"}

	_, err := svc.CreateTicket(context.Background(), msg, categoryOther, orderUnspecified)
	require.Error(t, err)
	assert.False(t, bindCalled)
}

func TestCreateTicketBindFailureIsRoutingInconsistent(t *testing.T) {
	tickets := &mockTicketRepo{
		CreateFn: func(ctx context.Context, input repository.TicketCreateInput) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 3, ChatID: input.ChatID}, nil
		},
		BindThreadFn: func(ctx context.Context, ticketID, threadID int64, subject string) error {
			return errors.New("connection reset")
		},
	}
	accounts := &mockAccountRepo{
		FindByChatIDFn: func(ctx context.Context, chatID int64) (*domain.Account, error) { return nil, nil },
	}
	mm := &mockMessenger{}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, accounts, mm)
	msg := &gateway.Message{ChatID: 4, ChatType: gateway.ChatTypePrivate, Text: "текст"}

	_, err := svc.CreateTicket(context.Background(), msg, categoryOther, orderUnspecified)
	require.Error(t, err)
	assert.True(t, errorutil.IsCode(err, "ROUTING_INCONSISTENT"))
}

func TestForwardUserMessageNoTicket(t *testing.T) {
	tickets := &mockTicketRepo{
		FindLastOpenByChatFn: func(ctx context.Context, chatID int64) (*domain.Ticket, error) { return nil, nil },
	}
	accounts := &mockAccountRepo{}
	mm := &mockMessenger{}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, accounts, mm)
	err := svc.ForwardUserMessage(context.Background(), &gateway.Message{ChatID: 5, ChatType: gateway.ChatTypePrivate})
	require.NoError(t, err)
	assert.Equal(t, textStartIntake, mm.lastSent().Text)
	assert.Empty(t, mm.Forwarded)
}

func TestForwardUserMessageReopensClosedTicket(t *testing.T) {
	var reopened []domain.TicketStatus
	tickets := &mockTicketRepo{
		FindLastOpenByChatFn: func(ctx context.Context, chatID int64) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 42, ChatID: chatID, ThreadID: int64Ptr(7), Status: domain.TicketStatusClosed, IsClosed: true}, nil
		},
		UpdateStatusFn: func(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
			reopened = append(reopened, status)
			return nil
		},
	}
	mm := &mockMessenger{}

	svc, dispatcher := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
	msg := &gateway.Message{ID: 88, ChatID: 5, ChatType: gateway.ChatTypePrivate, Text: "все еще не работает"}

	require.NoError(t, svc.ForwardUserMessage(context.Background(), msg))

	assert.Equal(t, []domain.TicketStatus{domain.TicketStatusReopened}, reopened)
	require.Len(t, mm.Forwarded, 1)
	assert.Equal(t, int64(88), mm.Forwarded[0].MessageID)
	assert.Equal(t, []int64{7}, mm.Reopened)
	assert.Contains(t, dispatcher.types(), events.EventTicketReopened)
}

func TestForwardUserMessageReopensAfterCommittedClose(t *testing.T) {
	// Once a close has committed the ticket is no longer "open", so the
	// active lookup yields nothing; the threaded fallback must revive it.
	var reopened []domain.TicketStatus
	tickets := &mockTicketRepo{
		FindLastOpenByChatFn: func(ctx context.Context, chatID int64) (*domain.Ticket, error) { return nil, nil },
		FindLastThreadedByChatFn: func(ctx context.Context, chatID int64) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 42, ChatID: chatID, ThreadID: int64Ptr(7), Status: domain.TicketStatusClosed, IsClosed: true}, nil
		},
		UpdateStatusFn: func(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
			reopened = append(reopened, status)
			return nil
		},
	}
	mm := &mockMessenger{}

	svc, dispatcher := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
	msg := &gateway.Message{ID: 89, ChatID: 5, ChatType: gateway.ChatTypePrivate, Text: "проблема вернулась"}

	require.NoError(t, svc.ForwardUserMessage(context.Background(), msg))

	assert.Equal(t, []domain.TicketStatus{domain.TicketStatusReopened}, reopened)
	require.Len(t, mm.Forwarded, 1)
	assert.Equal(t, int64(89), mm.Forwarded[0].MessageID)
	assert.Equal(t, []int64{7}, mm.Reopened)
	assert.Contains(t, dispatcher.types(), events.EventTicketReopened)
}

func TestForwardUserMessageMissingThreadBinding(t *testing.T) {
	tickets := &mockTicketRepo{
		FindLastOpenByChatFn: func(ctx context.Context, chatID int64) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 42, ChatID: chatID, Status: domain.TicketStatusOpen}, nil
		},
	}
	mm := &mockMessenger{}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
	require.NoError(t, svc.ForwardUserMessage(context.Background(), &gateway.Message{ChatID: 5, ChatType: gateway.ChatTypePrivate}))
	assert.Equal(t, textNoThreadBinding, mm.lastSent().Text)
	assert.Empty(t, mm.Forwarded)
}

func TestForwardUserMessageForwardFailureClassification(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected string
	}{
		{"bad request", fmt.Errorf("thread gone: %w", gateway.ErrBadRequest), textForwardBadReq},
		{"forbidden", fmt.Errorf("blocked: %w", gateway.ErrForbidden), textForwardForbidden},
		{"other", errors.New("io timeout"), textForwardFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			statusChanged := false
			tickets := &mockTicketRepo{
				FindLastOpenByChatFn: func(ctx context.Context, chatID int64) (*domain.Ticket, error) {
					return &domain.Ticket{ID: 1, ChatID: chatID, ThreadID: int64Ptr(7), Status: domain.TicketStatusOpen}, nil
				},
				UpdateStatusFn: func(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
					statusChanged = true
					return nil
				},
			}
			mm := &mockMessenger{
				ForwardMessageFn: func(ctx context.Context, ref gateway.MessageRef, targetThreadID int64) (gateway.MessageHandle, error) {
					return gateway.MessageHandle{}, tc.err
				},
			}
			svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
			require.NoError(t, svc.ForwardUserMessage(context.Background(), &gateway.Message{ChatID: 5, ChatType: gateway.ChatTypePrivate}))
			assert.Equal(t, tc.expected, mm.lastSent().Text)
			assert.False(t, statusChanged, "forwarding failures must not mutate ticket state")
		})
	}
}

func TestForwardStaffReplyCopiesToUser(t *testing.T) {
	tickets := &mockTicketRepo{
		FindByThreadFn: func(ctx context.Context, threadID int64) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 42, ChatID: 555, ThreadID: int64Ptr(threadID)}, nil
		},
	}
	mm := &mockMessenger{}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
	msg := &gateway.Message{ID: 12, ChatID: testStaffGroup, ThreadID: 7, ReplyTo: &gateway.Message{ID: 1}, Text: "уже чиним"}
	require.NoError(t, svc.ForwardStaffReply(context.Background(), msg))
	require.Len(t, mm.Copied, 1)
	assert.Equal(t, int64(12), mm.Copied[0].MessageID)
}

func TestForwardStaffReplyDeliveryNotices(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		fragment string
	}{
		{"bot target", fmt.Errorf("copy: %w", gateway.ErrBotTarget), "Боты не могут"},
		{"blocked", fmt.Errorf("copy: %w", gateway.ErrForbidden), "@support_bot"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tickets := &mockTicketRepo{
				FindByThreadFn: func(ctx context.Context, threadID int64) (*domain.Ticket, error) {
					return &domain.Ticket{ID: 42, ChatID: 555, ThreadID: int64Ptr(threadID)}, nil
				},
			}
			mm := &mockMessenger{
				CopyMessageFn: func(ctx context.Context, ref gateway.MessageRef, targetID int64) (gateway.MessageHandle, error) {
					return gateway.MessageHandle{}, tc.err
				},
			}
			svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
			msg := &gateway.Message{ID: 12, ChatID: testStaffGroup, ThreadID: 7, ReplyTo: &gateway.Message{ID: 1}}
			require.NoError(t, svc.ForwardStaffReply(context.Background(), msg))

			notice := mm.lastSent()
			assert.Equal(t, testStaffGroup, notice.TargetID)
			assert.Equal(t, int64(7), notice.Opts.ThreadID)
			assert.Contains(t, notice.Text, tc.fragment)
		})
	}
}

func TestForwardStaffReplyUnknownThreadSkips(t *testing.T) {
	tickets := &mockTicketRepo{
		FindByThreadFn: func(ctx context.Context, threadID int64) (*domain.Ticket, error) { return nil, nil },
	}
	mm := &mockMessenger{}

	svc, _ := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
	msg := &gateway.Message{ID: 12, ChatID: testStaffGroup, ThreadID: 7, ReplyTo: &gateway.Message{ID: 1}}
	require.NoError(t, svc.ForwardStaffReply(context.Background(), msg))
	assert.Empty(t, mm.Copied)
	assert.Empty(t, mm.Sent)
}

func TestCloseTicketSendsSurvey(t *testing.T) {
	closed := false
	tickets := &mockTicketRepo{
		FindByThreadFn: func(ctx context.Context, threadID int64) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 42, ChatID: 555, ThreadID: int64Ptr(threadID), Status: domain.TicketStatusOpen}, nil
		},
		CloseFn: func(ctx context.Context, ticketID int64) error {
			closed = true
			return nil
		},
	}
	mm := &mockMessenger{}

	svc, dispatcher := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
	msg := &gateway.Message{ChatID: testStaffGroup, ThreadID: 7, Text: "/close"}
	require.NoError(t, svc.CloseTicket(context.Background(), msg))

	assert.True(t, closed)
	assert.Contains(t, dispatcher.types(), events.EventTicketClosed)

	survey := mm.lastSent()
	assert.Equal(t, int64(555), survey.TargetID)
	assert.Equal(t, textSurveyPrompt, survey.Text)
	require.NotNil(t, survey.Opts.Keyboard)
	require.Len(t, survey.Opts.Keyboard.Rows, 1)
	assert.Equal(t, "t:closure_yes:42", survey.Opts.Keyboard.Rows[0][0].Data)
	assert.Equal(t, "t:closure_no:42", survey.Opts.Keyboard.Rows[0][1].Data)
}

func TestCloseTicketAlreadyClosed(t *testing.T) {
	closeCalls := 0
	tickets := &mockTicketRepo{
		FindByThreadFn: func(ctx context.Context, threadID int64) (*domain.Ticket, error) {
			return &domain.Ticket{ID: 42, ChatID: 555, ThreadID: int64Ptr(threadID), Status: domain.TicketStatusClosed, IsClosed: true}, nil
		},
		CloseFn: func(ctx context.Context, ticketID int64) error {
			closeCalls++
			return nil
		},
	}
	mm := &mockMessenger{}

	svc, dispatcher := newTestRouter(t, tickets, &mockOrderRepo{}, &mockAccountRepo{}, mm)
	msg := &gateway.Message{ChatID: testStaffGroup, ThreadID: 7, Text: "/close"}
	require.NoError(t, svc.CloseTicket(context.Background(), msg))

	assert.Zero(t, closeCalls)
	assert.Empty(t, dispatcher.Events)
	assert.Contains(t, mm.lastSent().Text, "уже закрыт")
}

func TestCloseTicketOutsideThread(t *testing.T) {
	mm := &mockMessenger{}
	svc, _ := newTestRouter(t, &mockTicketRepo{}, &mockOrderRepo{}, &mockAccountRepo{}, mm)
	msg := &gateway.Message{ChatID: testStaffGroup, Text: "/close"}
	require.NoError(t, svc.CloseTicket(context.Background(), msg))
	assert.Equal(t, textCloseOutsideThread, mm.lastSent().Text)
}
