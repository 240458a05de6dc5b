package repository

import (
	"context"

	"github.com/boon-market/support-router/internal/domain"
)

// WithRetry wraps the repositories with the bounded retry policy. Services
// only ever see the wrapped interfaces.

type retryingAccountRepository struct {
	inner  AccountRepository
	policy RetryPolicy
}

// NewRetryingAccountRepository decorates an account repository.
func NewRetryingAccountRepository(inner AccountRepository, policy RetryPolicy) AccountRepository {
	return &retryingAccountRepository{inner: inner, policy: policy}
}

func (r *retryingAccountRepository) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (*domain.Account, error) {
		return r.inner.FindByPhone(ctx, phone)
	})
}

func (r *retryingAccountRepository) FindByChatID(ctx context.Context, chatID int64) (*domain.Account, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (*domain.Account, error) {
		return r.inner.FindByChatID(ctx, chatID)
	})
}

func (r *retryingAccountRepository) LinkChatID(ctx context.Context, accountID, chatID int64) error {
	return retry(ctx, r.policy, func(ctx context.Context) error {
		return r.inner.LinkChatID(ctx, accountID, chatID)
	})
}

type retryingTicketRepository struct {
	inner  TicketRepository
	policy RetryPolicy
}

// NewRetryingTicketRepository decorates a ticket repository.
func NewRetryingTicketRepository(inner TicketRepository, policy RetryPolicy) TicketRepository {
	return &retryingTicketRepository{inner: inner, policy: policy}
}

func (r *retryingTicketRepository) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (*domain.Ticket, error) {
		return r.inner.Create(ctx, input)
	})
}

func (r *retryingTicketRepository) UpdateStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
	return retry(ctx, r.policy, func(ctx context.Context) error {
		return r.inner.UpdateStatus(ctx, ticketID, status)
	})
}

func (r *retryingTicketRepository) GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (*domain.Ticket, error) {
		return r.inner.GetByID(ctx, ticketID)
	})
}

func (r *retryingTicketRepository) FindByThread(ctx context.Context, threadID int64) (*domain.Ticket, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (*domain.Ticket, error) {
		return r.inner.FindByThread(ctx, threadID)
	})
}

func (r *retryingTicketRepository) FindLastOpenByChat(ctx context.Context, chatID int64) (*domain.Ticket, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (*domain.Ticket, error) {
		return r.inner.FindLastOpenByChat(ctx, chatID)
	})
}

func (r *retryingTicketRepository) FindLastThreadedByChat(ctx context.Context, chatID int64) (*domain.Ticket, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (*domain.Ticket, error) {
		return r.inner.FindLastThreadedByChat(ctx, chatID)
	})
}

func (r *retryingTicketRepository) BindThread(ctx context.Context, ticketID, threadID int64, subject string) error {
	return retry(ctx, r.policy, func(ctx context.Context) error {
		return r.inner.BindThread(ctx, ticketID, threadID, subject)
	})
}

func (r *retryingTicketRepository) Close(ctx context.Context, ticketID int64) error {
	return retry(ctx, r.policy, func(ctx context.Context) error {
		return r.inner.Close(ctx, ticketID)
	})
}

func (r *retryingTicketRepository) UpdateRating(ctx context.Context, ticketID int64, rating int) error {
	return retry(ctx, r.policy, func(ctx context.Context) error {
		return r.inner.UpdateRating(ctx, ticketID, rating)
	})
}

type retryingOrderRepository struct {
	inner  OrderRepository
	policy RetryPolicy
}

// NewRetryingOrderRepository decorates an order repository.
func NewRetryingOrderRepository(inner OrderRepository, policy RetryPolicy) OrderRepository {
	return &retryingOrderRepository{inner: inner, policy: policy}
}

func (r *retryingOrderRepository) RecentByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Order, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) ([]domain.Order, error) {
		return r.inner.RecentByAccount(ctx, accountID, limit)
	})
}

func (r *retryingOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (*domain.Order, error) {
		return r.inner.GetByNumber(ctx, orderNumber)
	})
}

func (r *retryingOrderRepository) StoreTitle(ctx context.Context, storeID string) (string, error) {
	return retryValue(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.inner.StoreTitle(ctx, storeID)
	})
}
