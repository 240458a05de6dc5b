package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boon-market/support-router/internal/domain"
)

// AccountRepository reads business-system accounts and maintains the
// chat-id link. Accounts are never created here; absence of a match is a
// valid outcome and is reported as (nil, nil).
type AccountRepository interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Account, error)
	FindByChatID(ctx context.Context, chatID int64) (*domain.Account, error)
	LinkChatID(ctx context.Context, accountID, chatID int64) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	const query = `
        SELECT id, name, phone, chat_id
        FROM accounts WHERE phone=$1`
	return r.fetchSingle(ctx, query, phone)
}

func (r *accountRepository) FindByChatID(ctx context.Context, chatID int64) (*domain.Account, error) {
	const query = `
        SELECT id, name, phone, chat_id
        FROM accounts WHERE chat_id=$1`
	return r.fetchSingle(ctx, query, chatID)
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Name,
		&account.Phone,
		&account.ChatID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// LinkChatID records the conversation identity on an account. Re-linking
// the same pair is a no-op, so the operation is idempotent.
func (r *accountRepository) LinkChatID(ctx context.Context, accountID, chatID int64) error {
	const query = `
        UPDATE accounts SET chat_id=$1
        WHERE id=$2 AND (chat_id IS DISTINCT FROM $1)`
	cmd, err := r.pool.Exec(ctx, query, chatID, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Either already linked (fine) or the account is missing.
		const check = `SELECT EXISTS (SELECT 1 FROM accounts WHERE id=$1)`
		var exists bool
		if err := r.pool.QueryRow(ctx, check, accountID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrAccountNotFound
		}
	}
	return nil
}
