package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boon-market/support-router/internal/domain"
)

// TicketCreateInput describes the fields persisted at creation. The thread
// binding is added later, once the discussion thread exists.
type TicketCreateInput struct {
	ChatID      int64
	AccountID   *int64
	Category    string
	OrderNumber *string
	Description string
	Branch      string
	StoreID     *string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error
	GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	FindByThread(ctx context.Context, threadID int64) (*domain.Ticket, error)
	FindLastOpenByChat(ctx context.Context, chatID int64) (*domain.Ticket, error)
	FindLastThreadedByChat(ctx context.Context, chatID int64) (*domain.Ticket, error)
	BindThread(ctx context.Context, ticketID, threadID int64, subject string) error
	Close(ctx context.Context, ticketID int64) error
	UpdateRating(ctx context.Context, ticketID int64, rating int) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, chat_id, account_id, thread_id, subject, store_id, category,
               order_number, description, branch, status, rating, is_closed, created_at, closed_at`

// Create inserts a new open ticket and reserves its id in one transaction.
func (r *ticketRepository) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	const query = `
        INSERT INTO tickets (chat_id, account_id, category, order_number, description, branch, store_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,'open')
        RETURNING ` + ticketColumns

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ticket, err := scanTicket(tx.QueryRow(ctx, query,
		input.ChatID,
		input.AccountID,
		input.Category,
		input.OrderNumber,
		input.Description,
		input.Branch,
		input.StoreID,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateStatus transitions status, keeping is_closed and closed_at
// consistent with it.
func (r *ticketRepository) UpdateStatus(ctx context.Context, ticketID int64, status domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET status=$1,
            is_closed=($1='closed'),
            closed_at=CASE WHEN $1='closed' THEN NOW() ELSE NULL END
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, string(status), ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *ticketRepository) FindByThread(ctx context.Context, threadID int64) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE thread_id=$1`
	return r.fetchSingle(ctx, query, threadID)
}

// FindLastOpenByChat returns the newest open or reopened ticket for the
// conversation identity, enforcing "at most one active ticket" by always
// being re-read before a create decision.
func (r *ticketRepository) FindLastOpenByChat(ctx context.Context, chatID int64) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE chat_id=$1 AND NOT is_closed AND status IN ('open','reopened')
        ORDER BY created_at DESC
        LIMIT 1`
	return r.fetchSingle(ctx, query, chatID)
}

// FindLastThreadedByChat returns the newest ticket with a bound thread,
// closed or not. A message arriving after closure reopens this ticket
// instead of forcing the user through intake again.
func (r *ticketRepository) FindLastThreadedByChat(ctx context.Context, chatID int64) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets
        WHERE chat_id=$1 AND thread_id IS NOT NULL
        ORDER BY created_at DESC
        LIMIT 1`
	return r.fetchSingle(ctx, query, chatID)
}

// BindThread sets the discussion thread and subject exactly once. A second
// bind attempt fails; the binding is fixed for the ticket's lifetime.
func (r *ticketRepository) BindThread(ctx context.Context, ticketID, threadID int64, subject string) error {
	const query = `
        UPDATE tickets SET thread_id=$1, subject=$2
        WHERE id=$3 AND thread_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, threadID, subject, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		ticket, err := r.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return ErrTicketNotFound
		}
		return ErrThreadAlreadyBound
	}
	return nil
}

// Close marks the ticket closed and timestamps closure.
func (r *ticketRepository) Close(ctx context.Context, ticketID int64) error {
	const query = `
        UPDATE tickets SET is_closed=TRUE, status='closed', closed_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// UpdateRating records the single post-closure rating and re-confirms the
// closed state. A ticket that already carries a rating is finalized and
// rejects further ratings.
func (r *ticketRepository) UpdateRating(ctx context.Context, ticketID int64, rating int) error {
	const query = `
        UPDATE tickets SET rating=$1, is_closed=TRUE, status='closed',
            closed_at=COALESCE(closed_at, NOW())
        WHERE id=$2 AND rating IS NULL`
	cmd, err := r.pool.Exec(ctx, query, rating, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		ticket, err := r.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return ErrTicketNotFound
		}
		return ErrAlreadyRated
	}
	return nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var status string
	if err := row.Scan(
		&ticket.ID,
		&ticket.ChatID,
		&ticket.AccountID,
		&ticket.ThreadID,
		&ticket.Subject,
		&ticket.StoreID,
		&ticket.Category,
		&ticket.OrderNumber,
		&ticket.Description,
		&ticket.Branch,
		&status,
		&ticket.Rating,
		&ticket.IsClosed,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	return &ticket, nil
}
