package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boon-market/support-router/internal/domain"
)

// OrderRepository is a read-only projection of the external order system,
// used only to enrich ticket subjects and summaries.
type OrderRepository interface {
	RecentByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	StoreTitle(ctx context.Context, storeID string) (string, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns a Postgres-backed implementation.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

// RecentByAccount lists the account's newest orders, most recent first.
func (r *orderRepository) RecentByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 3
	}
	const query = `
        SELECT id, account_id, order_number, store_id, created_at
        FROM orders WHERE account_id=$1
        ORDER BY created_at DESC, id ASC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.AccountID,
			&order.OrderNumber,
			&order.StoreID,
			&order.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	const query = `
        SELECT id, account_id, order_number, store_id, created_at
        FROM orders WHERE order_number=$1`
	var order domain.Order
	if err := r.pool.QueryRow(ctx, query, orderNumber).Scan(
		&order.ID,
		&order.AccountID,
		&order.OrderNumber,
		&order.StoreID,
		&order.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// StoreTitle resolves the staff-facing store name; express locations are
// identified by street address.
func (r *orderRepository) StoreTitle(ctx context.Context, storeID string) (string, error) {
	const query = `SELECT id, title, kind, street FROM stores WHERE id=$1`
	var store domain.Store
	if err := r.pool.QueryRow(ctx, query, storeID).Scan(
		&store.ID,
		&store.Title,
		&store.Kind,
		&store.Street,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return store.DisplayTitle(), nil
}
