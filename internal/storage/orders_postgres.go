package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ OrderStore = (*PostgresOrderStore)(nil)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresOrderStore struct {
	db execer
}

func NewPostgresOrderStore(pool *pgxpool.Pool) *PostgresOrderStore {
	return &PostgresOrderStore{db: pool}
}

func (s *PostgresOrderStore) UpdatePaymentStatus(ctx context.Context, u OrderStatusUpdate) (int64, error) {
	const query = `
		UPDATE orders
		SET payment_status = $1, updated_at = $2
		WHERE payment_id = $3
	`

	tag, err := s.db.Exec(ctx, query, u.PaymentStatus, u.UpdatedAt, u.PaymentID)
	if err != nil {
		return 0, fmt.Errorf("update order payment status: %w", err)
	}
	return tag.RowsAffected(), nil
}
