package subscriptions

import (
	"context"
	"fmt"

	"github.com/narratlas/narratlas/internal/dbx"
	"github.com/narratlas/narratlas/internal/server/models"
)

// PostgresRepository implements subscription storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (endpoint, p256dh, auth, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (endpoint)
		DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, user_id = EXCLUDED.user_id
	`
	_, err := r.db.ExecContext(ctx, query, sub.Endpoint, sub.P256dh, sub.Auth, sub.UserID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, endpoint string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE endpoint = $1`, endpoint)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	query := `
		SELECT endpoint, p256dh, auth, user_id, created_at FROM subscriptions
		WHERE user_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select subscriptions: %w", err)
	}
	defer rows.Close()

	var result []*models.Subscription
	for rows.Next() {
		var item models.Subscription
		if err := rows.Scan(&item.Endpoint, &item.P256dh, &item.Auth, &item.UserID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
