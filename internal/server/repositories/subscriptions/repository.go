// Package subscriptions provides PostgreSQL-backed persistence for push
// subscriptions.
package subscriptions

import (
	"context"

	"github.com/narratlas/narratlas/internal/server/models"
)

type Repository interface {
	// Upsert registers or refreshes a subscription keyed by its endpoint.
	Upsert(ctx context.Context, sub *models.Subscription) error

	// Delete removes a subscription. A missing endpoint is not an error.
	Delete(ctx context.Context, endpoint string) error

	// ListByUser returns the user's registered endpoints.
	ListByUser(ctx context.Context, userID string) ([]*models.Subscription, error)
}
