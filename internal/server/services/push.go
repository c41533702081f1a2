package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/server/models"
	"github.com/narratlas/narratlas/internal/server/repositories/subscriptions"
)

// PushService manages push subscriptions. Delivery itself is handled by the
// push gateway the endpoints point at, not by this server.
type PushService struct {
	repo subscriptions.Repository
}

func NewPushService(repo subscriptions.Repository) *PushService {
	return &PushService{repo: repo}
}

func (s *PushService) Subscribe(ctx context.Context, userID string, sub *models.Subscription) error {
	if strings.TrimSpace(sub.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required", common.ErrRejected)
	}
	sub.UserID = userID
	return s.repo.Upsert(ctx, sub)
}

func (s *PushService) Unsubscribe(ctx context.Context, endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required", common.ErrRejected)
	}
	return s.repo.Delete(ctx, endpoint)
}
