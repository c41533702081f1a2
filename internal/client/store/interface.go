package store

import (
	"context"

	"github.com/narratlas/narratlas/internal/client/models"
)

// Repository is the Local Entry Store: durable, keyed persistence of story
// entries surviving restarts. One record per id; saved favorites and
// pending-offline entries share the same record space.
type Repository interface {
	// Get returns the entry with the given id, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.StoryEntry, error)

	// GetAll returns every stored entry. Order is not significant.
	GetAll(ctx context.Context) ([]models.StoryEntry, error)

	// GetByUser returns entries whose UserID matches exactly. Entries
	// without an owner are never returned, for any caller.
	GetByUser(ctx context.Context, userID string) ([]models.StoryEntry, error)

	// GetPending returns entries with IsSynced == false.
	GetPending(ctx context.Context) ([]models.StoryEntry, error)

	// Put overwrites the record sharing the entry's id, creating it if
	// needed. An entry without an id is rejected with common.ErrMissingID
	// (logged, nothing written). The write is durable when Put returns.
	Put(ctx context.Context, entry *models.StoryEntry) error

	// Delete removes the record if present. A missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes all records. Used only for account-switch or reset.
	Clear(ctx context.Context) error
}
