// Package stories provides PostgreSQL-backed persistence for published
// stories.
package stories

import (
	"context"

	"github.com/narratlas/narratlas/internal/server/models"
)

// ListFilter narrows and pages a story listing. Page and Size of 0 mean
// server defaults; WithLocation keeps only stories carrying coordinates.
type ListFilter struct {
	Page         int
	Size         int
	WithLocation bool
}

type Repository interface {
	// Create inserts the story and fills the generated id and timestamp.
	Create(ctx context.Context, story *models.Story) (*models.Story, error)

	// List returns stories newest first, with the author name joined in.
	List(ctx context.Context, filter ListFilter) ([]*models.Story, error)

	// GetByID returns one story, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Story, error)
}
