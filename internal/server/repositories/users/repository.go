// Package users provides PostgreSQL-backed persistence for accounts.
package users

import (
	"context"

	"github.com/narratlas/narratlas/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills the generated id. A duplicate email
	// yields common.ErrEmailTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with the given email, or common.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
