// Package services implements the server's business logic on top of the
// repositories: accounts, story publishing with photo upload, and push
// subscriptions.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/server/auth"
	"github.com/narratlas/narratlas/internal/server/config"
	"github.com/narratlas/narratlas/internal/server/models"
	"github.com/narratlas/narratlas/internal/server/repositories/users"
)

// LoginResult is the identity issued on a successful login.
type LoginResult struct {
	Token  string
	UserID string
	Name   string
}

// UserService registers accounts and issues session tokens.
type UserService struct {
	repo          users.Repository
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewUserService(repo users.Repository, cfg *config.Config) *UserService {
	return &UserService{
		repo:          repo,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidity,
	}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: name, email and a password of at least 8 characters are required", common.ErrRejected)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.repo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrInternal
	}

	return &LoginResult{Token: token, UserID: user.ID, Name: user.Name}, nil
}
