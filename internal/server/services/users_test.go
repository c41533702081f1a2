package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/server/auth"
	"github.com/narratlas/narratlas/internal/server/config"
	"github.com/narratlas/narratlas/internal/server/models"
	"github.com/narratlas/narratlas/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	users.Repository

	byEmail map[string]*models.User
	created []*models.User
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrEmailTaken
	}
	u.ID = "user-" + u.Email
	f.created = append(f.created, u)
	if f.byEmail == nil {
		f.byEmail = map[string]*models.User{}
	}
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "test-secret", TokenValidity: time.Minute}
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := NewUserService(repo, testConfig())

	user, err := svc.Register(context.Background(), "Alice", "Alice@Example.com", "longenough")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email, "email is normalized")
	require.NoError(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("longenough")))
	require.Error(t, bcrypt.CompareHashAndPassword(user.PasswordHash, []byte("wrong")))
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(&fakeUsersRepo{}, testConfig())

	_, err := svc.Register(context.Background(), "", "a@b.c", "longenough")
	require.ErrorIs(t, err, common.ErrRejected)

	_, err = svc.Register(context.Background(), "Alice", "a@b.c", "short")
	require.ErrorIs(t, err, common.ErrRejected)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := NewUserService(repo, testConfig())

	_, err := svc.Register(context.Background(), "Alice", "a@b.c", "longenough")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Another Alice", "a@b.c", "longenough")
	require.ErrorIs(t, err, common.ErrEmailTaken)
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo := &fakeUsersRepo{}
	cfg := testConfig()
	svc := NewUserService(repo, cfg)

	_, err := svc.Register(context.Background(), "Alice", "a@b.c", "longenough")
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), "A@B.C", "longenough")
	require.NoError(t, err)
	require.Equal(t, "Alice", res.Name)

	userID, err := auth.GetUserIDFromToken(res.Token, []byte(cfg.SecretKey))
	require.NoError(t, err)
	require.Equal(t, res.UserID, userID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := &fakeUsersRepo{}
	svc := NewUserService(repo, testConfig())

	_, err := svc.Register(context.Background(), "Alice", "a@b.c", "longenough")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "a@b.c", "wrongpassword")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.Login(context.Background(), "nobody@b.c", "longenough")
	require.ErrorIs(t, err, common.ErrUnauthorized, "an unknown email must not be distinguishable")
}
