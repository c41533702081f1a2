package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const (
	createQ = `(?s)INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at`
	byEmail = `(?s)SELECT\s+id,\s*name,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(createQ).
		WithArgs("Alice", "alice@example.com", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("user-1", created))

	got, err := repo.Create(context.Background(), &models.User{
		Name: "Alice", Email: "alice@example.com", PasswordHash: []byte("hash"),
	})
	require.NoError(t, err)
	require.Equal(t, "user-1", got.ID)
	require.Equal(t, created, got.CreatedAt)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(createQ).
		WithArgs("Alice", "alice@example.com", []byte("hash")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{
		Name: "Alice", Email: "alice@example.com", PasswordHash: []byte("hash"),
	})
	require.ErrorIs(t, err, common.ErrEmailTaken)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(createQ).
		WithArgs("Alice", "alice@example.com", []byte("hash")).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{
		Name: "Alice", Email: "alice@example.com", PasswordHash: []byte("hash"),
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, common.ErrEmailTaken)
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
		AddRow("user-1", "Alice", "alice@example.com", []byte("hash"), time.Now())
	mock.ExpectQuery(byEmail).WithArgs("alice@example.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.ID)
	require.Equal(t, "Alice", got.Name)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmail).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, common.ErrNotFound)
}
