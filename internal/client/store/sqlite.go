package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/narratlas/narratlas/internal/client/models"
	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/dbx"
	"github.com/narratlas/narratlas/internal/logging"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). Timestamps are stored as RFC 3339 strings in UTC.
type SQLiteRepository struct {
	db  dbx.DBTX
	log logging.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX, log logging.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: db, log: log}
}

const entryColumns = `id, title, description, photo_url, photo_file, photo_name,
	lat, lon, user_id, created_at, is_synced, synced_at`

// Put upserts an entry by id. An entry without an id is rejected and logged;
// a partially specified coordinate pair never reaches the table.
func (r *SQLiteRepository) Put(ctx context.Context, e *models.StoryEntry) error {
	if e == nil || e.ID == "" {
		r.log.Warn(ctx, "put rejected: entry has no id")
		return common.ErrMissingID
	}
	if err := e.ValidateCoordinates(); err != nil {
		r.log.Warn(ctx, "put rejected: partial coordinate pair", "id", e.ID)
		return err
	}

	var syncedAt sql.NullString
	if e.SyncedAt != nil {
		syncedAt = sql.NullString{String: e.SyncedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	query := `INSERT INTO stories (id, title, description, photo_url, photo_file, photo_name,
			lat, lon, user_id, created_at, is_synced, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			photo_url = excluded.photo_url,
			photo_file = excluded.photo_file,
			photo_name = excluded.photo_name,
			lat = excluded.lat,
			lon = excluded.lon,
			user_id = excluded.user_id,
			created_at = excluded.created_at,
			is_synced = excluded.is_synced,
			synced_at = excluded.synced_at
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.PhotoURL, e.PhotoFile, e.PhotoName,
		nullFloat(e.Lat), nullFloat(e.Lon), e.UserID,
		e.CreatedAt.UTC().Format(time.RFC3339Nano), boolToInt(e.IsSynced), syncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert story: %w", err)
	}
	return nil
}

// Get returns the entry with the given id or common.ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.StoryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM stories WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	e, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return e, nil
}

// GetAll lists every stored entry.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.StoryEntry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM stories`)
}

// GetByUser lists entries owned by userID. The empty owner never matches:
// records without a user id stay invisible to per-user queries.
func (r *SQLiteRepository) GetByUser(ctx context.Context, userID string) ([]models.StoryEntry, error) {
	if userID == "" {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+entryColumns+` FROM stories WHERE user_id = ? AND user_id <> ''`, userID)
}

// GetPending lists entries awaiting delivery.
func (r *SQLiteRepository) GetPending(ctx context.Context) ([]models.StoryEntry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM stories WHERE is_synced = 0`)
}

// Delete removes the record if present; a missing id is a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}
	return nil
}

// Clear wipes the table.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stories`); err != nil {
		return fmt.Errorf("failed to clear stories: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.StoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select stories: %w", err)
	}
	defer rows.Close()

	var result []models.StoryEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanEntry(scan func(dest ...any) error) (*models.StoryEntry, error) {
	var (
		e         models.StoryEntry
		lat, lon  sql.NullFloat64
		createdAt string
		synced    int
		syncedAt  sql.NullString
	)
	if err := scan(&e.ID, &e.Title, &e.Description, &e.PhotoURL, &e.PhotoFile, &e.PhotoName,
		&lat, &lon, &e.UserID, &createdAt, &synced, &syncedAt); err != nil {
		return nil, err
	}

	if lat.Valid {
		v := lat.Float64
		e.Lat = &v
	}
	if lon.Valid {
		v := lon.Float64
		e.Lon = &v
	}
	e.IsSynced = synced != 0

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	e.CreatedAt = ts

	if syncedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, syncedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid synced_at: %w", err)
		}
		e.SyncedAt = &ts
	}
	return &e, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
