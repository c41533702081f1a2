package stories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/narratlas/narratlas/internal/common"
	"github.com/narratlas/narratlas/internal/dbx"
	"github.com/narratlas/narratlas/internal/server/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PostgresRepository implements story storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, story *models.Story) (*models.Story, error) {
	query := `
		INSERT INTO stories (user_id, description, photo_key, photo_url, lat, lon)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		story.UserID, story.Description, story.PhotoKey, story.PhotoURL, story.Lat, story.Lon).
		Scan(&story.ID, &story.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return story, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*models.Story, error) {
	size := filter.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := `
		SELECT s.id, s.user_id, u.name, s.description, s.photo_key, s.photo_url,
		       s.lat, s.lon, s.created_at
		FROM stories s
		JOIN users u ON u.id = s.user_id
	`
	if filter.WithLocation {
		query += ` WHERE s.lat IS NOT NULL`
	}
	query += `
		ORDER BY s.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("failed to select stories: %w", err)
	}
	defer rows.Close()

	var result []*models.Story
	for rows.Next() {
		item, err := scanStory(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	query := `
		SELECT s.id, s.user_id, u.name, s.description, s.photo_key, s.photo_url,
		       s.lat, s.lon, s.created_at
		FROM stories s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1
	`
	story, err := scanStory(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return story, nil
}

func scanStory(scan func(dest ...any) error) (*models.Story, error) {
	var item models.Story
	var lat, lon sql.NullFloat64

	err := scan(&item.ID, &item.UserID, &item.AuthorName, &item.Description,
		&item.PhotoKey, &item.PhotoURL, &lat, &lon, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		item.Lat, item.Lon = &lat.Float64, &lon.Float64
	}
	return &item, nil
}
