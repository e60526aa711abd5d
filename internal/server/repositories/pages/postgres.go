package pages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/server/models"
)

const (
	pageColumns    = `id, title, slug, body, image, image_description, created_at, updated_at`
	slugConstraint = "pages_slug_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*models.Page, error) {
	p := &models.Page{}
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Image, &p.ImageDescription, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err, slugConstraint) {
			return nil, common.ErrSlugTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages ORDER BY title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = $1`
	return scanPage(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE slug = $1`
	return scanPage(r.db.QueryRowContext(ctx, query, slug))
}

func (r *PostgresRepository) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM pages WHERE slug = $1 AND ($2 = '' OR id::text <> $2))`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, slug, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

func (r *PostgresRepository) Create(ctx context.Context, page *models.Page) (*models.Page, error) {
	query := `
		INSERT INTO pages (title, slug, body, image, image_description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + pageColumns
	return scanPage(r.db.QueryRowContext(ctx, query,
		page.Title, page.Slug, page.Body, page.Image, page.ImageDescription))
}

func (r *PostgresRepository) Update(ctx context.Context, page *models.Page) (*models.Page, error) {
	query := `
		UPDATE pages SET title = $2, slug = $3, body = $4, image = $5, image_description = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + pageColumns
	return scanPage(r.db.QueryRowContext(ctx, query,
		page.ID, page.Title, page.Slug, page.Body, page.Image, page.ImageDescription))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return dbx.ExecOne(ctx, r.db, `DELETE FROM pages WHERE id = $1`, id)
}
