package sites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/server/models"
)

const siteColumns = `name, tagline, lede, logo, logo_description, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanSite(row *sql.Row) (*models.SiteSettings, error) {
	s := &models.SiteSettings{}
	if err := row.Scan(&s.Name, &s.Tagline, &s.Lede, &s.Logo, &s.LogoDescription, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Get(ctx context.Context) (*models.SiteSettings, error) {
	query := `SELECT ` + siteColumns + ` FROM site_settings WHERE id = 1`
	return scanSite(r.db.QueryRowContext(ctx, query))
}

func (r *PostgresRepository) Save(ctx context.Context, s *models.SiteSettings) (*models.SiteSettings, error) {
	query := `
		INSERT INTO site_settings (id, name, tagline, lede, logo, logo_description)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			tagline = EXCLUDED.tagline,
			lede = EXCLUDED.lede,
			logo = EXCLUDED.logo,
			logo_description = EXCLUDED.logo_description,
			updated_at = now()
		RETURNING ` + siteColumns
	return scanSite(r.db.QueryRowContext(ctx, query, s.Name, s.Tagline, s.Lede, s.Logo, s.LogoDescription))
}
