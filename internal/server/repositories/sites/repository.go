// Package sites persists the singleton site settings row.
package sites

import (
	"context"

	"github.com/privnotes/notes/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound until settings are saved once.
	Get(ctx context.Context) (*models.SiteSettings, error)
	Save(ctx context.Context, s *models.SiteSettings) (*models.SiteSettings, error)
}
