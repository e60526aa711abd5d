// Package pages persists global CMS pages addressed by a unique slug.
package pages

import (
	"context"

	"github.com/privnotes/notes/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.Page, error)
	Get(ctx context.Context, id string) (*models.Page, error)
	GetBySlug(ctx context.Context, slug string) (*models.Page, error)
	// SlugTaken reports whether a page other than exceptID already uses slug.
	// Pass an empty exceptID when creating.
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	Create(ctx context.Context, page *models.Page) (*models.Page, error)
	Update(ctx context.Context, page *models.Page) (*models.Page, error)
	Delete(ctx context.Context, id string) error
}
