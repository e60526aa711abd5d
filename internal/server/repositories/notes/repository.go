// Package notes persists user-owned notes. Every query is scoped by owner.
package notes

import (
	"context"

	"github.com/privnotes/notes/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Note, error)
	Get(ctx context.Context, userID, id string) (*models.Note, error)
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	// Update overwrites name, body and image fields of the owner's note.
	Update(ctx context.Context, note *models.Note) (*models.Note, error)
	Delete(ctx context.Context, userID, id string) error
	// DeleteByUser removes all of the user's notes and returns how many.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
