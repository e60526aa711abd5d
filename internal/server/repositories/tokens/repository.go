// Package tokens stores one-time tokens for email verification, password
// reset and signup undo. Only sha256 digests are stored, one live token per
// user and purpose.
package tokens

import (
	"context"
	"time"

	"github.com/privnotes/notes/internal/server/models"
)

type Repository interface {
	// Replace drops the user's live token of this purpose and stores a new
	// digest valid for ttl. Callers run it inside a transaction.
	Replace(ctx context.Context, userID string, purpose models.TokenPurpose, hash string, ttl time.Duration) error

	// ConsumeForUser marks the user's matching live token consumed and
	// reports whether one was found.
	ConsumeForUser(ctx context.Context, userID string, purpose models.TokenPurpose, hash string) (bool, error)

	// Consume marks a matching live token consumed and returns its owner.
	// Unknown, expired or already used tokens yield common.ErrorNotFound.
	Consume(ctx context.Context, purpose models.TokenPurpose, hash string) (string, error)

	// Find returns the owner of a matching live token without consuming it.
	// Unknown, expired or already used tokens yield common.ErrorNotFound.
	Find(ctx context.Context, purpose models.TokenPurpose, hash string) (string, error)

	DeleteForUser(ctx context.Context, userID string, purpose models.TokenPurpose) error
}
