// Package users declares the credential store: user accounts and their
// password hashes.
package users

import (
	"context"

	"github.com/privnotes/notes/internal/server/models"
)

// Repository is the credential store contract. Emails passed in are
// expected to be normalised already.
type Repository interface {
	// Create inserts the user and its password hash together. A duplicate
	// email yields common.ErrEmailTaken.
	Create(ctx context.Context, email, passwordHash string, doNotSell bool) (*models.User, error)

	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	PasswordHash(ctx context.Context, id string) (string, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetEmailVerified(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)

	// DeleteByID removes the user; notes, passwords and tokens go with it.
	DeleteByID(ctx context.Context, id string) error
}
