// Package seed fills an empty database with a demo account.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/cryptox"
	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/repositories/repomanager"
)

// DefaultEmail and DefaultPassword are used when the operator gives none.
const (
	DefaultEmail    = "demo@notes.local"
	DefaultPassword = "letmeinplease"
)

var ErrInvalidInput = errors.New("invalid seed credentials")

// DemoNotes are created for the seeded user.
var DemoNotes = []models.Note{
	{Name: "Blue", Body: "<p>The colour of the sky, #00a7ff.</p>"},
	{Name: "Green", Body: "<p>The colour of grass, #00b340.</p>"},
	{Name: "Red", Body: "<p>The colour of a warning light, #ff5a2f.</p>"},
}

// Run creates the demo user and its notes in one transaction. The account
// is created verified, since no mail is ever sent for it.
func Run(ctx context.Context, db *sql.DB, rm repomanager.RepositoryManager, email, password string) (*models.User, error) {
	email = common.NormalizeEmail(email)
	if !common.ValidateEmail(email) || len(password) < common.MinPasswordLength {
		return nil, ErrInvalidInput
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err = rm.Users(tx).Create(ctx, email, hash, true)
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}

		if err := rm.Users(tx).SetEmailVerified(ctx, user.ID); err != nil {
			return fmt.Errorf("error verifying user: %w", err)
		}
		user.EmailVerified = true

		notes := rm.Notes(tx)
		for _, n := range DemoNotes {
			n.UserID = user.ID
			if _, err := notes.Create(ctx, &n); err != nil {
				return fmt.Errorf("error creating note: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}
