package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/cryptox"
	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/config"
	"github.com/privnotes/notes/internal/server/mail"
	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/repositories/repomanager"
	"github.com/privnotes/notes/internal/server/storage"
)

// AccountService owns verification, password reset, data deletion and
// signup undo. Each token purpose is stored separately, so issuing one never
// invalidates another.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      Mailer
	media       storage.Store
	log         logging.Logger
	config      *config.Config
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, mailer Mailer, media storage.Store,
	log logging.Logger, cfg *config.Config) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		mailer:      mailer,
		media:       media,
		log:         log,
		config:      cfg,
	}
}

func phraseError(phrase string) *ValidationError {
	return newValidationError("confirmation", fmt.Sprintf("You didn't type the phrase '%s'.", phrase))
}

func (s *AccountService) issueToken(ctx context.Context, userID string, purpose models.TokenPurpose) (string, error) {
	raw, hash, err := cryptox.NewToken()
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	ttl := s.ttl(purpose)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Tokens(tx).Replace(ctx, userID, purpose, hash, ttl)
	})
	if err != nil {
		return "", fmt.Errorf("error storing token: %w", err)
	}
	return raw, nil
}

func (s *AccountService) ttl(purpose models.TokenPurpose) time.Duration {
	switch purpose {
	case models.PurposeResetPassword:
		return s.config.ResetTokenTTL
	case models.PurposeUndoSignup:
		return s.config.UndoTokenTTL
	default:
		return s.config.VerifyTokenTTL
	}
}

// IssueVerificationToken replaces the user's verification token and mails
// the new link. The raw token is returned for the caller's use.
func (s *AccountService) IssueVerificationToken(ctx context.Context, userID string) (string, error) {
	if !validID(userID) {
		return "", common.ErrorNotFound
	}
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	raw, err := s.issueToken(ctx, user.ID, models.PurposeVerifyEmail)
	if err != nil {
		return "", err
	}

	s.mailer.Notify(ctx, mail.VerificationMessage(s.config.BaseURL, user.Email, raw))
	return raw, nil
}

// ConsumeVerificationToken marks the email verified if token is the user's
// live verification token. The token works once.
func (s *AccountService) ConsumeVerificationToken(ctx context.Context, userID, token string) error {
	if token == "" || !validID(userID) {
		return common.ErrInvalidToken
	}
	hash := cryptox.HashToken(token)

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repomanager.Tokens(tx).ConsumeForUser(ctx, userID, models.PurposeVerifyEmail, hash)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrInvalidToken
		}
		if err := s.repomanager.Users(tx).SetEmailVerified(ctx, userID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error verifying email: %w", err)
		}
		s.log.Info(ctx, "email verified", "user_id", userID)
		return nil
	})
}

// IssueResetToken mails a reset link to a known email. Unknown emails yield
// common.ErrUnknownEmail; callers must not reveal that to the client.
func (s *AccountService) IssueResetToken(ctx context.Context, email string) (string, error) {
	email = common.NormalizeEmail(email)

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrUnknownEmail
		}
		return "", fmt.Errorf("error searching user: %w", err)
	}

	raw, err := s.issueToken(ctx, user.ID, models.PurposeResetPassword)
	if err != nil {
		return "", err
	}

	s.mailer.Notify(ctx, mail.ResetMessage(s.config.BaseURL, user.Email, raw))
	return raw, nil
}

// CheckResetToken reports common.ErrInvalidToken unless token is a live
// reset token. Nothing is consumed.
func (s *AccountService) CheckResetToken(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrInvalidToken
	}

	_, err := s.repomanager.Tokens(s.db).Find(ctx, models.PurposeResetPassword, cryptox.HashToken(token))
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("error checking token: %w", err)
	}
	return nil
}

// ConsumeResetToken sets a new password for the owner of a live reset token
// and returns the owner's id.
func (s *AccountService) ConsumeResetToken(ctx context.Context, token, newPassword string) (string, error) {
	if newPassword == "" {
		return "", common.ErrPasswordRequired
	}
	if len(newPassword) < common.MinPasswordLength {
		return "", common.ErrPasswordTooShort
	}
	if token == "" {
		return "", common.ErrAccountNotFound
	}

	pwHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	var userID string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userID, err = s.repomanager.Tokens(tx).Consume(ctx, models.PurposeResetPassword, cryptox.HashToken(token))
		if err != nil {
			return err
		}
		return s.repomanager.Users(tx).UpdatePasswordHash(ctx, userID, pwHash)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrAccountNotFound
		}
		return "", fmt.Errorf("error resetting password: %w", err)
	}

	s.log.Info(ctx, "password reset", "user_id", userID)
	return userID, nil
}

// DeletePartialData removes every note of the user but keeps the account.
func (s *AccountService) DeletePartialData(ctx context.Context, userID, phrase string) error {
	if phrase != common.PhraseDeleteMost {
		return phraseError(common.PhraseDeleteMost)
	}

	notes := s.repomanager.Notes(s.db)

	list, err := notes.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error listing notes: %w", err)
	}

	n, err := notes.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error deleting notes: %w", err)
	}

	removeMedia(ctx, s.media, s.log, noteImages(list)...)
	s.log.Info(ctx, "user data deleted", "user_id", userID, "notes", n)
	return nil
}

// DeleteAccount removes the user and, through cascades, everything they own.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, phrase string) error {
	if phrase != common.PhraseDeleteAll {
		return phraseError(common.PhraseDeleteAll)
	}

	keys, err := s.ownedMedia(ctx, s.db, userID)
	if err != nil {
		return err
	}

	if err := s.repomanager.Users(s.db).DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	removeMedia(ctx, s.media, s.log, keys...)
	s.log.Info(ctx, "account deleted", "user_id", userID)
	return nil
}

// UndoSignup deletes the account when token is the user's live undo token.
// Anything else is a silent no-op reported as deleted == false.
func (s *AccountService) UndoSignup(ctx context.Context, userID, token string) (bool, error) {
	if token == "" || !validID(userID) {
		return false, nil
	}

	var (
		deleted bool
		keys    []*string
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repomanager.Tokens(tx).ConsumeForUser(ctx, userID, models.PurposeUndoSignup, cryptox.HashToken(token))
		if err != nil || !ok {
			return err
		}

		keys, err = s.ownedMedia(ctx, tx, userID)
		if err != nil {
			return err
		}

		err = s.repomanager.Users(tx).DeleteByID(ctx, userID)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		removeMedia(ctx, s.media, s.log, keys...)
		s.log.Info(ctx, "signup undone", "user_id", userID)
	}
	return deleted, nil
}

// ExportData returns the account and every note it owns.
func (s *AccountService) ExportData(ctx context.Context, userID string) (*models.DataExport, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.Notes(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}

	return &models.DataExport{User: user, Notes: list}, nil
}

// ownedMedia collects the object keys of the user's avatar and note images.
func (s *AccountService) ownedMedia(ctx context.Context, db dbx.DBTX, userID string) ([]*string, error) {
	user, err := s.repomanager.Users(db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	list, err := s.repomanager.Notes(db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}

	return append(noteImages(list), user.VisualAvatar), nil
}

func noteImages(list []*models.Note) []*string {
	keys := make([]*string, 0, len(list))
	for _, n := range list {
		keys = append(keys, n.Image)
	}
	return keys
}
