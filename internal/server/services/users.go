package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/cryptox"
	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/config"
	"github.com/privnotes/notes/internal/server/mail"
	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/repositories/repomanager"
)

// dummyHash is compared against when a login names an unknown email, so both
// paths pay for one bcrypt comparison.
var dummyHash, _ = cryptox.HashPassword("not-a-real-password")

type SignupInput struct {
	Email     string
	Password  string
	DoNotSell bool
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      Mailer
	log         logging.Logger
	config      *config.Config
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, mailer Mailer, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		mailer:      mailer,
		log:         log,
		config:      cfg,
	}
}

func validateCredentials(email, password string) *ValidationError {
	ve := &ValidationError{}
	if !common.ValidateEmail(email) {
		ve.add("email", msgEmailInvalid)
	}
	switch {
	case password == "":
		ve.add("password", msgPasswordRequired)
	case len(password) < common.MinPasswordLength:
		ve.add("password", msgPasswordTooShort)
	}
	return ve
}

// Signup creates the account together with its verification and undo
// tokens, then queues the signup email.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := common.NormalizeEmail(in.Email)
	if err := validateCredentials(email, in.Password).err(); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	verifyRaw, verifyHash, err := cryptox.NewToken()
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	undoRaw, undoHash, err := cryptox.NewToken()
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.Tokens(tx)

		user, err = s.repomanager.Users(tx).Create(ctx, email, hash, in.DoNotSell)
		if err != nil {
			return err
		}
		if err := tokens.Replace(ctx, user.ID, models.PurposeVerifyEmail, verifyHash, s.config.VerifyTokenTTL); err != nil {
			return fmt.Errorf("error storing verification token: %w", err)
		}
		if err := tokens.Replace(ctx, user.ID, models.PurposeUndoSignup, undoHash, s.config.UndoTokenTTL); err != nil {
			return fmt.Errorf("error storing undo token: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, newValidationError("email", msgEmailTaken)
		}
		return nil, err
	}

	s.log.Info(ctx, "user signed up", "user_id", user.ID)
	s.mailer.Notify(ctx, mail.SignupMessage(s.config.BaseURL, user.Email, verifyRaw, undoRaw))

	return user, nil
}

// Login checks the credentials. Every failure is the same field error so
// callers cannot tell an unknown email from a wrong password.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	invalid := newValidationError("email", msgInvalidCredentials)

	email = common.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, invalid
	}

	users := s.repomanager.Users(s.db)

	user, err := users.FindByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		_, _ = cryptox.CheckPassword(dummyHash, password)
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := users.PasswordHash(ctx, user.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("error loading password: %w", err)
	}

	ok, err := cryptox.CheckPassword(hash, password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return nil, invalid
	}

	return user, nil
}

// GetUser returns common.ErrorNotFound for deleted accounts.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.db).FindByID(ctx, id)
}
