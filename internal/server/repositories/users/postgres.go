package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/server/models"
)

const userColumns = `id, email, do_not_sell, email_verified, visual_avatar, visual_avatar_description, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.DoNotSell, &u.EmailVerified,
		&u.VisualAvatar, &u.VisualAvatarDescription, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, email, passwordHash string, doNotSell bool) (*models.User, error) {
	query := `
		WITH u AS (
			INSERT INTO users (email, do_not_sell)
			VALUES ($1, $2)
			RETURNING ` + userColumns + `
		), p AS (
			INSERT INTO passwords (user_id, hash)
			SELECT id, $3 FROM u
		)
		SELECT ` + userColumns + ` FROM u
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, email, doNotSell, passwordHash))
	if err != nil {
		if dbx.IsUniqueViolation(err, "users_email_key") {
			return nil, common.ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) PasswordHash(ctx context.Context, id string) (string, error) {
	query := `SELECT hash FROM passwords WHERE user_id = $1`

	var hash string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return hash, nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE passwords SET hash = $2 WHERE user_id = $1`
	return dbx.ExecOne(ctx, r.db, query, id, hash)
}

func (r *PostgresRepository) SetEmailVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET email_verified = true, updated_at = now() WHERE id = $1`
	return dbx.ExecOne(ctx, r.db, query, id)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			do_not_sell = $2,
			visual_avatar = COALESCE($3, visual_avatar),
			visual_avatar_description = COALESCE($4, visual_avatar_description),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, upd.DoNotSell, upd.VisualAvatar, upd.VisualAvatarDescription))
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	return dbx.ExecOne(ctx, r.db, query, id)
}
