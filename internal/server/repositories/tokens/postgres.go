package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/dbx"
	"github.com/privnotes/notes/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX. Consumption is a
// single conditional UPDATE, so two concurrent submissions of the same token
// cannot both succeed.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Replace(ctx context.Context, userID string, purpose models.TokenPurpose, hash string, ttl time.Duration) error {
	if err := r.DeleteForUser(ctx, userID, purpose); err != nil {
		return err
	}

	query := `
		INSERT INTO one_time_tokens (user_id, purpose, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(purpose), hash, time.Now().Add(ttl)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ConsumeForUser(ctx context.Context, userID string, purpose models.TokenPurpose, hash string) (bool, error) {
	query := `
		UPDATE one_time_tokens SET consumed_at = now()
		WHERE user_id = $1 AND purpose = $2 AND token_hash = $3
		  AND consumed_at IS NULL AND expires_at > now()
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query, userID, string(purpose), hash).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

func (r *PostgresRepository) Consume(ctx context.Context, purpose models.TokenPurpose, hash string) (string, error) {
	query := `
		UPDATE one_time_tokens SET consumed_at = now()
		WHERE purpose = $1 AND token_hash = $2
		  AND consumed_at IS NULL AND expires_at > now()
		RETURNING user_id
	`
	var userID string
	err := r.db.QueryRowContext(ctx, query, string(purpose), hash).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return userID, nil
}

func (r *PostgresRepository) Find(ctx context.Context, purpose models.TokenPurpose, hash string) (string, error) {
	query := `
		SELECT user_id FROM one_time_tokens
		WHERE purpose = $1 AND token_hash = $2
		  AND consumed_at IS NULL AND expires_at > now()
	`
	var userID string
	err := r.db.QueryRowContext(ctx, query, string(purpose), hash).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return userID, nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string, purpose models.TokenPurpose) error {
	query := `
		DELETE FROM one_time_tokens
		WHERE user_id = $1 AND purpose = $2 AND consumed_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(purpose)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
