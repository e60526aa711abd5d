package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/repositories/repomanager"
	"github.com/privnotes/notes/internal/server/storage"
)

type ProfileInput struct {
	DoNotSell         bool
	Avatar            *storage.Upload
	AvatarDescription string
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       storage.Store
	log         logging.Logger
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, media storage.Store, log logging.Logger) *ProfileService {
	return &ProfileService{db: db, repomanager: m, media: media, log: log}
}

// UpdateProfile sets the do-not-sell flag and optionally a new avatar. Without
// a new avatar the stored one is kept; a non-empty description still updates.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	ve := &ValidationError{}
	checkImage(ve, userAvatar, in.Avatar, in.AvatarDescription)
	if err := ve.err(); err != nil {
		return nil, err
	}

	users := s.repomanager.Users(s.db)

	current, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := saveImage(ctx, s.media, userID, userAvatar, in.Avatar)
	if err != nil {
		return nil, err
	}

	updated, err := users.UpdateProfile(ctx, userID, models.ProfileUpdate{
		DoNotSell:               in.DoNotSell,
		VisualAvatar:            key,
		VisualAvatarDescription: optional(in.AvatarDescription),
	})
	if err != nil {
		removeMedia(ctx, s.media, s.log, key)
		return nil, fmt.Errorf("error updating profile: %w", err)
	}

	if key != nil {
		removeMedia(ctx, s.media, s.log, current.VisualAvatar)
	}

	return updated, nil
}
