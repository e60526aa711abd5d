package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/repositories/repomanager"
	"github.com/privnotes/notes/internal/server/sanitize"
	"github.com/privnotes/notes/internal/server/storage"
)

type NoteInput struct {
	Name             string
	Body             string
	Image            *storage.Upload
	ImageDescription string
}

func (in NoteInput) validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.add("name", msgNameRequired)
	}
	checkImage(ve, noteImage, in.Image, in.ImageDescription)
	return ve.err()
}

// NoteService manages notes on behalf of their owner. Notes of other users
// behave as if they did not exist.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       storage.Store
	log         logging.Logger
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, media storage.Store, log logging.Logger) *NoteService {
	return &NoteService{db: db, repomanager: m, media: media, log: log}
}

func (s *NoteService) ListNotes(ctx context.Context, userID string) ([]*models.Note, error) {
	return s.repomanager.Notes(s.db).ListByUser(ctx, userID)
}

func (s *NoteService) GetNote(ctx context.Context, userID, id string) (*models.Note, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Notes(s.db).Get(ctx, userID, id)
}

func (s *NoteService) CreateNote(ctx context.Context, userID string, in NoteInput) (*models.Note, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	key, err := saveImage(ctx, s.media, userID, noteImage, in.Image)
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		UserID: userID,
		Name:   strings.TrimSpace(in.Name),
		Body:   sanitize.HTML(in.Body),
	}
	if key != nil {
		note.Image = key
		note.ImageDescription = optional(in.ImageDescription)
	}

	created, err := s.repomanager.Notes(s.db).Create(ctx, note)
	if err != nil {
		removeMedia(ctx, s.media, s.log, key)
		return nil, fmt.Errorf("error creating note: %w", err)
	}
	return created, nil
}

// UpdateNote rewrites the note. Without a new image the current one stays,
// and a non-empty description replaces the current description.
func (s *NoteService) UpdateNote(ctx context.Context, userID, id string, in NoteInput) (*models.Note, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	current, err := s.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	key, err := saveImage(ctx, s.media, userID, noteImage, in.Image)
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		ID:               current.ID,
		UserID:           userID,
		Name:             strings.TrimSpace(in.Name),
		Body:             sanitize.HTML(in.Body),
		Image:            current.Image,
		ImageDescription: current.ImageDescription,
	}
	if key != nil {
		note.Image = key
	}
	if d := optional(in.ImageDescription); d != nil && note.Image != nil {
		note.ImageDescription = d
	}

	updated, err := s.repomanager.Notes(s.db).Update(ctx, note)
	if err != nil {
		removeMedia(ctx, s.media, s.log, key)
		return nil, fmt.Errorf("error updating note: %w", err)
	}

	if key != nil {
		removeMedia(ctx, s.media, s.log, current.Image)
	}
	return updated, nil
}

func (s *NoteService) DeleteNote(ctx context.Context, userID, id string) error {
	current, err := s.GetNote(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repomanager.Notes(s.db).Delete(ctx, userID, current.ID); err != nil {
		return err
	}

	removeMedia(ctx, s.media, s.log, current.Image)
	return nil
}
