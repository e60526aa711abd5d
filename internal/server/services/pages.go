package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/privnotes/notes/internal/common"
	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/cache"
	"github.com/privnotes/notes/internal/server/models"
	"github.com/privnotes/notes/internal/server/repositories/repomanager"
	"github.com/privnotes/notes/internal/server/sanitize"
	"github.com/privnotes/notes/internal/server/storage"
)

const (
	cacheKeyPages      = "pages"
	cacheKeyPagePrefix = "page:"
)

type PageInput struct {
	Title            string
	Slug             string
	Body             string
	Image            *storage.Upload
	ImageDescription string
}

type PageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       storage.Store
	cache       cache.Cache
	cacheTTL    time.Duration
	log         logging.Logger
}

func NewPageService(db *sql.DB, m repomanager.RepositoryManager, media storage.Store, c cache.Cache,
	cacheTTL time.Duration, log logging.Logger) *PageService {
	return &PageService{db: db, repomanager: m, media: media, cache: c, cacheTTL: cacheTTL, log: log}
}

func (s *PageService) ListPages(ctx context.Context) ([]*models.Page, error) {
	return cache.Fetch(ctx, s.cache, cacheKeyPages, s.cacheTTL, s.repomanager.Pages(s.db).List)
}

func (s *PageService) GetPage(ctx context.Context, id string) (*models.Page, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Pages(s.db).Get(ctx, id)
}

func (s *PageService) GetPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	return cache.Fetch(ctx, s.cache, cacheKeyPagePrefix+slug, s.cacheTTL, func(ctx context.Context) (*models.Page, error) {
		return s.repomanager.Pages(s.db).GetBySlug(ctx, slug)
	})
}

// validate normalises the slug and checks it is free for a page other than
// exceptID.
func (s *PageService) validate(ctx context.Context, in PageInput, exceptID string) (string, error) {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		ve.add("title", msgTitleRequired)
	}

	slug := sanitize.Slug(in.Slug)
	if slug == "" {
		ve.add("slug", msgSlugEmpty)
	} else {
		taken, err := s.repomanager.Pages(s.db).SlugTaken(ctx, slug, exceptID)
		if err != nil {
			return "", fmt.Errorf("error checking slug: %w", err)
		}
		if taken {
			ve.add("slug", msgSlugTaken)
		}
	}

	checkImage(ve, pageImage, in.Image, in.ImageDescription)
	return slug, ve.err()
}

func (s *PageService) CreatePage(ctx context.Context, in PageInput) (*models.Page, error) {
	slug, err := s.validate(ctx, in, "")
	if err != nil {
		return nil, err
	}

	key, err := saveImage(ctx, s.media, siteMediaOwner, pageImage, in.Image)
	if err != nil {
		return nil, err
	}

	page := &models.Page{
		Title: sanitize.Text(in.Title),
		Slug:  slug,
		Body:  sanitize.HTML(in.Body),
	}
	if key != nil {
		page.Image = key
		page.ImageDescription = optional(in.ImageDescription)
	}

	created, err := s.repomanager.Pages(s.db).Create(ctx, page)
	if err != nil {
		removeMedia(ctx, s.media, s.log, key)
		return nil, slugConflict(err, "error creating page")
	}

	s.invalidate(ctx, slug)
	return created, nil
}

// UpdatePage rewrites the page. Without a new image the current one stays.
func (s *PageService) UpdatePage(ctx context.Context, id string, in PageInput) (*models.Page, error) {
	current, err := s.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}

	slug, err := s.validate(ctx, in, current.ID)
	if err != nil {
		return nil, err
	}

	key, err := saveImage(ctx, s.media, siteMediaOwner, pageImage, in.Image)
	if err != nil {
		return nil, err
	}

	page := &models.Page{
		ID:               current.ID,
		Title:            sanitize.Text(in.Title),
		Slug:             slug,
		Body:             sanitize.HTML(in.Body),
		Image:            current.Image,
		ImageDescription: current.ImageDescription,
	}
	if key != nil {
		page.Image = key
	}
	if d := optional(in.ImageDescription); d != nil && page.Image != nil {
		page.ImageDescription = d
	}

	updated, err := s.repomanager.Pages(s.db).Update(ctx, page)
	if err != nil {
		removeMedia(ctx, s.media, s.log, key)
		return nil, slugConflict(err, "error updating page")
	}

	if key != nil {
		removeMedia(ctx, s.media, s.log, current.Image)
	}
	s.invalidate(ctx, current.Slug, slug)
	return updated, nil
}

func (s *PageService) DeletePage(ctx context.Context, id string) error {
	current, err := s.GetPage(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repomanager.Pages(s.db).Delete(ctx, current.ID); err != nil {
		return err
	}

	removeMedia(ctx, s.media, s.log, current.Image)
	s.invalidate(ctx, current.Slug)
	return nil
}

func (s *PageService) invalidate(ctx context.Context, slugs ...string) {
	keys := []string{cacheKeyPages}
	for _, slug := range slugs {
		keys = append(keys, cacheKeyPagePrefix+slug)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
}

// slugConflict turns a lost race on the unique slug into the same field
// error the pre-check gives.
func slugConflict(err error, doing string) error {
	if errors.Is(err, common.ErrSlugTaken) {
		return newValidationError("slug", msgSlugTaken)
	}
	return fmt.Errorf("%s: %w", doing, err)
}
