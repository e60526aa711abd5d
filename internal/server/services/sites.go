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

const cacheKeySite = "site"

type SiteInput struct {
	Name            string
	Tagline         string
	Lede            string
	Logo            *storage.Upload
	LogoDescription string
}

type SiteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       storage.Store
	cache       cache.Cache
	cacheTTL    time.Duration
	log         logging.Logger
}

func NewSiteService(db *sql.DB, m repomanager.RepositoryManager, media storage.Store, c cache.Cache,
	cacheTTL time.Duration, log logging.Logger) *SiteService {
	return &SiteService{db: db, repomanager: m, media: media, cache: c, cacheTTL: cacheTTL, log: log}
}

// GetSiteSettings returns zero-value settings until they are saved once.
func (s *SiteService) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	return cache.Fetch(ctx, s.cache, cacheKeySite, s.cacheTTL, s.load)
}

func (s *SiteService) load(ctx context.Context) (*models.SiteSettings, error) {
	settings, err := s.repomanager.Sites(s.db).Get(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return &models.SiteSettings{}, nil
	}
	return settings, err
}

// SaveSiteSettings writes the singleton settings row. Without a new logo the
// current one stays.
func (s *SiteService) SaveSiteSettings(ctx context.Context, in SiteInput) (*models.SiteSettings, error) {
	ve := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		ve.add("name", msgNameRequired)
	}
	checkImage(ve, siteLogo, in.Logo, in.LogoDescription)
	if err := ve.err(); err != nil {
		return nil, err
	}

	current, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading site settings: %w", err)
	}

	key, err := saveImage(ctx, s.media, siteMediaOwner, siteLogo, in.Logo)
	if err != nil {
		return nil, err
	}

	settings := &models.SiteSettings{
		Name:            sanitize.Text(in.Name),
		Tagline:         sanitize.Text(in.Tagline),
		Lede:            sanitize.HTML(in.Lede),
		Logo:            current.Logo,
		LogoDescription: current.LogoDescription,
	}
	if key != nil {
		settings.Logo = key
	}
	if d := optional(in.LogoDescription); d != nil && settings.Logo != nil {
		settings.LogoDescription = d
	}

	saved, err := s.repomanager.Sites(s.db).Save(ctx, settings)
	if err != nil {
		removeMedia(ctx, s.media, s.log, key)
		return nil, fmt.Errorf("error saving site settings: %w", err)
	}

	if key != nil {
		removeMedia(ctx, s.media, s.log, current.Logo)
	}
	if err := s.cache.Delete(ctx, cacheKeySite); err != nil {
		s.log.Warn(ctx, "cache invalidation failed", "key", cacheKeySite, "error", err)
	}
	return saved, nil
}
