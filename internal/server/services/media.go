package services

import (
	"context"
	"errors"
	"strings"

	"github.com/privnotes/notes/internal/logging"
	"github.com/privnotes/notes/internal/server/storage"
)

const siteMediaOwner = storage.SiteOwner

// imageField names the form inputs of one image slot and the message used
// when its description is missing.
type imageField struct {
	file           string
	description    string
	descriptionMsg string
}

var (
	noteImage  = imageField{"image", "imageDescription", msgImageDescription}
	pageImage  = imageField{"image", "imageDescription", msgImageDescription}
	siteLogo   = imageField{"logo", "logoDescription", msgLogoDescription}
	userAvatar = imageField{"visualAvatar", "visualAvatarDescription", msgImageDescription}
)

// checkImage records a missing description for a new upload on ve.
func checkImage(ve *ValidationError, f imageField, upload *storage.Upload, description string) {
	if upload != nil && strings.TrimSpace(description) == "" {
		ve.add(f.description, f.descriptionMsg)
	}
}

// saveImage stores upload under owner and returns its key. A nil upload
// yields a nil key.
func saveImage(ctx context.Context, st storage.Store, owner string, f imageField, upload *storage.Upload) (*string, error) {
	if upload == nil {
		return nil, nil
	}

	key, err := storage.SaveImage(ctx, st, owner, upload)
	switch {
	case errors.Is(err, storage.ErrNotImage):
		return nil, newValidationError(f.file, msgNotImage)
	case errors.Is(err, storage.ErrTooLarge):
		return nil, newValidationError(f.file, msgTooLarge)
	case err != nil:
		return nil, err
	}
	return &key, nil
}

// removeMedia deletes objects best-effort. Failures are logged, never
// returned.
func removeMedia(ctx context.Context, st storage.Store, log logging.Logger, keys ...*string) {
	for _, k := range keys {
		if k == nil || *k == "" {
			continue
		}
		if err := st.Delete(ctx, *k); err != nil {
			log.Warn(ctx, "media cleanup failed", "key", *k, "error", err)
		}
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
