package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"storybook/backend/internal/apperr"
	"storybook/backend/internal/config"
	"storybook/backend/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UploadResult struct {
	MediaType    models.MediaType `json:"media_type"`
	MediaURL     string           `json:"media_url"`
	ThumbnailURL *string          `json:"thumbnail_url"`
}

type Uploader struct {
	// MaxBytes bounds a single upload.
	MaxBytes int64

	store  Store
	thumbs *Thumbnailer
	logger *zap.Logger
}

func NewUploader(store Store, thumbs *Thumbnailer, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{MaxBytes: config.MaxUploadBytes, store: store, thumbs: thumbs, logger: logger}
}

// ErrTooLarge is the validation error for an upload over limit bytes.
func ErrTooLarge(limit int64) error {
	return apperr.Validation(fmt.Sprintf("File exceeds %d MB", limit>>20), map[string]string{"file": "max"})
}

// MediaTypeOf classifies a file by extension. ok is false for extensions
// outside the whitelist.
func MediaTypeOf(filename string) (models.MediaType, string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", "", false
	}
	for typ, exts := range config.MediaExtensions {
		for _, e := range exts {
			if e == ext {
				return models.MediaType(typ), ext, true
			}
		}
	}
	return "", ext, false
}

// Upload stores a story file as stories/<uuid><ext> and, for images and
// videos, a thumbnail as thumbnails/<uuid>.jpg.
func (u *Uploader) Upload(ctx context.Context, filename string, body io.Reader) (*UploadResult, error) {
	typ, ext, ok := MediaTypeOf(filename)
	if !ok {
		return nil, apperr.Validation("Unsupported file type", map[string]string{"file": "extension"})
	}

	raw, err := io.ReadAll(io.LimitReader(body, u.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > u.MaxBytes {
		return nil, ErrTooLarge(u.MaxBytes)
	}
	contentType := mimetype.Detect(raw).String()

	id := uuid.NewString()
	mediaURL, err := u.store.Put(ctx, "stories/"+id+ext, bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, err
	}
	u.logger.Info("media stored",
		zap.String("url", mediaURL),
		zap.String("media_type", string(typ)),
		zap.String("content_type", contentType),
		zap.Int("size", len(raw)))

	res := &UploadResult{MediaType: typ, MediaURL: mediaURL}

	var thumb []byte
	switch typ {
	case models.MediaTypeImage:
		thumb, err = u.thumbs.FromImage(raw)
		if err != nil {
			u.logger.Warn("image thumbnail failed, using original", zap.String("url", mediaURL), zap.Error(err))
			res.ThumbnailURL = &mediaURL
			return res, nil
		}
	case models.MediaTypeVideo:
		thumb, err = u.thumbs.FromVideo(ctx, raw, ext)
		if err != nil {
			u.logger.Warn("video thumbnail failed", zap.String("url", mediaURL), zap.Error(err))
			return res, nil
		}
	default:
		return res, nil
	}

	thumbURL, err := u.store.Put(ctx, "thumbnails/"+id+".jpg", bytes.NewReader(thumb), "image/jpeg")
	if err != nil {
		u.logger.Warn("thumbnail store failed", zap.String("url", mediaURL), zap.Error(err))
		if typ == models.MediaTypeImage {
			res.ThumbnailURL = &mediaURL
		}
		return res, nil
	}
	res.ThumbnailURL = &thumbURL
	return res, nil
}
