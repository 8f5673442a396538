// Package handler holds the gin handlers of the REST and websocket surface.
package handler

import (
	"storybook/backend/internal/auth"
	"storybook/backend/internal/chat"
	"storybook/backend/internal/chathub"
	"storybook/backend/internal/localization"
	"storybook/backend/internal/matching"
	"storybook/backend/internal/media"
	"storybook/backend/internal/region"
	"storybook/backend/internal/report"
	"storybook/backend/internal/story"

	"go.uber.org/zap"
)

// Handler holds the services behind the HTTP routes.
type Handler struct {
	Auth      *auth.Service
	Matching  *matching.Service
	Chat      *chat.Service
	Stories   *story.Service
	Reports   *report.Service
	Regions   *region.Service
	Uploader  *media.Uploader
	Hub       *chathub.ManagerService
	Frames    chathub.FrameHandler
	Localizer *localization.Localizer
	Logger    *zap.Logger
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
