package tag

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bloggy-backend/internal/domains/tag/model"
	"bloggy-backend/internal/shared/middleware"
	"bloggy-backend/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List returns all tags with usage counts. When the caller is
// authenticated their observed/blacklisted flags are filled in.
// GET /api/v1/tags
func (h *Handler) List(c *gin.Context) {
	viewerID := optionalViewer(c)

	tags, err := h.service.List(c.Request.Context(), viewerID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tags")
		response.InternalServerError(c, "failed to list tags")
		return
	}

	response.Success(c, http.StatusOK, tags)
}

// Get returns a single tag by name.
// GET /api/v1/tags/:name
func (h *Handler) Get(c *gin.Context) {
	viewerID := optionalViewer(c)

	tag, err := h.service.Get(c.Request.Context(), c.Param("name"), viewerID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidTagName):
			response.BadRequest(c, "invalid tag name")
		case errors.Is(err, model.ErrTagNotFound):
			response.NotFound(c, "tag not found")
		default:
			log.Error().Err(err).Msg("Failed to get tag")
			response.InternalServerError(c, "failed to get tag")
		}
		return
	}

	response.Success(c, http.StatusOK, tag)
}

// ToggleObserve flips whether the caller observes the tag. Observing
// clears any blacklist mark for the same tag.
// POST /api/v1/tags/:name/observe
func (h *Handler) ToggleObserve(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	observed, err := h.service.ToggleObserve(c.Request.Context(), c.Param("name"), userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidTagName):
			response.BadRequest(c, "invalid tag name")
		case errors.Is(err, model.ErrTagNotFound):
			response.NotFound(c, "tag not found")
		default:
			log.Error().Err(err).Msg("Failed to toggle tag observe")
			response.InternalServerError(c, "failed to toggle observe")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"observed": observed})
}

// ToggleBlacklist flips whether the caller blacklists the tag.
// POST /api/v1/tags/:name/blacklist
func (h *Handler) ToggleBlacklist(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	blacklisted, err := h.service.ToggleBlacklist(c.Request.Context(), c.Param("name"), userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidTagName):
			response.BadRequest(c, "invalid tag name")
		case errors.Is(err, model.ErrTagNotFound):
			response.NotFound(c, "tag not found")
		default:
			log.Error().Err(err).Msg("Failed to toggle tag blacklist")
			response.InternalServerError(c, "failed to toggle blacklist")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"blacklisted": blacklisted})
}

// optionalViewer reads the authenticated user id when present. Tag
// reads work anonymously too.
func optionalViewer(c *gin.Context) *uuid.UUID {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	return nil
}
