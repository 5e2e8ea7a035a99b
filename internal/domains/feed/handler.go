package feed

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	tagmodel "bloggy-backend/internal/domains/tag/model"
	"bloggy-backend/internal/shared/middleware"
	"bloggy-backend/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Get returns a page of the feed.
// GET /api/v1/feed?sort=hot&tag=golang&page=2
func (h *Handler) Get(c *gin.Context) {
	sortMode := Sort(c.DefaultQuery("sort", string(SortNew)))
	switch sortMode {
	case SortNew, SortTop, SortHot:
	default:
		response.BadRequest(c, "invalid sort mode")
		return
	}

	var viewerID *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		viewerID = &id
	}

	page, err := h.service.BuildPage(c.Request.Context(), viewerID, sortMode, c.Query("tag"), c.Query("page"))
	if err != nil {
		if errors.Is(err, tagmodel.ErrInvalidTagName) {
			response.BadRequest(c, "invalid tag name")
			return
		}
		log.Error().Err(err).Msg("Failed to build feed page")
		response.InternalServerError(c, "failed to build feed")
		return
	}

	response.Success(c, http.StatusOK, page)
}
