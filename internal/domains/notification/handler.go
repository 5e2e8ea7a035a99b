package notification

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bloggy-backend/internal/domains/notification/model"
	"bloggy-backend/internal/shared/middleware"
	"bloggy-backend/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List returns the caller's notifications, newest first.
// GET /api/v1/notifications?unread=true
func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.service.List(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list notifications")
		response.InternalServerError(c, "failed to list notifications")
		return
	}

	response.Success(c, http.StatusOK, notifications)
}

// UnreadCount returns the number of unread notifications.
// GET /api/v1/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count unread notifications")
		response.InternalServerError(c, "failed to count notifications")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks one notification as read. Reading is one-way.
// POST /api/v1/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification ID")
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotificationNotFound):
			response.NotFound(c, "notification not found")
		case errors.Is(err, model.ErrNotRecipient):
			response.Forbidden(c, "notification belongs to another user")
		default:
			log.Error().Err(err).Msg("Failed to mark notification read")
			response.InternalServerError(c, "failed to mark notification read")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true})
}

// MarkAllRead marks every unread notification of the caller as read.
// POST /api/v1/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	updated, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to mark notifications read")
		response.InternalServerError(c, "failed to mark notifications read")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}
