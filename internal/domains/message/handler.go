package message

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bloggy-backend/internal/domains/message/model"
	usermodel "bloggy-backend/internal/domains/user/model"
	"bloggy-backend/internal/shared/middleware"
	"bloggy-backend/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Send delivers a private message.
// POST /api/v1/messages
func (h *Handler) Send(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, usermodel.ErrUserNotFound):
			response.NotFound(c, "recipient not found")
		case errors.Is(err, model.ErrSelfMessage):
			response.BadRequest(c, "cannot message yourself")
		default:
			log.Error().Err(err).Msg("Failed to send message")
			response.InternalServerError(c, "failed to send message")
		}
		return
	}

	response.Success(c, http.StatusCreated, msg)
}

// Inbox lists received messages, newest first.
// GET /api/v1/messages?from=alice&unread=true
func (h *Handler) Inbox(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	messages, err := h.service.Inbox(c.Request.Context(), userID, c.Query("from"), c.Query("unread") == "true")
	if err != nil {
		if errors.Is(err, usermodel.ErrUserNotFound) {
			response.NotFound(c, "sender not found")
			return
		}
		log.Error().Err(err).Msg("Failed to list inbox")
		response.InternalServerError(c, "failed to list messages")
		return
	}

	response.Success(c, http.StatusOK, messages)
}

// Sent lists messages the caller has sent.
// GET /api/v1/messages/sent
func (h *Handler) Sent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	messages, err := h.service.Sent(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list sent messages")
		response.InternalServerError(c, "failed to list messages")
		return
	}

	response.Success(c, http.StatusOK, messages)
}

// UnreadCount returns the number of unread received messages.
// GET /api/v1/messages/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to count unread messages")
		response.InternalServerError(c, "failed to count messages")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks one received message as read.
// POST /api/v1/messages/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid message ID")
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, model.ErrMessageNotFound):
			response.NotFound(c, "message not found")
		case errors.Is(err, model.ErrNotRecipient):
			response.Forbidden(c, "message belongs to another user")
		default:
			log.Error().Err(err).Msg("Failed to mark message read")
			response.InternalServerError(c, "failed to mark message read")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true})
}

// MarkAllRead marks every unread received message as read.
// POST /api/v1/messages/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	updated, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to mark messages read")
		response.InternalServerError(c, "failed to mark messages read")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}
