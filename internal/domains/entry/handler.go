package entry

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bloggy-backend/internal/domains/entry/model"
	usermodel "bloggy-backend/internal/domains/user/model"
	"bloggy-backend/internal/shared/middleware"
	"bloggy-backend/internal/shared/response"
)

type Handler struct {
	service  Service
	maxDepth int
}

func NewHandler(service Service, maxDepth int) *Handler {
	return &Handler{service: service, maxDepth: maxDepth}
}

// Create saves a new entry, as a root or a reply.
// POST /api/v1/entries
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	username := c.GetString(middleware.ContextUsername)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	e, err := h.service.Create(c.Request.Context(), userID, username, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrContentTooLong):
			response.BadRequest(c, "content exceeds maximum length")
		case errors.Is(err, model.ErrParentNotFound):
			response.NotFound(c, "parent entry not found")
		default:
			log.Error().Err(err).Msg("Failed to create entry")
			response.InternalServerError(c, "failed to create entry")
		}
		return
	}

	response.Success(c, http.StatusCreated, e)
}

// Update rewrites an entry's content. Author only.
// PUT /api/v1/entries/:id
func (h *Handler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry ID")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	e, err := h.service.Update(c.Request.Context(), userID, entryID, req)
	if err != nil {
		h.writeEntryError(c, err, "Failed to update entry")
		return
	}

	response.Success(c, http.StatusOK, e)
}

// Delete removes an entry. Soft when it has replies, hard otherwise.
// DELETE /api/v1/entries/:id
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, entryID); err != nil {
		h.writeEntryError(c, err, "Failed to delete entry")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Vote toggles the caller's vote on an entry.
// POST /api/v1/entries/:id/vote
func (h *Handler) Vote(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry ID")
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	e, err := h.service.Vote(c.Request.Context(), userID, entryID, model.VoteType(req.VoteType))
	if err != nil {
		h.writeEntryError(c, err, "Failed to vote on entry")
		return
	}

	response.Success(c, http.StatusOK, e)
}

// Get returns a single entry.
// GET /api/v1/entries/:id
func (h *Handler) Get(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry ID")
		return
	}

	e, err := h.service.Get(c.Request.Context(), entryID, optionalViewer(c))
	if err != nil {
		h.writeEntryError(c, err, "Failed to get entry")
		return
	}

	response.Success(c, http.StatusOK, e)
}

// GetThread returns the tree rooted at the entry, depth-capped.
// GET /api/v1/entries/:id/thread
func (h *Handler) GetThread(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid entry ID")
		return
	}

	tree, err := h.service.GetThread(c.Request.Context(), entryID, optionalViewer(c), h.maxDepth)
	if err != nil {
		h.writeEntryError(c, err, "Failed to get thread")
		return
	}

	response.Success(c, http.StatusOK, tree)
}

// ListByUser returns a user's entries, newest first.
// GET /api/v1/users/:username/entries
func (h *Handler) ListByUser(c *gin.Context) {
	username := c.Param("username")

	entries, err := h.service.ListByUsername(c.Request.Context(), username, optionalViewer(c))
	if err != nil {
		if errors.Is(err, usermodel.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		log.Error().Err(err).Str("username", username).Msg("Failed to list user entries")
		response.InternalServerError(c, "failed to list entries")
		return
	}

	response.Success(c, http.StatusOK, entries)
}

func (h *Handler) writeEntryError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, model.ErrEntryNotFound):
		response.NotFound(c, "entry not found")
	case errors.Is(err, model.ErrEntryDeleted):
		response.Conflict(c, "entry has been deleted")
	case errors.Is(err, model.ErrNotAuthor):
		response.Forbidden(c, "entry belongs to another user")
	case errors.Is(err, model.ErrContentTooLong):
		response.BadRequest(c, "content exceeds maximum length")
	case errors.Is(err, model.ErrInvalidVoteType):
		response.BadRequest(c, "invalid vote type")
	default:
		log.Error().Err(err).Msg(logMsg)
		response.InternalServerError(c, "internal error")
	}
}

func optionalViewer(c *gin.Context) *uuid.UUID {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	return nil
}
