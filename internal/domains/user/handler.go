package user

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bloggy-backend/internal/domains/user/model"
	"bloggy-backend/internal/shared/middleware"
	"bloggy-backend/internal/shared/response"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register creates a new account and returns the user with a token pair.
// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	user, tokens, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsernameTaken), errors.Is(err, model.ErrEmailTaken):
			response.Conflict(c, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to register user")
			response.InternalServerError(c, "failed to register user")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Login authenticates by username and password.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	user, tokens, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		log.Error().Err(err).Msg("Failed to login user")
		response.InternalServerError(c, "failed to login")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh exchanges a refresh token for a fresh token pair.
// POST /api/v1/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", err)
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Unauthorized(c, "invalid refresh token")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// GetProfile returns the public profile of a user, points included.
// GET /api/v1/users/:username
func (h *Handler) GetProfile(c *gin.Context) {
	username := c.Param("username")

	profile, err := h.service.GetProfile(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		log.Error().Err(err).Str("username", username).Msg("Failed to get profile")
		response.InternalServerError(c, "failed to get profile")
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// GetMe returns the authenticated user's own profile.
// GET /api/v1/users/me
func (h *Handler) GetMe(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)
	if username == "" {
		response.Unauthorized(c, "authentication required")
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), username)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get own profile")
		response.InternalServerError(c, "failed to get profile")
		return
	}

	response.Success(c, http.StatusOK, profile)
}
