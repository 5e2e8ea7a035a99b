package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"bloggy-backend/internal/domains/user/model"
	"bloggy-backend/pkg/jwt"
)

const pointsCacheTTL = 5 * time.Minute

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, *model.TokenPair, error)
	Login(ctx context.Context, req LoginRequest) (*model.User, *model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	GetProfile(ctx context.Context, username string) (*model.Profile, error)
	GetPoints(ctx context.Context, userID uuid.UUID) (int64, error)
	InvalidatePoints(ctx context.Context, userID uuid.UUID)
}

type service struct {
	repo       Repository
	jwtManager *jwt.Manager
	redis      *redis.Client
}

func NewService(repo Repository, jwtManager *jwt.Manager, redisClient *redis.Client) Service {
	return &service{
		repo:       repo,
		jwtManager: jwtManager,
		redis:      redisClient,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*model.User, *model.TokenPair, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	log.Info().Str("username", user.Username).Msg("User registered")
	return user, tokens, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*model.User, *model.TokenPair, error) {
	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, nil, model.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, model.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	// Re-read the user so a token issued before a rename carries
	// the current username forward.
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *service) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	points, err := s.GetPoints(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &model.Profile{
		ID:        user.ID,
		Username:  user.Username,
		Points:    points,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *service) GetPoints(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := pointsCacheKey(userID)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			if points, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return points, nil
			}
		}
	}

	breakdown, err := s.repo.GetPointsBreakdown(ctx, userID)
	if err != nil {
		return 0, err
	}
	points := breakdown.Total()

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, points, pointsCacheTTL).Err(); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to cache user points")
		}
	}

	return points, nil
}

// InvalidatePoints drops the cached score after anything that changes
// it (new entry, vote toggle, entry deletion). Cache errors are logged
// and swallowed; the TTL bounds staleness either way.
func (s *service) InvalidatePoints(ctx context.Context, userID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, pointsCacheKey(userID)).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to invalidate user points cache")
	}
}

func (s *service) issueTokens(user *model.User) (*model.TokenPair, error) {
	access, err := s.jwtManager.GenerateAccessToken(user.ID.String(), user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func pointsCacheKey(userID uuid.UUID) string {
	return "user:points:" + userID.String()
}
