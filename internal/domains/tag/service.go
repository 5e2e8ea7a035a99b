package tag

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"bloggy-backend/internal/domains/tag/model"
)

var validTagName = regexp.MustCompile(`^[a-zA-Z]+$`)

type Service interface {
	Get(ctx context.Context, name string, viewerID *uuid.UUID) (*model.TagView, error)
	List(ctx context.Context, viewerID *uuid.UUID) ([]*model.TagView, error)
	ToggleObserve(ctx context.Context, name string, userID uuid.UUID) (bool, error)
	ToggleBlacklist(ctx context.Context, name string, userID uuid.UUID) (bool, error)
	Normalize(name string) (string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Normalize validates a tag name and lowercases it. Tag identity is
// case-insensitive everywhere.
func (s *service) Normalize(name string) (string, error) {
	if !validTagName.MatchString(name) {
		return "", model.ErrInvalidTagName
	}
	return strings.ToLower(name), nil
}

func (s *service) Get(ctx context.Context, name string, viewerID *uuid.UUID) (*model.TagView, error) {
	normalized, err := s.Normalize(name)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, normalized, viewerID)
}

func (s *service) List(ctx context.Context, viewerID *uuid.UUID) ([]*model.TagView, error) {
	return s.repo.List(ctx, viewerID)
}

func (s *service) ToggleObserve(ctx context.Context, name string, userID uuid.UUID) (bool, error) {
	normalized, err := s.Normalize(name)
	if err != nil {
		return false, err
	}
	return s.repo.ToggleObserve(ctx, normalized, userID)
}

func (s *service) ToggleBlacklist(ctx context.Context, name string, userID uuid.UUID) (bool, error) {
	normalized, err := s.Normalize(name)
	if err != nil {
		return false, err
	}
	return s.repo.ToggleBlacklist(ctx, normalized, userID)
}
