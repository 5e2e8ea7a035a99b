package message

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"bloggy-backend/internal/domains/message/model"
	"bloggy-backend/internal/domains/user"
	"bloggy-backend/internal/shared/content"
)

type Service interface {
	Send(ctx context.Context, authorID uuid.UUID, req SendRequest) (*model.Message, error)
	Inbox(ctx context.Context, userID uuid.UUID, fromUsername string, unreadOnly bool) ([]*model.Message, error)
	Sent(ctx context.Context, userID uuid.UUID) ([]*model.Message, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo      Repository
	users     user.Repository
	formatter *content.Formatter
}

func NewService(repo Repository, users user.Repository, formatter *content.Formatter) Service {
	return &service{repo: repo, users: users, formatter: formatter}
}

// Send delivers a private message to a user addressed by username.
// Messaging yourself is rejected. Message text is never rendered as
// HTML, so every tag is stripped on the way in.
func (s *service) Send(ctx context.Context, authorID uuid.UUID, req SendRequest) (*model.Message, error) {
	target, err := s.users.GetByUsername(ctx, req.To)
	if err != nil {
		return nil, err
	}
	if target.ID == authorID {
		return nil, model.ErrSelfMessage
	}

	msg := &model.Message{
		ID:       uuid.New(),
		AuthorID: authorID,
		TargetID: target.ID,
		Target:   target.Username,
		Text:     strings.TrimSpace(s.formatter.StripTags(req.Text)),
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, msg.ID)
}

// Inbox lists received messages, optionally from one sender only.
func (s *service) Inbox(ctx context.Context, userID uuid.UUID, fromUsername string, unreadOnly bool) ([]*model.Message, error) {
	var fromID *uuid.UUID
	if fromUsername != "" {
		from, err := s.users.GetByUsername(ctx, fromUsername)
		if err != nil {
			return nil, err
		}
		fromID = &from.ID
	}

	return s.repo.ListInbox(ctx, userID, fromID, unreadOnly)
}

func (s *service) Sent(ctx context.Context, userID uuid.UUID) ([]*model.Message, error) {
	return s.repo.ListSent(ctx, userID)
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one received message as read. Only the recipient may
// do this and the read timestamp is set once.
func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if msg.TargetID != userID {
		return model.ErrNotRecipient
	}
	if msg.Read {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
