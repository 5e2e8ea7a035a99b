package notification

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bloggy-backend/internal/domains/notification/model"
	"bloggy-backend/internal/domains/tag"
	"bloggy-backend/internal/domains/user"
)

// EntryEvent describes a freshly saved entry for fan-out purposes.
type EntryEvent struct {
	EntryID        uuid.UUID
	AuthorID       uuid.UUID
	AuthorUsername string
	Content        string
	Mentions       []string
	Tags           []string
	ParentAuthorID *uuid.UUID
	IsRoot         bool
}

type Service interface {
	FanOut(ctx context.Context, event EntryEvent) error
	List(ctx context.Context, targetID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, targetID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, targetID uuid.UUID) error
	MarkAllRead(ctx context.Context, targetID uuid.UUID) (int64, error)
	DeleteForEntry(ctx context.Context, entryID uuid.UUID) error
}

type service struct {
	repo       Repository
	users      user.Repository
	tags       tag.Repository
	excerptLen int
}

func NewService(repo Repository, users user.Repository, tags tag.Repository, excerptLen int) Service {
	return &service{
		repo:       repo,
		users:      users,
		tags:       tags,
		excerptLen: excerptLen,
	}
}

// FanOut produces the notifications a saved entry owes, in order:
// a reply notification to the parent's author, mention notifications
// to everyone mentioned, then tag-used notifications to observers of
// the entry's tags when the entry is a new root.
//
// The author never notifies themselves. A user owed both a reply and a
// mention gets only the reply. Unknown mentioned usernames are skipped.
// Observers are deduplicated across tags so a user watching two of the
// entry's tags hears about it once.
func (s *service) FanOut(ctx context.Context, event EntryEvent) error {
	var notifications []*model.Notification

	mentioned, err := s.resolveMentions(ctx, event.Mentions)
	if err != nil {
		return err
	}
	delete(mentioned, event.AuthorID)

	if event.ParentAuthorID != nil && *event.ParentAuthorID != event.AuthorID {
		notifications = append(notifications, s.build(model.TypeReply, event, *event.ParentAuthorID, ""))
		delete(mentioned, *event.ParentAuthorID)
	}

	for targetID := range mentioned {
		notifications = append(notifications, s.build(model.TypeMention, event, targetID, ""))
	}

	if event.IsRoot && len(event.Tags) > 0 {
		observers, err := s.tags.GetObserverIDs(ctx, event.Tags)
		if err != nil {
			return err
		}

		notified := make(map[uuid.UUID]struct{})
		for _, tagName := range event.Tags {
			for _, observerID := range observers[tagName] {
				if observerID == event.AuthorID {
					continue
				}
				if _, done := notified[observerID]; done {
					continue
				}
				notified[observerID] = struct{}{}
				notifications = append(notifications,
					s.build(model.TypeTagUsed, event, observerID, s.tagUsedContent(event, tagName)))
			}
		}
	}

	if err := s.repo.BulkCreate(ctx, notifications); err != nil {
		return err
	}

	if len(notifications) > 0 {
		log.Debug().
			Str("entry_id", event.EntryID.String()).
			Int("count", len(notifications)).
			Msg("Notifications fanned out")
	}

	return nil
}

func (s *service) List(ctx context.Context, targetID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	return s.repo.ListByTarget(ctx, targetID, unreadOnly)
}

func (s *service) UnreadCount(ctx context.Context, targetID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, targetID)
}

func (s *service) MarkRead(ctx context.Context, id, targetID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.TargetID != targetID {
		return model.ErrNotRecipient
	}
	if n.Read {
		return nil
	}
	return s.repo.MarkRead(ctx, id)
}

func (s *service) MarkAllRead(ctx context.Context, targetID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, targetID)
}

func (s *service) DeleteForEntry(ctx context.Context, entryID uuid.UUID) error {
	return s.repo.DeleteByObject(ctx, model.ObjectKindEntry, entryID)
}

func (s *service) resolveMentions(ctx context.Context, usernames []string) (map[uuid.UUID]struct{}, error) {
	resolved := make(map[uuid.UUID]struct{})
	if len(usernames) == 0 {
		return resolved, nil
	}

	users, err := s.users.GetByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		resolved[u.ID] = struct{}{}
	}
	return resolved, nil
}

func (s *service) build(typ model.Type, event EntryEvent, targetID uuid.UUID, content string) *model.Notification {
	return &model.Notification{
		ID:         uuid.New(),
		Type:       typ,
		SenderID:   event.AuthorID,
		TargetID:   targetID,
		ObjectKind: model.ObjectKindEntry,
		ObjectID:   event.EntryID,
		Content:    content,
	}
}

func (s *service) tagUsedContent(event EntryEvent, tagName string) string {
	return fmt.Sprintf(`<a href="/users/%s">@%s</a> used <a href="/entries/tag/%s">#%s</a>: %s`,
		event.AuthorUsername, event.AuthorUsername, tagName, tagName, s.excerpt(event.Content))
}

func (s *service) excerpt(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= s.excerptLen {
		return content
	}

	runes := []rune(content)
	return string(runes[:s.excerptLen]) + "..."
}
