package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloggy-backend/internal/domains/notification/model"
	tagmodel "bloggy-backend/internal/domains/tag/model"
	usermodel "bloggy-backend/internal/domains/user/model"
)

// ==================== Fakes ====================

type fakeRepo struct {
	notifications []*model.Notification
}

func (f *fakeRepo) BulkCreate(_ context.Context, ns []*model.Notification) error {
	f.notifications = append(f.notifications, ns...)
	return nil
}

func (f *fakeRepo) ListByTarget(_ context.Context, targetID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.notifications {
		if n.TargetID == targetID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) UnreadCount(_ context.Context, targetID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.TargetID == targetID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	for _, n := range f.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, model.ErrNotificationNotFound
}

func (f *fakeRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	for _, n := range f.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return model.ErrNotificationNotFound
}

func (f *fakeRepo) MarkAllRead(_ context.Context, targetID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.TargetID == targetID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) DeleteByObject(_ context.Context, kind model.ObjectKind, objectID uuid.UUID) error {
	var kept []*model.Notification
	for _, n := range f.notifications {
		if n.ObjectKind != kind || n.ObjectID != objectID {
			kept = append(kept, n)
		}
	}
	f.notifications = kept
	return nil
}

type fakeUserRepo struct {
	byUsername map[string]*usermodel.User
}

func (f *fakeUserRepo) Create(context.Context, *usermodel.User) error { return nil }

func (f *fakeUserRepo) GetByID(context.Context, uuid.UUID) (*usermodel.User, error) {
	return nil, usermodel.ErrUserNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*usermodel.User, error) {
	if u, ok := f.byUsername[username]; ok {
		return u, nil
	}
	return nil, usermodel.ErrUserNotFound
}

func (f *fakeUserRepo) GetByUsernames(_ context.Context, usernames []string) ([]*usermodel.User, error) {
	var out []*usermodel.User
	for _, name := range usernames {
		if u, ok := f.byUsername[strings.ToLower(name)]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetPointsBreakdown(context.Context, uuid.UUID) (*usermodel.PointsBreakdown, error) {
	return &usermodel.PointsBreakdown{}, nil
}

type fakeTagRepo struct {
	observers map[string][]uuid.UUID
}

func (f *fakeTagRepo) GetOrCreate(_ context.Context, name string, authorID uuid.UUID) (*tagmodel.Tag, error) {
	return &tagmodel.Tag{Name: name, AuthorID: &authorID}, nil
}

func (f *fakeTagRepo) EnsureExists(context.Context, string) error { return nil }

func (f *fakeTagRepo) GetEntryTags(context.Context, []uuid.UUID) (map[uuid.UUID][]string, error) {
	return nil, nil
}

func (f *fakeTagRepo) Get(context.Context, string, *uuid.UUID) (*tagmodel.TagView, error) {
	return nil, tagmodel.ErrTagNotFound
}

func (f *fakeTagRepo) List(context.Context, *uuid.UUID) ([]*tagmodel.TagView, error) {
	return nil, nil
}

func (f *fakeTagRepo) SetEntryTags(context.Context, pgx.Tx, uuid.UUID, []string, uuid.UUID) error {
	return nil
}

func (f *fakeTagRepo) GetObserverIDs(_ context.Context, names []string) (map[string][]uuid.UUID, error) {
	out := make(map[string][]uuid.UUID)
	for _, name := range names {
		out[name] = f.observers[name]
	}
	return out, nil
}

func (f *fakeTagRepo) GetBlacklistedNames(context.Context, uuid.UUID) ([]string, error) {
	return nil, nil
}

func (f *fakeTagRepo) ToggleObserve(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeTagRepo) ToggleBlacklist(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}

// ==================== Helpers ====================

func newTestService(users *fakeUserRepo, tags *fakeTagRepo) (Service, *fakeRepo) {
	repo := &fakeRepo{}
	if users == nil {
		users = &fakeUserRepo{byUsername: map[string]*usermodel.User{}}
	}
	if tags == nil {
		tags = &fakeTagRepo{observers: map[string][]uuid.UUID{}}
	}
	return NewService(repo, users, tags, 25), repo
}

func byType(ns []*model.Notification, typ model.Type) []*model.Notification {
	var out []*model.Notification
	for _, n := range ns {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// ==================== Tests ====================

func TestFanOutMentions(t *testing.T) {
	ctx := context.Background()
	author := &usermodel.User{ID: uuid.New(), Username: "author"}
	alice := &usermodel.User{ID: uuid.New(), Username: "alice"}
	bob := &usermodel.User{ID: uuid.New(), Username: "bob"}

	users := &fakeUserRepo{byUsername: map[string]*usermodel.User{
		"author": author, "alice": alice, "bob": bob,
	}}
	svc, repo := newTestService(users, nil)

	err := svc.FanOut(ctx, EntryEvent{
		EntryID:        uuid.New(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        "hi @alice and @bob and @author and @ghost",
		Mentions:       []string{"alice", "author", "bob", "ghost"},
		IsRoot:         true,
	})
	require.NoError(t, err)

	mentions := byType(repo.notifications, model.TypeMention)
	require.Len(t, mentions, 2)

	targets := map[uuid.UUID]bool{}
	for _, n := range mentions {
		targets[n.TargetID] = true
		assert.Equal(t, author.ID, n.SenderID)
		assert.Equal(t, model.ObjectKindEntry, n.ObjectKind)
	}
	assert.True(t, targets[alice.ID], "alice should be notified")
	assert.True(t, targets[bob.ID], "bob should be notified")
	assert.False(t, targets[author.ID], "author must not notify themselves")
}

func TestFanOutMentionCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	author := &usermodel.User{ID: uuid.New(), Username: "author"}
	alice := &usermodel.User{ID: uuid.New(), Username: "alice"}

	users := &fakeUserRepo{byUsername: map[string]*usermodel.User{
		"author": author, "alice": alice,
	}}
	svc, repo := newTestService(users, nil)

	err := svc.FanOut(ctx, EntryEvent{
		EntryID:        uuid.New(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        "hi @Alice",
		Mentions:       []string{"Alice"},
		IsRoot:         true,
	})
	require.NoError(t, err)

	mentions := byType(repo.notifications, model.TypeMention)
	require.Len(t, mentions, 1, "mention casing must not matter")
	assert.Equal(t, alice.ID, mentions[0].TargetID)
}

func TestFanOutReplySupersedesMention(t *testing.T) {
	ctx := context.Background()
	author := &usermodel.User{ID: uuid.New(), Username: "author"}
	parentAuthor := &usermodel.User{ID: uuid.New(), Username: "parent"}

	users := &fakeUserRepo{byUsername: map[string]*usermodel.User{
		"author": author, "parent": parentAuthor,
	}}
	svc, repo := newTestService(users, nil)

	err := svc.FanOut(ctx, EntryEvent{
		EntryID:        uuid.New(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        "replying to @parent",
		Mentions:       []string{"parent"},
		ParentAuthorID: &parentAuthor.ID,
	})
	require.NoError(t, err)

	require.Len(t, repo.notifications, 1)
	assert.Equal(t, model.TypeReply, repo.notifications[0].Type)
	assert.Equal(t, parentAuthor.ID, repo.notifications[0].TargetID)
}

func TestFanOutNoReplyToSelf(t *testing.T) {
	ctx := context.Background()
	author := &usermodel.User{ID: uuid.New(), Username: "author"}

	users := &fakeUserRepo{byUsername: map[string]*usermodel.User{"author": author}}
	svc, repo := newTestService(users, nil)

	err := svc.FanOut(ctx, EntryEvent{
		EntryID:        uuid.New(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        "replying to my own entry",
		ParentAuthorID: &author.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, repo.notifications)
}

func TestFanOutTagObservers(t *testing.T) {
	ctx := context.Background()
	author := &usermodel.User{ID: uuid.New(), Username: "author"}
	watcher := uuid.New()
	bothWatcher := uuid.New()

	users := &fakeUserRepo{byUsername: map[string]*usermodel.User{"author": author}}
	tags := &fakeTagRepo{observers: map[string][]uuid.UUID{
		"golang": {watcher, bothWatcher, author.ID},
		"gin":    {bothWatcher},
	}}
	svc, repo := newTestService(users, tags)

	err := svc.FanOut(ctx, EntryEvent{
		EntryID:        uuid.New(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        "a long post about #golang and #gin frameworks",
		Tags:           []string{"gin", "golang"},
		IsRoot:         true,
	})
	require.NoError(t, err)

	tagUsed := byType(repo.notifications, model.TypeTagUsed)
	require.Len(t, tagUsed, 2, "one per observer, deduplicated across tags")

	targets := map[uuid.UUID]int{}
	for _, n := range tagUsed {
		targets[n.TargetID]++
		assert.NotEmpty(t, n.Content)
	}
	assert.Equal(t, 1, targets[watcher])
	assert.Equal(t, 1, targets[bothWatcher], "watcher of both tags notified once")
	assert.Zero(t, targets[author.ID], "author not notified for own tags")
}

func TestFanOutTagObserversOnlyForRoots(t *testing.T) {
	ctx := context.Background()
	author := &usermodel.User{ID: uuid.New(), Username: "author"}
	parentAuthorID := uuid.New()
	watcher := uuid.New()

	users := &fakeUserRepo{byUsername: map[string]*usermodel.User{"author": author}}
	tags := &fakeTagRepo{observers: map[string][]uuid.UUID{"golang": {watcher}}}
	svc, repo := newTestService(users, tags)

	err := svc.FanOut(ctx, EntryEvent{
		EntryID:        uuid.New(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        "a reply with #golang",
		Tags:           []string{"golang"},
		ParentAuthorID: &parentAuthorID,
		IsRoot:         false,
	})
	require.NoError(t, err)

	assert.Empty(t, byType(repo.notifications, model.TypeTagUsed))
	require.Len(t, byType(repo.notifications, model.TypeReply), 1)
}

func TestFanOutTagUsedExcerpt(t *testing.T) {
	ctx := context.Background()
	author := &usermodel.User{ID: uuid.New(), Username: "author"}
	watcher := uuid.New()

	users := &fakeUserRepo{byUsername: map[string]*usermodel.User{"author": author}}
	tags := &fakeTagRepo{observers: map[string][]uuid.UUID{"news": {watcher}}}
	svc, repo := newTestService(users, tags)

	long := "0123456789012345678901234567890123456789 #news"
	err := svc.FanOut(ctx, EntryEvent{
		EntryID:        uuid.New(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        long,
		Tags:           []string{"news"},
		IsRoot:         true,
	})
	require.NoError(t, err)

	tagUsed := byType(repo.notifications, model.TypeTagUsed)
	require.Len(t, tagUsed, 1)
	assert.Contains(t, tagUsed[0].Content, "0123456789012345678901234...")
	assert.Contains(t, tagUsed[0].Content, `<a href="/users/author">@author</a>`)
	assert.Contains(t, tagUsed[0].Content, `<a href="/entries/tag/news">#news</a>`)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(nil, nil)

	target := uuid.New()
	other := uuid.New()
	n := &model.Notification{
		ID:         uuid.New(),
		Type:       model.TypeMention,
		SenderID:   uuid.New(),
		TargetID:   target,
		ObjectKind: model.ObjectKindEntry,
		ObjectID:   uuid.New(),
	}
	repo.notifications = append(repo.notifications, n)

	t.Run("recipient can mark read", func(t *testing.T) {
		require.NoError(t, svc.MarkRead(ctx, n.ID, target))
		assert.True(t, n.Read)
	})

	t.Run("marking again is a no-op", func(t *testing.T) {
		require.NoError(t, svc.MarkRead(ctx, n.ID, target))
		assert.True(t, n.Read)
	})

	t.Run("non-recipient is rejected", func(t *testing.T) {
		n2 := &model.Notification{ID: uuid.New(), TargetID: target}
		repo.notifications = append(repo.notifications, n2)
		err := svc.MarkRead(ctx, n2.ID, other)
		assert.ErrorIs(t, err, model.ErrNotRecipient)
	})

	t.Run("unknown notification", func(t *testing.T) {
		err := svc.MarkRead(ctx, uuid.New(), target)
		assert.ErrorIs(t, err, model.ErrNotificationNotFound)
	})
}

func TestDeleteForEntry(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(nil, nil)

	entryID := uuid.New()
	otherEntryID := uuid.New()
	repo.notifications = []*model.Notification{
		{ID: uuid.New(), ObjectKind: model.ObjectKindEntry, ObjectID: entryID},
		{ID: uuid.New(), ObjectKind: model.ObjectKindEntry, ObjectID: entryID},
		{ID: uuid.New(), ObjectKind: model.ObjectKindEntry, ObjectID: otherEntryID},
	}

	require.NoError(t, svc.DeleteForEntry(ctx, entryID))
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, otherEntryID, repo.notifications[0].ObjectID)
}
