package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	entrymodel "bloggy-backend/internal/domains/entry/model"
	"bloggy-backend/internal/domains/tag"
	tagmodel "bloggy-backend/internal/domains/tag/model"
)

// ==================== Fakes ====================

type fakeEntriesRepo struct {
	roots   []*entrymodel.Entry
	threads map[uuid.UUID][]*entrymodel.Entry
	tagged  map[string][]uuid.UUID
}

func (f *fakeEntriesRepo) Create(context.Context, *entrymodel.Entry, []string) error { return nil }

func (f *fakeEntriesRepo) Update(context.Context, *entrymodel.Entry, []string) error { return nil }

func (f *fakeEntriesRepo) GetByID(context.Context, uuid.UUID, *uuid.UUID) (*entrymodel.Entry, error) {
	return nil, entrymodel.ErrEntryNotFound
}

func (f *fakeEntriesRepo) ListThread(_ context.Context, rootID uuid.UUID, _ *uuid.UUID) ([]*entrymodel.Entry, error) {
	if thread, ok := f.threads[rootID]; ok {
		return thread, nil
	}
	for _, root := range f.roots {
		if root.ID == rootID {
			return []*entrymodel.Entry{root}, nil
		}
	}
	return nil, nil
}

func (f *fakeEntriesRepo) ListRoots(_ context.Context, tagName *string, _ *uuid.UUID) ([]*entrymodel.Entry, error) {
	if tagName == nil {
		out := make([]*entrymodel.Entry, len(f.roots))
		copy(out, f.roots)
		return out, nil
	}
	allowed := map[uuid.UUID]bool{}
	for _, id := range f.tagged[*tagName] {
		allowed[id] = true
	}
	var out []*entrymodel.Entry
	for _, root := range f.roots {
		if allowed[root.ID] {
			out = append(out, root)
		}
	}
	return out, nil
}

func (f *fakeEntriesRepo) ListByAuthor(context.Context, uuid.UUID, *uuid.UUID) ([]*entrymodel.Entry, error) {
	return nil, nil
}

func (f *fakeEntriesRepo) Delete(context.Context, *entrymodel.Entry) (bool, error) { return false, nil }

func (f *fakeEntriesRepo) ToggleVote(context.Context, uuid.UUID, uuid.UUID, entrymodel.VoteType) error {
	return nil
}

func (f *fakeEntriesRepo) GetTags(context.Context, uuid.UUID) ([]string, error) { return nil, nil }

type fakeTagsRepo struct {
	ensured     []string
	entryTags   map[uuid.UUID][]string
	blacklisted map[uuid.UUID][]string
}

func (f *fakeTagsRepo) GetOrCreate(_ context.Context, name string, authorID uuid.UUID) (*tagmodel.Tag, error) {
	return &tagmodel.Tag{Name: name, AuthorID: &authorID}, nil
}

func (f *fakeTagsRepo) EnsureExists(_ context.Context, name string) error {
	f.ensured = append(f.ensured, name)
	return nil
}

func (f *fakeTagsRepo) GetEntryTags(_ context.Context, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string)
	for _, id := range ids {
		if tags, ok := f.entryTags[id]; ok {
			out[id] = tags
		}
	}
	return out, nil
}

func (f *fakeTagsRepo) Get(context.Context, string, *uuid.UUID) (*tagmodel.TagView, error) {
	return nil, tagmodel.ErrTagNotFound
}

func (f *fakeTagsRepo) List(context.Context, *uuid.UUID) ([]*tagmodel.TagView, error) {
	return nil, nil
}

func (f *fakeTagsRepo) SetEntryTags(context.Context, pgx.Tx, uuid.UUID, []string, uuid.UUID) error {
	return nil
}

func (f *fakeTagsRepo) GetObserverIDs(context.Context, []string) (map[string][]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeTagsRepo) GetBlacklistedNames(_ context.Context, userID uuid.UUID) ([]string, error) {
	return f.blacklisted[userID], nil
}

func (f *fakeTagsRepo) ToggleObserve(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeTagsRepo) ToggleBlacklist(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}

// ==================== Helpers ====================

func newTestFeed(entries *fakeEntriesRepo, tags *fakeTagsRepo, cfg Config) *service {
	if tags == nil {
		tags = &fakeTagsRepo{
			entryTags:   map[uuid.UUID][]string{},
			blacklisted: map[uuid.UUID][]string{},
		}
	}
	if entries.threads == nil {
		entries.threads = map[uuid.UUID][]*entrymodel.Entry{}
	}
	svc := NewService(entries, tags, tag.NewService(tags), cfg).(*service)
	return svc
}

func testConfig() Config {
	return Config{PageSize: 15, HotWindow: 6 * time.Hour, MaxDepth: 9}
}

func rootAt(age time.Duration, up, down, children int64) *entrymodel.Entry {
	return &entrymodel.Entry{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		CreatedDate:    time.Now().Add(-age),
		Upvotes:        up,
		Downvotes:      down,
		DirectChildren: children,
	}
}

func pageIDs(p *Page) []uuid.UUID {
	ids := make([]uuid.UUID, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.ID
	}
	return ids
}

// ==================== Tests ====================

func TestBuildPageNewOrder(t *testing.T) {
	ctx := context.Background()
	newest := rootAt(time.Minute, 0, 0, 0)
	middle := rootAt(time.Hour, 50, 0, 0)
	oldest := rootAt(24*time.Hour, 100, 0, 0)

	// Repository serves newest first.
	entries := &fakeEntriesRepo{roots: []*entrymodel.Entry{newest, middle, oldest}}
	svc := newTestFeed(entries, nil, testConfig())

	page, err := svc.BuildPage(ctx, nil, SortNew, "", "")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{newest.ID, middle.ID, oldest.ID}, pageIDs(page))
}

func TestBuildPageTopOrder(t *testing.T) {
	ctx := context.Background()
	low := rootAt(time.Minute, 1, 0, 0)
	controversial := rootAt(time.Hour, 30, 25, 0) // points 5
	high := rootAt(24*time.Hour, 10, 1, 0)        // points 9

	entries := &fakeEntriesRepo{roots: []*entrymodel.Entry{low, controversial, high}}
	svc := newTestFeed(entries, nil, testConfig())

	page, err := svc.BuildPage(ctx, nil, SortTop, "", "")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{high.ID, controversial.ID, low.ID}, pageIDs(page))
}

func TestBuildPageHotOrderAndWindow(t *testing.T) {
	ctx := context.Background()
	quiet := rootAt(time.Minute, 1, 0, 0)            // hotness 1
	busy := rootAt(time.Hour, 5, 5, 4)               // hotness 12
	ancientBusy := rootAt(48*time.Hour, 100, 100, 9) // outside the window

	entries := &fakeEntriesRepo{roots: []*entrymodel.Entry{quiet, busy, ancientBusy}}
	svc := newTestFeed(entries, nil, testConfig())

	page, err := svc.BuildPage(ctx, nil, SortHot, "", "")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{busy.ID, quiet.ID}, pageIDs(page),
		"old roots never rank hot, busiest first")
}

func TestBuildPageHotCountsBothVoteDirections(t *testing.T) {
	ctx := context.Background()
	upvoted := rootAt(time.Minute, 6, 0, 0)        // hotness 6
	controversial := rootAt(time.Minute, 4, 4, 0)  // hotness 8

	entries := &fakeEntriesRepo{roots: []*entrymodel.Entry{upvoted, controversial}}
	svc := newTestFeed(entries, nil, testConfig())

	page, err := svc.BuildPage(ctx, nil, SortHot, "", "")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{controversial.ID, upvoted.ID}, pageIDs(page))
}

func TestBuildPagePagination(t *testing.T) {
	ctx := context.Background()

	var roots []*entrymodel.Entry
	for i := 0; i < 5; i++ {
		roots = append(roots, rootAt(time.Duration(i)*time.Minute, 0, 0, 0))
	}
	entries := &fakeEntriesRepo{roots: roots}

	cfg := testConfig()
	cfg.PageSize = 2
	svc := newTestFeed(entries, nil, cfg)

	t.Run("first page", func(t *testing.T) {
		page, err := svc.BuildPage(ctx, nil, SortNew, "", "1")
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 5, page.TotalRoots)
		assert.Len(t, page.Items, 2)
	})

	t.Run("last page is short", func(t *testing.T) {
		page, err := svc.BuildPage(ctx, nil, SortNew, "", "3")
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
	})

	t.Run("non-numeric page becomes one", func(t *testing.T) {
		page, err := svc.BuildPage(ctx, nil, SortNew, "", "abc")
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
	})

	t.Run("page beyond range clamps to last", func(t *testing.T) {
		page, err := svc.BuildPage(ctx, nil, SortNew, "", "99")
		require.NoError(t, err)
		assert.Equal(t, 3, page.Page)
		assert.Len(t, page.Items, 1)
	})

	t.Run("zero page becomes one", func(t *testing.T) {
		page, err := svc.BuildPage(ctx, nil, SortNew, "", "0")
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
	})

	t.Run("empty feed is a valid single page", func(t *testing.T) {
		empty := newTestFeed(&fakeEntriesRepo{}, nil, cfg)
		page, err := empty.BuildPage(ctx, nil, SortNew, "", "7")
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 1, page.TotalPages)
		assert.Empty(t, page.Items)
	})
}

func TestBuildPageBlacklist(t *testing.T) {
	ctx := context.Background()
	viewerID := uuid.New()

	blocked := rootAt(time.Minute, 0, 0, 0)
	clean := rootAt(2*time.Minute, 0, 0, 0)
	own := rootAt(3*time.Minute, 0, 0, 0)
	own.UserID = viewerID

	entries := &fakeEntriesRepo{roots: []*entrymodel.Entry{blocked, clean, own}}
	tags := &fakeTagsRepo{
		entryTags: map[uuid.UUID][]string{
			blocked.ID: {"spam"},
			own.ID:     {"spam"},
		},
		blacklisted: map[uuid.UUID][]string{viewerID: {"spam"}},
	}
	svc := newTestFeed(entries, tags, testConfig())

	t.Run("blacklisted tag hides foreign roots but not own", func(t *testing.T) {
		page, err := svc.BuildPage(ctx, &viewerID, SortNew, "", "")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{clean.ID, own.ID}, pageIDs(page))
	})

	t.Run("anonymous viewers see everything", func(t *testing.T) {
		page, err := svc.BuildPage(ctx, nil, SortNew, "", "")
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)
	})

	t.Run("tag-filtered feeds ignore the blacklist", func(t *testing.T) {
		tags.entryTags[blocked.ID] = []string{"spam"}
		entries.tagged = map[string][]uuid.UUID{"spam": {blocked.ID}}
		page, err := svc.BuildPage(ctx, &viewerID, SortNew, "spam", "")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{blocked.ID}, pageIDs(page))
	})
}

func TestBuildPageTagFilter(t *testing.T) {
	ctx := context.Background()
	tagged := rootAt(time.Minute, 0, 0, 0)
	other := rootAt(2*time.Minute, 0, 0, 0)

	entries := &fakeEntriesRepo{
		roots:  []*entrymodel.Entry{tagged, other},
		tagged: map[string][]uuid.UUID{"golang": {tagged.ID}},
	}
	tags := &fakeTagsRepo{
		entryTags:   map[uuid.UUID][]string{},
		blacklisted: map[uuid.UUID][]string{},
	}
	svc := newTestFeed(entries, tags, testConfig())

	t.Run("filters to the tag and normalizes case", func(t *testing.T) {
		page, err := svc.BuildPage(ctx, nil, SortNew, "GoLang", "")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{tagged.ID}, pageIDs(page))
		assert.Equal(t, "golang", page.Tag)
		assert.Contains(t, tags.ensured, "golang", "browsing a tag materializes it")
	})

	t.Run("invalid tag name is rejected", func(t *testing.T) {
		_, err := svc.BuildPage(ctx, nil, SortNew, "no-dashes!", "")
		assert.ErrorIs(t, err, tagmodel.ErrInvalidTagName)
	})
}

func TestBuildPageDepthCappedThreads(t *testing.T) {
	ctx := context.Background()

	root := rootAt(time.Minute, 0, 0, 1)
	child := &entrymodel.Entry{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		ParentID:    &root.ID,
		CreatedDate: time.Now(),
	}

	entries := &fakeEntriesRepo{
		roots:   []*entrymodel.Entry{root},
		threads: map[uuid.UUID][]*entrymodel.Entry{root.ID: {root, child}},
	}
	svc := newTestFeed(entries, nil, testConfig())

	page, err := svc.BuildPage(ctx, nil, SortNew, "", "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Len(t, page.Items[0].Children, 1)
	assert.Equal(t, child.ID, page.Items[0].Children[0].ID)
	assert.Equal(t, 1, page.Items[0].Children[0].Depth)
}
