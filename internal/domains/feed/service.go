package feed

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"bloggy-backend/internal/domains/entry"
	entrymodel "bloggy-backend/internal/domains/entry/model"
	"bloggy-backend/internal/domains/tag"
	tagmodel "bloggy-backend/internal/domains/tag/model"
)

type Sort string

const (
	SortNew Sort = "new"
	SortTop Sort = "top"
	SortHot Sort = "hot"
)

// Page is one page of the feed: ranked root entries, each carrying its
// depth-capped reply tree.
type Page struct {
	Items      []*entrymodel.TreeNode `json:"items"`
	Page       int                    `json:"page"`
	TotalPages int                    `json:"total_pages"`
	TotalRoots int                    `json:"total_roots"`
	Sort       Sort                   `json:"sort"`
	Tag        string                 `json:"tag,omitempty"`
}

type Config struct {
	PageSize  int
	HotWindow time.Duration
	MaxDepth  int
}

type Service interface {
	BuildPage(ctx context.Context, viewerID *uuid.UUID, sortMode Sort, tagName, pageParam string) (*Page, error)
}

type service struct {
	entries entry.Repository
	tags    tag.Repository
	tagSvc  tag.Service
	cfg     Config
	now     func() time.Time
}

func NewService(entries entry.Repository, tags tag.Repository, tagSvc tag.Service, cfg Config) Service {
	return &service{
		entries: entries,
		tags:    tags,
		tagSvc:  tagSvc,
		cfg:     cfg,
		now:     time.Now,
	}
}

// BuildPage assembles a feed page:
// 1. Resolve the optional tag filter; browsing a tag creates it.
// 2. Load root entries, newest first.
// 3. Drop roots carrying a tag the viewer blacklisted, except the
//    viewer's own roots. Blacklists only apply to the untagged feed.
// 4. Rank by the requested sort. Hot only considers recent roots.
// 5. Clamp the page number and slice out one page.
// 6. Rebuild each root's reply tree up to the depth cap.
func (s *service) BuildPage(ctx context.Context, viewerID *uuid.UUID, sortMode Sort, tagName, pageParam string) (*Page, error) {
	var tagFilter *string
	if tagName != "" {
		normalized, err := s.tagSvc.Normalize(tagName)
		if err != nil {
			return nil, tagmodel.ErrInvalidTagName
		}
		if err := s.tags.EnsureExists(ctx, normalized); err != nil {
			return nil, err
		}
		tagFilter = &normalized
	}

	roots, err := s.entries.ListRoots(ctx, tagFilter, viewerID)
	if err != nil {
		return nil, err
	}

	if tagFilter == nil && viewerID != nil {
		roots, err = s.applyBlacklist(ctx, roots, *viewerID)
		if err != nil {
			return nil, err
		}
	}

	roots = s.rank(roots, sortMode)

	total := len(roots)
	totalPages := (total + s.cfg.PageSize - 1) / s.cfg.PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := parsePage(pageParam, totalPages)

	start := (page - 1) * s.cfg.PageSize
	end := start + s.cfg.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]*entrymodel.TreeNode, 0, end-start)
	for _, root := range roots[start:end] {
		thread, err := s.entries.ListThread(ctx, root.ID, viewerID)
		if err != nil {
			return nil, err
		}
		if tree := entry.BuildTree(thread, root.ID, s.cfg.MaxDepth); tree != nil {
			items = append(items, tree)
		}
	}

	result := &Page{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		TotalRoots: total,
		Sort:       sortMode,
	}
	if tagFilter != nil {
		result.Tag = *tagFilter
	}
	return result, nil
}

func (s *service) applyBlacklist(ctx context.Context, roots []*entrymodel.Entry, viewerID uuid.UUID) ([]*entrymodel.Entry, error) {
	blacklisted, err := s.tags.GetBlacklistedNames(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(blacklisted) == 0 {
		return roots, nil
	}

	blocked := make(map[string]struct{}, len(blacklisted))
	for _, name := range blacklisted {
		blocked[name] = struct{}{}
	}

	ids := make([]uuid.UUID, len(roots))
	for i, root := range roots {
		ids[i] = root.ID
	}
	entryTags, err := s.tags.GetEntryTags(ctx, ids)
	if err != nil {
		return nil, err
	}

	kept := roots[:0]
	for _, root := range roots {
		if root.UserID == viewerID {
			kept = append(kept, root)
			continue
		}
		hidden := false
		for _, name := range entryTags[root.ID] {
			if _, ok := blocked[name]; ok {
				hidden = true
				break
			}
		}
		if !hidden {
			kept = append(kept, root)
		}
	}
	return kept, nil
}

// rank orders roots for the requested mode. Input arrives newest
// first; stable sorts keep that as the tiebreak.
func (s *service) rank(roots []*entrymodel.Entry, sortMode Sort) []*entrymodel.Entry {
	switch sortMode {
	case SortTop:
		sort.SliceStable(roots, func(i, j int) bool {
			return roots[i].Points() > roots[j].Points()
		})
	case SortHot:
		cutoff := s.now().Add(-s.cfg.HotWindow)
		recent := make([]*entrymodel.Entry, 0, len(roots))
		for _, root := range roots {
			if root.CreatedDate.After(cutoff) {
				recent = append(recent, root)
			}
		}
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].Hotness() > recent[j].Hotness()
		})
		return recent
	}
	return roots
}

// parsePage clamps the page parameter. Anything unparseable becomes
// page 1 and anything past the end becomes the last page.
func parsePage(param string, totalPages int) int {
	page, err := strconv.Atoi(param)
	if err != nil || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
