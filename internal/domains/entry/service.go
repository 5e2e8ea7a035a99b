package entry

import (
	"context"
	"sort"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bloggy-backend/internal/domains/entry/model"
	"bloggy-backend/internal/domains/notification"
	"bloggy-backend/internal/domains/user"
	"bloggy-backend/internal/shared/content"
)

// PointsInvalidator drops a user's cached score when their entries or
// received votes change.
type PointsInvalidator interface {
	InvalidatePoints(ctx context.Context, userID uuid.UUID)
}

type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, authorUsername string, req CreateRequest) (*model.Entry, error)
	Update(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID, req UpdateRequest) (*model.Entry, error)
	Delete(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID) error
	Vote(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID, voteType model.VoteType) (*model.Entry, error)
	Get(ctx context.Context, entryID uuid.UUID, viewerID *uuid.UUID) (*model.Entry, error)
	GetThread(ctx context.Context, rootID uuid.UUID, viewerID *uuid.UUID, maxDepth int) (*model.ThreadView, error)
	ListByUsername(ctx context.Context, username string, viewerID *uuid.UUID) ([]*model.Entry, error)
}

type service struct {
	repo          Repository
	users         user.Repository
	notifications notification.Service
	formatter     *content.Formatter
	points        PointsInvalidator
	maxContentLen int
}

func NewService(
	repo Repository,
	users user.Repository,
	notifications notification.Service,
	formatter *content.Formatter,
	points PointsInvalidator,
	maxContentLen int,
) Service {
	return &service{
		repo:          repo,
		users:         users,
		notifications: notifications,
		formatter:     formatter,
		points:        points,
		maxContentLen: maxContentLen,
	}
}

// Create saves a new entry and runs the notification fan-out. The
// author starts with an automatic upvote on their own entry.
func (s *service) Create(ctx context.Context, authorID uuid.UUID, authorUsername string, req CreateRequest) (*model.Entry, error) {
	sanitized := s.formatter.Sanitize(req.Content)
	if utf8.RuneCountInString(sanitized) > s.maxContentLen {
		return nil, model.ErrContentTooLong
	}

	var parentID *uuid.UUID
	var parentAuthorID *uuid.UUID
	if req.ParentID != nil {
		id, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return nil, model.ErrParentNotFound
		}

		parent, err := s.repo.GetByID(ctx, id, nil)
		if err != nil {
			return nil, model.ErrParentNotFound
		}

		parentID = &parent.ID
		parentAuthorID = &parent.UserID
	}

	formatted, err := s.formatter.Format(req.Content)
	if err != nil {
		return nil, err
	}

	e := &model.Entry{
		ID:               uuid.New(),
		UserID:           authorID,
		Author:           authorUsername,
		ParentID:         parentID,
		Content:          sanitized,
		ContentFormatted: formatted,
	}

	tags := s.formatter.ExtractTags(req.Content)
	if err := s.repo.Create(ctx, e, tags); err != nil {
		return nil, err
	}
	e.Upvotes = 1
	e.Tags = tags

	s.points.InvalidatePoints(ctx, authorID)

	event := notification.EntryEvent{
		EntryID:        e.ID,
		AuthorID:       authorID,
		AuthorUsername: authorUsername,
		Content:        req.Content,
		Mentions:       s.formatter.ExtractMentions(req.Content),
		Tags:           tags,
		ParentAuthorID: parentAuthorID,
		IsRoot:         parentID == nil,
	}
	if err := s.notifications.FanOut(ctx, event); err != nil {
		// The entry is saved; a failed fan-out is not worth a 500.
		log.Error().Err(err).Str("entry_id", e.ID.String()).Msg("Notification fan-out failed")
	}

	return e, nil
}

// Update rewrites an entry's content. Only the author may edit, a
// deleted entry is immutable, and editing never re-notifies anyone.
func (s *service) Update(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID, req UpdateRequest) (*model.Entry, error) {
	sanitized := s.formatter.Sanitize(req.Content)
	if utf8.RuneCountInString(sanitized) > s.maxContentLen {
		return nil, model.ErrContentTooLong
	}

	e, err := s.repo.GetByID(ctx, entryID, &actorID)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, model.ErrEntryDeleted
	}
	if e.UserID != actorID {
		return nil, model.ErrNotAuthor
	}

	formatted, err := s.formatter.Format(req.Content)
	if err != nil {
		return nil, err
	}

	e.Content = sanitized
	e.ContentFormatted = formatted

	tags := s.formatter.ExtractTags(req.Content)
	if err := s.repo.Update(ctx, e, tags); err != nil {
		return nil, err
	}
	e.Tags = tags

	return e, nil
}

// Delete removes an entry in three steps: its notifications go away,
// a one-time archive snapshot is written, then the entry is either
// soft-deleted (has replies) or removed outright (leaf).
func (s *service) Delete(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID) error {
	e, err := s.repo.GetByID(ctx, entryID, nil)
	if err != nil {
		return err
	}
	if e.UserID != actorID {
		return model.ErrNotAuthor
	}

	if err := s.notifications.DeleteForEntry(ctx, entryID); err != nil {
		return err
	}

	soft, err := s.repo.Delete(ctx, e)
	if err != nil {
		return err
	}

	s.points.InvalidatePoints(ctx, e.UserID)

	log.Info().
		Str("entry_id", entryID.String()).
		Bool("soft", soft).
		Msg("Entry deleted")

	return nil
}

// Vote toggles the actor's vote and returns the entry with fresh
// counts. Voting on a deleted entry is rejected.
func (s *service) Vote(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID, voteType model.VoteType) (*model.Entry, error) {
	if voteType != model.VoteUp && voteType != model.VoteDown {
		return nil, model.ErrInvalidVoteType
	}

	e, err := s.repo.GetByID(ctx, entryID, nil)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, model.ErrEntryDeleted
	}

	if err := s.repo.ToggleVote(ctx, entryID, actorID, voteType); err != nil {
		return nil, err
	}

	s.points.InvalidatePoints(ctx, e.UserID)

	return s.repo.GetByID(ctx, entryID, &actorID)
}

func (s *service) Get(ctx context.Context, entryID uuid.UUID, viewerID *uuid.UUID) (*model.Entry, error) {
	e, err := s.repo.GetByID(ctx, entryID, viewerID)
	if err != nil {
		return nil, err
	}

	tags, err := s.repo.GetTags(ctx, entryID)
	if err != nil {
		return nil, err
	}
	e.Tags = tags

	return e, nil
}

// GetThread returns the entry in context: its parent when it has one
// and the tree below it, children ordered oldest first. Nodes deeper
// than maxDepth are cut off and the deepest shown ancestor is flagged
// as having hidden children.
func (s *service) GetThread(ctx context.Context, rootID uuid.UUID, viewerID *uuid.UUID, maxDepth int) (*model.ThreadView, error) {
	entries, err := s.repo.ListThread(ctx, rootID, viewerID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, model.ErrEntryNotFound
	}

	tree := BuildTree(entries, rootID, maxDepth)
	if tree == nil {
		return nil, model.ErrEntryNotFound
	}

	view := &model.ThreadView{Thread: tree}
	if tree.ParentID != nil {
		parent, err := s.repo.GetByID(ctx, *tree.ParentID, viewerID)
		if err != nil {
			return nil, err
		}
		view.Parent = parent
	}

	return view, nil
}

func (s *service) ListByUsername(ctx context.Context, username string, viewerID *uuid.UUID) ([]*model.Entry, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByAuthor(ctx, author.ID, viewerID)
}

// BuildTree assembles a flat thread into a depth-capped tree. The walk
// is depth-first with siblings oldest first. A node at maxDepth or
// beyond is dropped, and the node shown last before the cut is marked
// as hiding children.
func BuildTree(entries []*model.Entry, rootID uuid.UUID, maxDepth int) *model.TreeNode {
	byParent := make(map[uuid.UUID][]*model.Entry)
	var root *model.Entry
	for _, e := range entries {
		if e.ID == rootID {
			root = e
			continue
		}
		if e.ParentID != nil {
			byParent[*e.ParentID] = append(byParent[*e.ParentID], e)
		}
	}
	if root == nil {
		return nil
	}

	for _, children := range byParent {
		sort.SliceStable(children, func(i, j int) bool {
			return children[i].CreatedDate.Before(children[j].CreatedDate)
		})
	}

	rootNode := &model.TreeNode{Entry: root, Depth: 0}
	var lastIncluded *model.TreeNode = rootNode

	var walk func(node *model.TreeNode)
	walk = func(node *model.TreeNode) {
		for _, child := range byParent[node.ID] {
			if node.Depth+1 >= maxDepth {
				lastIncluded.HasHiddenChildren = true
				continue
			}
			childNode := &model.TreeNode{Entry: child, Depth: node.Depth + 1}
			node.Children = append(node.Children, childNode)
			lastIncluded = childNode
			walk(childNode)
		}
	}
	walk(rootNode)

	return rootNode
}
