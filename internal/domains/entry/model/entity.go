package model

import (
	"time"

	"github.com/google/uuid"
)

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// DeletedContent replaces the body of a soft-deleted entry. The row
// survives so its subtree stays attached.
const DeletedContent = "<p><em>deleted</em></p>"

// NextVote resolves a vote toggle against the actor's current vote.
// Repeating the same vote removes it (nil, un-vote); any other state,
// including an opposite existing vote, ends with the requested vote
// recorded.
func NextVote(existing *VoteType, requested VoteType) *VoteType {
	if existing != nil && *existing == requested {
		return nil
	}
	return &requested
}

type Entry struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Author           string     `json:"author"`
	ParentID         *uuid.UUID `json:"parent_id,omitempty"`
	Content          string     `json:"content"`
	ContentFormatted string     `json:"content_formatted"`
	CreatedDate      time.Time  `json:"created_date"`
	ModifiedDate     *time.Time `json:"modified_date,omitempty"`
	Deleted          bool       `json:"deleted"`
	Upvotes          int64      `json:"upvotes"`
	Downvotes        int64      `json:"downvotes"`
	DirectChildren   int64      `json:"direct_children"`
	UserVote         *VoteType  `json:"user_vote,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
}

// Points is the entry's displayed score.
func (e *Entry) Points() int64 {
	return e.Upvotes - e.Downvotes
}

// Hotness ranks an entry by raw activity. Both vote directions count;
// a controversial entry is still a busy one.
func (e *Entry) Hotness() float64 {
	return float64(e.Upvotes) + float64(e.Downvotes) + 0.5*float64(e.DirectChildren)
}

// TreeNode is an entry placed in its thread, children ordered oldest
// first. HasHiddenChildren marks the deepest shown node of a branch
// that continues past the depth cap.
type TreeNode struct {
	*Entry
	Depth             int         `json:"depth"`
	HasHiddenChildren bool        `json:"has_hidden_children"`
	Children          []*TreeNode `json:"children"`
}

// ThreadView is an entry in context: its parent when it has one, and
// the depth-capped tree below it.
type ThreadView struct {
	Parent *Entry    `json:"parent,omitempty"`
	Thread *TreeNode `json:"thread"`
}

// DeletedEntry is the point-in-time archive row written when an entry
// is deleted. Written at most once per entry.
type DeletedEntry struct {
	ID           uuid.UUID   `json:"id"`
	OldID        uuid.UUID   `json:"old_id"`
	UserID       uuid.UUID   `json:"user_id"`
	ParentID     *uuid.UUID  `json:"parent_id,omitempty"`
	Content      string      `json:"content"`
	UpvoterIDs   []uuid.UUID `json:"upvoter_ids"`
	DownvoterIDs []uuid.UUID `json:"downvoter_ids"`
	CreatedOn    time.Time   `json:"created_on"`
	DeletedOn    time.Time   `json:"deleted_on"`
}
