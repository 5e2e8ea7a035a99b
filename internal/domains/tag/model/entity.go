package model

import (
	"github.com/google/uuid"
)

// Tag is identified by its lowercase name. The author is whoever first
// used the tag in an entry.
type Tag struct {
	Name     string     `json:"name"`
	AuthorID *uuid.UUID `json:"author_id,omitempty"`
}

// TagView is a tag enriched with usage counts and, when the caller is
// authenticated, their relationship to it.
type TagView struct {
	Name          string `json:"name"`
	EntryCount    int64  `json:"entry_count"`
	ObserverCount int64  `json:"observer_count"`
	Observed      bool   `json:"observed"`
	Blacklisted   bool   `json:"blacklisted"`
}
