package model

import "errors"

var (
	ErrEntryNotFound   = errors.New("entry not found")
	ErrEntryDeleted    = errors.New("entry has been deleted")
	ErrNotAuthor       = errors.New("entry belongs to another user")
	ErrContentTooLong  = errors.New("content exceeds maximum length")
	ErrParentNotFound  = errors.New("parent entry not found")
	ErrInvalidVoteType = errors.New("invalid vote type")
)
