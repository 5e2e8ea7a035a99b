package model

import "errors"

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotRecipient    = errors.New("message belongs to another user")
	ErrSelfMessage     = errors.New("cannot message yourself")
)
