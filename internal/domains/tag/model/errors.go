package model

import "errors"

var (
	ErrTagNotFound   = errors.New("tag not found")
	ErrInvalidTagName = errors.New("invalid tag name")
)
