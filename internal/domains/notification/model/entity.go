package model

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeMention Type = "mention"
	TypeReply   Type = "reply"
	TypeTagUsed Type = "tag_used"
)

type ObjectKind string

const (
	ObjectKindEntry ObjectKind = "entry"
)

// Notification points at the object that caused it through a typed
// reference instead of a free-form URL, so consumers can resolve it
// without parsing paths.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	Type        Type       `json:"type"`
	SenderID    uuid.UUID  `json:"sender_id"`
	TargetID    uuid.UUID  `json:"target_id"`
	ObjectKind  ObjectKind `json:"object_kind"`
	ObjectID    uuid.UUID  `json:"object_id"`
	Content     string     `json:"content,omitempty"`
	Read        bool       `json:"read"`
	CreatedDate time.Time  `json:"created_date"`
}
