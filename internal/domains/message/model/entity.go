package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID          uuid.UUID  `json:"id"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Author      string     `json:"author"`
	TargetID    uuid.UUID  `json:"target_id"`
	Target      string     `json:"target"`
	Text        string     `json:"text"`
	Read        bool       `json:"read"`
	CreatedDate time.Time  `json:"created_date"`
	ReadDate    *time.Time `json:"read_date,omitempty"`
}
