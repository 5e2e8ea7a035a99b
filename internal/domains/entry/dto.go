package entry

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Content length is enforced by the service against the configured
// maximum; blank content is allowed.
type CreateRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ParentID, is.UUID),
	)
}

type UpdateRequest struct {
	Content string `json:"content"`
}

type VoteRequest struct {
	VoteType string `json:"vote_type"`
}

func (r VoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.VoteType, validation.Required, validation.In("up", "down")),
	)
}
