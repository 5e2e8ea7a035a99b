package message

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type SendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

func (r SendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.To, validation.Required),
		validation.Field(&r.Text, validation.Required, validation.Length(1, 4000)),
	)
}
