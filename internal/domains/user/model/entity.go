package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the public view of a user, with the karma-style score
// derived from authored entries and received votes.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// PointsBreakdown holds the raw counters behind a user's score.
// Points = authored entries + upvotes received - downvotes received.
type PointsBreakdown struct {
	AuthoredCount     int64
	UpvotesReceived   int64
	DownvotesReceived int64
}

func (p PointsBreakdown) Total() int64 {
	return p.AuthoredCount + p.UpvotesReceived - p.DownvotesReceived
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
