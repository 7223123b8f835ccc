package types

import (
	"time"

	"github.com/google/uuid"
)

// StatusComment is a reply attached to a vendor status post.
type StatusComment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
