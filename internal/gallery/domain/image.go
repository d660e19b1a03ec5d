package domain

import (
	"time"

	"github.com/google/uuid"
)

// Image is the metadata of an uploaded picture. OwnerID is the subject of
// the access token that created it.
type Image struct {
	ID        uuid.UUID
	Title     string
	FileName  string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
