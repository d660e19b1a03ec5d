package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kaszm/imagegallery/internal/gallery/domain"
)

var ErrNotFound = errors.New("store: not found")

type Store interface {
	Images() Images

	ApplyMigrations() error
	Close() error
	Ping(ctx context.Context) error
}

type Images interface {
	CreateImage(ctx context.Context, img domain.Image) error
	GetImage(ctx context.Context, id uuid.UUID) (domain.Image, error)

	// ListImagesByOwner returns the owner's images, newest first.
	ListImagesByOwner(ctx context.Context, ownerID string) ([]domain.Image, error)

	UpdateImageTitle(ctx context.Context, id uuid.UUID, title string) error
	DeleteImage(ctx context.Context, id uuid.UUID) error

	// IsOwner reports whether an image with id exists and belongs to ownerID.
	IsOwner(ctx context.Context, id uuid.UUID, ownerID string) (bool, error)
}
