package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kaszm/imagegallery/internal/gallery/domain"
	"github.com/kaszm/imagegallery/internal/gallery/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newImage(owner, title string, at time.Time) domain.Image {
	return domain.Image{
		ID:        uuid.New(),
		Title:     title,
		FileName:  uuid.NewString() + ".jpg",
		OwnerID:   owner,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestImagesCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	img := newImage("alice", "Sunset", now)
	require.NoError(t, s.Images().CreateImage(ctx, img))

	got, err := s.Images().GetImage(ctx, img.ID)
	require.NoError(t, err)
	require.Equal(t, img.Title, got.Title)
	require.Equal(t, img.OwnerID, got.OwnerID)
	require.True(t, img.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, s.Images().UpdateImageTitle(ctx, img.ID, "Sunrise"))
	got, err = s.Images().GetImage(ctx, img.ID)
	require.NoError(t, err)
	require.Equal(t, "Sunrise", got.Title)

	require.NoError(t, s.Images().DeleteImage(ctx, img.ID))
	_, err = s.Images().GetImage(ctx, img.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Images().DeleteImage(ctx, img.ID), store.ErrNotFound)
	require.ErrorIs(t, s.Images().UpdateImageTitle(ctx, img.ID, "x"), store.ErrNotFound)
}

func TestListImagesByOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Second)

	older := newImage("alice", "older", now.Add(-time.Hour))
	newer := newImage("alice", "newer", now)
	other := newImage("bob", "bob's", now)
	for _, img := range []domain.Image{older, newer, other} {
		require.NoError(t, s.Images().CreateImage(ctx, img))
	}

	list, err := s.Images().ListImagesByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, newer.ID, list[0].ID)
	require.Equal(t, older.ID, list[1].ID)

	list, err = s.Images().ListImagesByOwner(ctx, "carol")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestIsOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	img := newImage("alice", "Sunset", time.Now().UTC())
	require.NoError(t, s.Images().CreateImage(ctx, img))

	ok, err := s.Images().IsOwner(ctx, img.ID, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Images().IsOwner(ctx, img.ID, "bob")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Images().IsOwner(ctx, uuid.New(), "alice")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Images().IsOwner(ctx, uuid.Nil, "alice")
	require.NoError(t, err)
	require.False(t, ok)
}
