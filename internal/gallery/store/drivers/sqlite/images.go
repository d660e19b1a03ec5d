package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kaszm/imagegallery/internal/gallery/domain"
	"github.com/kaszm/imagegallery/internal/gallery/store"
	"github.com/kaszm/imagegallery/internal/gallery/store/drivers/sqlite/gen"
)

type imagesRepo struct {
	q *gen.Queries
}

func (r *imagesRepo) CreateImage(ctx context.Context, img domain.Image) error {
	return r.q.CreateImage(ctx, gen.CreateImageParams{
		ID:        img.ID.String(),
		Title:     img.Title,
		FileName:  img.FileName,
		OwnerID:   img.OwnerID,
		CreatedAt: img.CreatedAt,
		UpdatedAt: img.UpdatedAt,
	})
}

func (r *imagesRepo) GetImage(ctx context.Context, id uuid.UUID) (domain.Image, error) {
	row, err := r.q.GetImage(ctx, id.String())
	if err != nil {
		return domain.Image{}, mapNotFound(err)
	}
	return toDomainImage(row)
}

func (r *imagesRepo) ListImagesByOwner(ctx context.Context, ownerID string) ([]domain.Image, error) {
	rows, err := r.q.ListImagesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Image, 0, len(rows))
	for _, row := range rows {
		img, err := toDomainImage(row)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func (r *imagesRepo) UpdateImageTitle(ctx context.Context, id uuid.UUID, title string) error {
	n, err := r.q.UpdateImageTitle(ctx, gen.UpdateImageTitleParams{
		Title:     title,
		UpdatedAt: time.Now().UTC(),
		ID:        id.String(),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *imagesRepo) DeleteImage(ctx context.Context, id uuid.UUID) error {
	n, err := r.q.DeleteImage(ctx, id.String())
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *imagesRepo) IsOwner(ctx context.Context, id uuid.UUID, ownerID string) (bool, error) {
	found, err := r.q.IsImageOwner(ctx, gen.IsImageOwnerParams{ID: id.String(), OwnerID: ownerID})
	if err != nil {
		return false, err
	}
	return found == 1, nil
}

func toDomainImage(row gen.Image) (domain.Image, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return domain.Image{}, err
	}
	return domain.Image{
		ID:        id,
		Title:     row.Title,
		FileName:  row.FileName,
		OwnerID:   row.OwnerID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
