package http

import (
	"time"

	"github.com/kaszm/imagegallery/internal/gallery/domain"
)

// ImageResponse is the public view of an image.
type ImageResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	FileName  string    `json:"file_name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ImageListResponse struct {
	Images []ImageResponse `json:"images"`
}

type CreateImageRequest struct {
	Title    string `json:"title"`
	FileName string `json:"file_name"`
}

type UpdateImageRequest struct {
	Title string `json:"title"`
}

func toImageResponse(img domain.Image) ImageResponse {
	return ImageResponse{
		ID:        img.ID.String(),
		Title:     img.Title,
		FileName:  img.FileName,
		OwnerID:   img.OwnerID,
		CreatedAt: img.CreatedAt,
		UpdatedAt: img.UpdatedAt,
	}
}
