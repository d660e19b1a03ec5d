package http

import (
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kaszm/imagegallery/internal/gallery/domain"
	"github.com/kaszm/imagegallery/internal/gallery/store"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

const maxTitleLen = 150

// ImageHandler serves the image endpoints. Routes taking an {id} are only
// reached after the ownership guard has allowed the caller.
type ImageHandler struct {
	Images store.Images
	Now    func() time.Time
}

func (h *ImageHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

// HandleList handles GET /v1/images
//
//	@Summary		List images
//	@Description	Returns the caller's images, newest first.
//	@Tags			Images
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	ImageListResponse		"Images owned by the caller"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Missing scope"
//	@Router			/v1/images [get].
func (h *ImageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := httpx.UserID(ctx)
	if owner == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	imgs, err := h.Images.ListImagesByOwner(ctx, owner)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list images", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	out := ImageListResponse{Images: make([]ImageResponse, 0, len(imgs))}
	for _, img := range imgs {
		out.Images = append(out.Images, toImageResponse(img))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate handles POST /v1/images
//
//	@Summary		Add an image
//	@Description	Stores image metadata owned by the caller.
//	@Tags			Images
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateImageRequest		true	"Image metadata"
//	@Success		201		{object}	ImageResponse			"Created image"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Missing scope"
//	@Router			/v1/images [post].
func (h *ImageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	owner := httpx.UserID(ctx)
	if owner == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req CreateImageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	title, err := validTitle(req.Title)
	if err != nil {
		authsdk.ErrValidation.WithDescription(err.Error()).WriteError(w)
		return
	}
	name := path.Base(strings.TrimSpace(req.FileName))
	if name == "." || name == "/" {
		authsdk.ErrValidation.WithDescription("file_name is required").WriteError(w)
		return
	}

	now := h.now()
	img := domain.Image{
		ID:        uuid.New(),
		Title:     title,
		FileName:  name,
		OwnerID:   owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Images.CreateImage(ctx, img); err != nil {
		log.Error("failed to create image", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("image created", "image_id", img.ID)
	w.Header().Set("Location", "/v1/images/"+img.ID.String())
	httpx.WriteJSON(w, http.StatusCreated, toImageResponse(img))
}

// HandleGet handles GET /v1/images/{id}
//
//	@Summary		Get an image
//	@Tags			Images
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string					true	"Image ID"
//	@Success		200	{object}	ImageResponse			"Image"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Missing scope or not the owner"
//	@Router			/v1/images/{id} [get].
func (h *ImageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathImageID(w, r)
	if !ok {
		return
	}

	img, err := h.Images.GetImage(ctx, id)
	if err != nil {
		h.writeStoreError(w, r, "get", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toImageResponse(img))
}

// HandleUpdate handles PUT /v1/images/{id}
//
//	@Summary		Rename an image
//	@Tags			Images
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Image ID"
//	@Param			request	body		UpdateImageRequest		true	"New title"
//	@Success		200		{object}	ImageResponse			"Updated image"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Validation failed"
//	@Failure		401		{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	authsdk.ErrorResponse	"Missing scope or not the owner"
//	@Router			/v1/images/{id} [put].
func (h *ImageHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathImageID(w, r)
	if !ok {
		return
	}

	var req UpdateImageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	title, err := validTitle(req.Title)
	if err != nil {
		authsdk.ErrValidation.WithDescription(err.Error()).WriteError(w)
		return
	}

	if err := h.Images.UpdateImageTitle(ctx, id, title); err != nil {
		h.writeStoreError(w, r, "update", err)
		return
	}
	img, err := h.Images.GetImage(ctx, id)
	if err != nil {
		h.writeStoreError(w, r, "get", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toImageResponse(img))
}

// HandleDelete handles DELETE /v1/images/{id}
//
//	@Summary		Delete an image
//	@Tags			Images
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Image ID"
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Missing scope or not the owner"
//	@Router			/v1/images/{id} [delete].
func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathImageID(w, r)
	if !ok {
		return
	}

	if err := h.Images.DeleteImage(ctx, id); err != nil {
		h.writeStoreError(w, r, "delete", err)
		return
	}
	slogx.FromContext(ctx).Info("image deleted", "image_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// pathImageID parses {id}. The guard has already rejected malformed ids,
// so a failure here means the route was mounted without it.
func pathImageID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		authsdk.ErrAccessDenied.WriteError(w)
		return uuid.Nil, false
	}
	return id, true
}

// writeStoreError answers 404 only when the image vanished between the
// guard and the handler.
func (h *ImageHandler) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		authsdk.ErrNotFound.WriteError(w)
		return
	}
	slogx.FromContext(r.Context()).Error("image store failed", "op", op, "err", err)
	authsdk.ErrServerError.WriteError(w)
}

var errTitleRequired = errors.New("title is required")

func validTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", errTitleRequired
	}
	if len([]rune(title)) > maxTitleLen {
		return "", errors.New("title must be at most 150 characters")
	}
	return title, nil
}
