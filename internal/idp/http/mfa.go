package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/kaszm/imagegallery/internal/idp/service"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

var (
	errMFAAlreadyEnabled = &authsdk.OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        "mfa_already_enabled",
		Description: "MFA is already enabled for this user",
	}
	errMFANotEnrolled = &authsdk.OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        "mfa_not_enrolled",
		Description: "start enrollment before confirming a code",
	}
	errInvalidCode = &authsdk.OAuth2Error{
		StatusCode:  http.StatusBadRequest,
		Code:        "invalid_code",
		Description: "invalid TOTP code",
	}
)

// MFAHandler handles the TOTP enrollment endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnroll handles POST /v1/mfa/totp/enroll
//
//	@Summary		Enroll in TOTP MFA
//	@Description	Provisions a TOTP secret for the authenticated user and returns it with a QR code.
//	@Description	Calling it again before confirming returns the same secret.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFAEnrollResponse	"TOTP secret and QR code"
//	@Failure		400	{object}	authsdk.ErrorResponse		"MFA already enabled"
//	@Failure		401	{object}	authsdk.ErrorResponse		"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/mfa/totp/enroll [post].
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserID(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	enrollment, err := h.MFAService.Enroll(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMFAAlreadyEnabled):
			log.Warn("MFA already enabled", "user_id", userID)
			errMFAAlreadyEnabled.WriteError(w)
		case errors.Is(err, service.ErrNotFound):
			authsdk.ErrInvalidToken.WriteError(w)
		default:
			log.Error("failed to enroll TOTP", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAEnrollResponse{
		Secret:    enrollment.Secret,
		URL:       enrollment.URL,
		QRCodePNG: enrollment.QRCodePNG,
	})
}

// HandleConfirm handles POST /v1/mfa/totp/confirm
//
//	@Summary		Confirm TOTP enrollment
//	@Description	Checks a code from the authenticator app and turns on the second factor.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.MFACodeRequest	true	"TOTP code"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Invalid code or enrollment not started"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/totp/confirm [post].
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	h.handleCode(w, r, "confirm", h.MFAService.ConfirmEnrollment)
}

// HandleRemove handles DELETE /v1/mfa/totp
//
//	@Summary		Disable TOTP MFA
//	@Description	Requires a current code; clears the secret and turns the second factor off.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	authsdk.MFACodeRequest	true	"TOTP code"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Invalid code or MFA not enrolled"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/mfa/totp [delete].
func (h *MFAHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	h.handleCode(w, r, "disable", h.MFAService.Disable)
}

func (h *MFAHandler) handleCode(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	fn func(ctx context.Context, userID, code string) error,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserID(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.MFACodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := fn(ctx, userID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			log.Warn("invalid TOTP code", "user_id", userID, "action", action)
			errInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrMFANotEnrolled):
			errMFANotEnrolled.WriteError(w)
		case errors.Is(err, service.ErrNotFound):
			authsdk.ErrInvalidToken.WriteError(w)
		default:
			log.Error("TOTP request failed", "user_id", userID, "action", action, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	log.Info("TOTP state changed", "user_id", userID, "action", action)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
