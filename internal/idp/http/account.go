package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/service"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

// AccountHandler serves local account registration and email verification.
type AccountHandler struct {
	Credentials  *service.CredentialService
	Verification *service.VerificationService
}

// HandleRegister handles POST /v1/account/register
//
//	@Summary		Register an account
//	@Description	Creates a local account with an unverified email and mails a verification link.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Account details"
//	@Success		201		{object}	authsdk.RegisterResponse	"Created account"
//	@Failure		400		{object}	authsdk.ErrorResponse		"Validation failed"
//	@Failure		409		{object}	authsdk.ErrorResponse		"Email already registered"
//	@Failure		500		{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/account/register [post].
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to parse request", "err", err)
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	claims := []domain.Claim{
		{Type: domain.ClaimGivenName, Value: req.FirstName},
		{Type: domain.ClaimFamilyName, Value: req.LastName},
		{Type: domain.ClaimEmail, Value: strings.ToLower(strings.TrimSpace(req.Email))},
		{Type: domain.ClaimCountry, Value: req.Country},
	}

	u, err := h.Credentials.CreateUser(ctx, service.NewUser{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Claims:    claims,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			authsdk.ErrValidation.WithDescription(err.Error()).WriteError(w)
		case errors.Is(err, service.ErrDuplicateEmail):
			authsdk.ErrConflict.WithDescription("email is already registered").WriteError(w)
		default:
			log.Error("failed to register user", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	// The account exists either way; a failed mail can be retried through resend.
	if err := h.Verification.Send(ctx, u); err != nil {
		log.Warn("verification email not sent", "user_id", u.ID, "err", err)
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		UserID:        u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	})
}

// HandleVerifyEmail handles GET /v1/account/verify-email
//
//	@Summary		Confirm an email address
//	@Description	Consumes the security code from the verification link.
//	@Tags			Account
//	@Produce		json
//	@Param			userId			query		string						true	"User id"
//	@Param			securityCode	query		string						true	"Security code"
//	@Success		200				{object}	authsdk.VerifyEmailResponse	"Email verified"
//	@Failure		400				{object}	authsdk.ErrorResponse		"Invalid or expired code"
//	@Failure		409				{object}	authsdk.ErrorResponse		"Already verified"
//	@Failure		500				{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/account/verify-email [get].
func (h *AccountHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	q := r.URL.Query()
	userID := strings.TrimSpace(q.Get("userId"))
	code := q.Get("securityCode")
	if userID == "" || code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	u, err := h.Credentials.ConfirmEmail(ctx, userID, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSecurityCode):
			authsdk.ErrInvalidRequest.WithDescription("invalid or expired security code").WriteError(w)
		case errors.Is(err, service.ErrEmailAlreadyVerified):
			authsdk.ErrConflict.WithDescription("email is already verified").WriteError(w)
		case errors.Is(err, service.ErrConcurrencyConflict):
			authsdk.ErrConflict.WriteError(w)
		default:
			log.Error("failed to confirm email", "user_id", userID, "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyEmailResponse{
		UserID:        u.ID,
		EmailVerified: u.EmailVerified,
	})
}

// HandleResend handles POST /v1/account/verify-email/resend
//
//	@Summary		Resend the verification email
//	@Description	Issues a new security code for an unverified account. The response does not reveal whether the account exists.
//	@Tags			Account
//	@Accept			json
//	@Param			request	body	authsdk.ResendVerificationRequest	true	"Email"
//	@Success		202
//	@Failure		400	{object}	authsdk.ErrorResponse	"Invalid request"
//	@Router			/v1/account/verify-email/resend [post].
func (h *AccountHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.ResendVerificationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.Verification.Resend(ctx, req.Email)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrEmailAlreadyVerified):
		log.Info("verification resend skipped", "err", err)
	default:
		log.Error("failed to resend verification email", "err", err)
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusAccepted)
}
