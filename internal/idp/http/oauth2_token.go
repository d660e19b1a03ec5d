package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/service"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

// TokenHandler serves POST /v1/oauth2/token
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
type TokenHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues access and refresh tokens (password, mfa_otp, refresh_token grants).
//	@Description	A password grant for an account with TOTP enabled answers 403 mfa_required with an mfa_token.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(password, mfa_otp, refresh_token)
//	@Param			client_id		formData	string					false	"Client identifier (password and refresh_token grants)"
//	@Param			username		formData	string					false	"Email (password grant)"
//	@Param			password		formData	string					false	"Password (password grant)"
//	@Param			refresh_token	formData	string					false	"Refresh token (refresh_token grant)"
//	@Param			scope			formData	string					false	"Space-delimited list of scopes"
//	@Param			mfa_token		formData	string					false	"MFA token (mfa_otp grant)"
//	@Param			otp				formData	string					false	"TOTP code (mfa_otp grant)"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, refresh_token, token_type, expires_in, scope"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		403				{object}	authsdk.ErrorResponse	"mfa_required"
//	@Failure		500				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/v1/oauth2/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	switch r.Form.Get("grant_type") {
	case "password":
		h.handlePasswordGrant(w, r, r.Form)
	case "mfa_otp":
		h.handleMFAOTPGrant(w, r, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, r.Form)
	default:
		authsdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handlePasswordGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()

	clientID := strings.TrimSpace(form.Get("client_id"))
	username := strings.TrimSpace(form.Get("username"))
	password := form.Get("password")
	requested := httpx.ParseSpaceDelimitedFields(form.Get("scope"))

	if clientID == "" || username == "" || password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.PasswordGrant(ctx, clientID, username, password, requested)
	if err != nil {
		writeGrantError(w, r, "password", err)
		return
	}
	writeTokenPair(w, pair)
}

func (h *TokenHandler) handleMFAOTPGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()

	mfaToken := strings.TrimSpace(form.Get("mfa_token"))
	code := strings.TrimSpace(form.Get("otp"))
	if mfaToken == "" || code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeMFAOTP(ctx, mfaToken, code)
	if err != nil {
		writeGrantError(w, r, "mfa_otp", err)
		return
	}
	writeTokenPair(w, pair)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()

	refresh := form.Get("refresh_token")
	clientID := strings.TrimSpace(form.Get("client_id"))
	requested := httpx.ParseSpaceDelimitedFields(form.Get("scope"))

	if refresh == "" || clientID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeRefreshToken(ctx, clientID, refresh, requested)
	if err != nil {
		writeGrantError(w, r, "refresh_token", err)
		return
	}
	writeTokenPair(w, pair)
}

// writeGrantError maps token service errors onto RFC 6749 responses.
// Credential, code and account state failures share one generic message.
func writeGrantError(w http.ResponseWriter, r *http.Request, grant string, err error) {
	var mfaErr *service.MFARequiredError
	if errors.As(err, &mfaErr) {
		mfaErr.WriteError(w)
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidClient):
		authsdk.ErrInvalidClient.WriteError(w)
	case errors.Is(err, service.ErrInvalidScope):
		authsdk.ErrInvalidScope.WriteError(w)
	case errors.Is(err, service.ErrEmailNotVerified):
		authsdk.ErrInvalidGrant.WithDescription("email address is not verified").WriteError(w)
	case errors.Is(err, service.ErrTooManyAttempts):
		authsdk.ErrTooManyAttempts.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidGrant),
		errors.Is(err, service.ErrInvalidRefresh),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrMFANotEnrolled):
		authsdk.ErrInvalidGrant.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("token grant failed", "grant_type", grant, "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func writeTokenPair(w http.ResponseWriter, pair *domain.TokenPair) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        strings.TrimSpace(pair.Scope),
	})
}
