package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/external"
	"github.com/kaszm/imagegallery/internal/idp/service"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

// ExternalLoginHandler exchanges a provider token for local tokens,
// provisioning or linking the account on first use.
type ExternalLoginHandler struct {
	Provider     string
	Verifier     external.Verifier
	Credentials  *service.CredentialService
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		External login
//	@Description	Verifies a Google ID token, links or creates the local account and issues tokens.
//	@Description	The first sign in must include access_token so the name can be read from userinfo.
//	@Tags			External
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ExternalLoginRequest	true	"Provider tokens"
//	@Success		200		{object}	authsdk.TokenResponse			"Issued tokens"
//	@Failure		400		{object}	authsdk.ErrorResponse			"Invalid request, missing access_token on first sign in, or bad provider token"
//	@Failure		403		{object}	authsdk.ErrorResponse			"mfa_required"
//	@Failure		409		{object}	authsdk.ErrorResponse			"Login already linked elsewhere"
//	@Failure		500		{object}	authsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/external/google [post].
func (h *ExternalLoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx).With("provider", h.Provider)

	var req authsdk.ExternalLoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" || strings.TrimSpace(req.IDToken) == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	id, err := h.Verifier.Verify(ctx, req.IDToken, req.AccessToken)
	if err != nil {
		log.Warn("external token rejected", "err", err)
		authsdk.ErrInvalidGrant.WithDescription("external token could not be verified").WriteError(w)
		return
	}

	u, err := h.resolveUser(r, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExternalLoginConflict):
			authsdk.ErrConflict.WithDescription("the external login is linked to another account").WriteError(w)
		case errors.Is(err, service.ErrValidation):
			authsdk.ErrValidation.WithDescription(err.Error()).WriteError(w)
		case errors.Is(err, service.ErrMissingRequiredClaim) && !hasClaim(id, domain.ClaimGivenName) &&
			strings.TrimSpace(req.AccessToken) == "":
			// Names only come from userinfo, so a first sign in needs the access token.
			log.Warn("first external sign in without access token")
			authsdk.ErrInvalidRequest.
				WithDescription("access_token is required on the first sign in").
				WriteError(w)
		default:
			// ErrMissingRequiredClaim lands here: a provider integration defect.
			log.Error("failed to resolve external user", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	pair, err := h.TokenService.ExternalGrant(ctx, clientID, u, httpx.ParseSpaceDelimitedFields(req.Scope))
	if err != nil {
		writeGrantError(w, r, "external", err)
		return
	}
	writeTokenPair(w, pair)
}

func (h *ExternalLoginHandler) resolveUser(r *http.Request, id external.Identity) (domain.User, error) {
	ctx := r.Context()
	u, err := h.Credentials.GetUserByExternalProvider(ctx, id.Provider, id.ProviderKey)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, service.ErrNotFound) {
		return domain.User{}, err
	}
	return h.Credentials.ProvisionExternalUser(ctx, id.Email, id.Claims, id.Login())
}

func hasClaim(id external.Identity, claimType string) bool {
	for _, c := range id.Claims {
		if c.Type == claimType && strings.TrimSpace(c.Value) != "" {
			return true
		}
	}
	return false
}
