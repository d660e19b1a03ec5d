package gallery_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	galleryhttp "github.com/kaszm/imagegallery/internal/gallery/http"
	"github.com/kaszm/imagegallery/pkg/authsdk"
)

// TestOwnershipAcrossServices registers two users at the identity provider
// and checks that the gallery keeps their images apart.
func TestOwnershipAcrossServices(t *testing.T) {
	p := setupIdP(t)
	gallery := setupGallery(t, p)

	alice := p.registerVerified(t, "alice@example.com", "Alice")
	p.registerVerified(t, "bob@example.com", "Bob")

	aliceTok := p.login(t, "alice@example.com")
	bobTok := p.login(t, "bob@example.com")
	require.Subset(t, strings.Fields(aliceTok.Scope), []string{authsdk.ScopeGalleryRead, authsdk.ScopeGalleryWrite})

	resp := doJSON(t, http.MethodPost, gallery+"/v1/images", aliceTok.AccessToken,
		galleryhttp.CreateImageRequest{Title: "Canal at dusk", FileName: "canal.jpg"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	img := decode[galleryhttp.ImageResponse](t, resp)
	require.Equal(t, alice.UserID, img.OwnerID)

	resp = doJSON(t, http.MethodGet, gallery+"/v1/images/"+img.ID, bobTok.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = doJSON(t, http.MethodDelete, gallery+"/v1/images/"+img.ID, bobTok.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, gallery+"/v1/images", bobTok.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decode[galleryhttp.ImageListResponse](t, resp).Images)

	resp = doJSON(t, http.MethodPut, gallery+"/v1/images/"+img.ID, aliceTok.AccessToken,
		galleryhttp.UpdateImageRequest{Title: "Canal at night"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, gallery+"/v1/images/"+img.ID, aliceTok.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestUnverifiedUserCannotSignIn(t *testing.T) {
	p := setupIdP(t)

	resp := doJSON(t, http.MethodPost, p.baseURL+"/v1/account/register", "", authsdk.RegisterRequest{
		Email:     "carol@example.com",
		Password:  password,
		FirstName: "Carol",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, err := p.client.PasswordGrant(t.Context(), clientID, "carol@example.com", password, galleryScopes)
	var oauthErr *authsdk.OAuth2Error
	require.True(t, errors.As(err, &oauthErr))
	require.Equal(t, authsdk.ErrorCodeInvalidGrant, oauthErr.Code)
}

func TestRefreshedTokenStillWorksAtGallery(t *testing.T) {
	p := setupIdP(t)
	gallery := setupGallery(t, p)

	p.registerVerified(t, "dave@example.com", "Dave")
	first := p.login(t, "dave@example.com")

	refreshed, err := p.client.RefreshGrant(t.Context(), clientID, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, refreshed.RefreshToken)

	resp := doJSON(t, http.MethodGet, gallery+"/v1/images", refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
