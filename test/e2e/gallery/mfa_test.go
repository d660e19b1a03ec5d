package gallery_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/kaszm/imagegallery/pkg/authsdk"
)

// TestMFALoginReachesGallery enrolls TOTP and completes a two-step sign in
// whose token the gallery accepts.
func TestMFALoginReachesGallery(t *testing.T) {
	p := setupIdP(t)
	gallery := setupGallery(t, p)

	p.registerVerified(t, "erin@example.com", "Erin")
	tok := p.login(t, "erin@example.com")

	resp := doJSON(t, http.MethodPost, p.baseURL+"/v1/mfa/totp/enroll", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	enroll := decode[authsdk.MFAEnrollResponse](t, resp)
	require.NotEmpty(t, enroll.Secret)
	require.NotEmpty(t, enroll.QRCodePNG)

	code, err := totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	resp = doJSON(t, http.MethodPost, p.baseURL+"/v1/mfa/totp/confirm", tok.AccessToken, authsdk.MFACodeRequest{Code: code})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = p.client.PasswordGrant(t.Context(), clientID, "erin@example.com", password, galleryScopes)
	var mfaErr *authsdk.MFARequiredError
	require.True(t, errors.As(err, &mfaErr))
	require.Contains(t, mfaErr.Methods, authsdk.MFAMethodTOTP)

	_, err = p.client.MFAGrant(t.Context(), mfaErr.MFAToken, "000000")
	require.Error(t, err)

	code, err = totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	mfaTok, err := p.client.MFAGrant(t.Context(), mfaErr.MFAToken, code)
	require.NoError(t, err)

	resp = doJSON(t, http.MethodGet, gallery+"/v1/images", mfaTok.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
