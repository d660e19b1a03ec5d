package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaszm/imagegallery/internal/idp/domain"
)

func newGoogleStub(t *testing.T, audience string, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/v2/tokeninfo", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"audience":       audience,
			"email":          "Nia@Example.com",
			"user_id":        "g-42",
			"verified_email": verified,
		})
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "g-42",
			"given_name":  "Nia",
			"family_name": "Long",
			"email":       "nia@example.com",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleVerifier(t *testing.T) {
	srv := newGoogleStub(t, "client-1", true)
	v := &GoogleVerifier{
		ClientID:    "client-1",
		DefaultRole: "employee",
		HTTPClient:  srv.Client(),
		Endpoint:    srv.URL + "/",
	}

	id, err := v.Verify(context.Background(), "id-token", "access-token")
	require.NoError(t, err)
	require.Equal(t, ProviderGoogle, id.Provider)
	require.Equal(t, "g-42", id.ProviderKey)
	require.Equal(t, "nia@example.com", id.Email)
	require.Contains(t, id.Claims, domain.Claim{Type: domain.ClaimRole, Value: "employee"})
	require.Contains(t, id.Claims, domain.Claim{Type: domain.ClaimGivenName, Value: "Nia"})
	require.Contains(t, id.Claims, domain.Claim{Type: domain.ClaimFamilyName, Value: "Long"})
	require.Equal(t, domain.ExternalLogin{Provider: "google", ProviderKey: "g-42"}, id.Login())
}

func TestGoogleVerifierWithoutAccessToken(t *testing.T) {
	srv := newGoogleStub(t, "client-1", true)
	v := &GoogleVerifier{ClientID: "client-1", HTTPClient: srv.Client(), Endpoint: srv.URL + "/"}

	id, err := v.Verify(context.Background(), "id-token", "")
	require.NoError(t, err)
	for _, c := range id.Claims {
		require.NotEqual(t, domain.ClaimGivenName, c.Type)
		require.NotEqual(t, domain.ClaimRole, c.Type)
	}
}

func TestGoogleVerifierRejects(t *testing.T) {
	t.Run("audience", func(t *testing.T) {
		srv := newGoogleStub(t, "someone-else", true)
		v := &GoogleVerifier{ClientID: "client-1", HTTPClient: srv.Client(), Endpoint: srv.URL + "/"}
		_, err := v.Verify(context.Background(), "id-token", "")
		require.ErrorIs(t, err, ErrInvalidAudience)
	})

	t.Run("unverified email", func(t *testing.T) {
		srv := newGoogleStub(t, "client-1", false)
		v := &GoogleVerifier{ClientID: "client-1", HTTPClient: srv.Client(), Endpoint: srv.URL + "/"}
		_, err := v.Verify(context.Background(), "id-token", "")
		require.ErrorIs(t, err, ErrUnverifiedEmail)
	})

	t.Run("missing token", func(t *testing.T) {
		v := &GoogleVerifier{ClientID: "client-1"}
		_, err := v.Verify(context.Background(), strings.Repeat(" ", 3), "")
		require.ErrorIs(t, err, ErrMissingToken)
	})
}
