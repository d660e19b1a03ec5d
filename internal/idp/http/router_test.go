package http

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/external"
	"github.com/kaszm/imagegallery/internal/idp/mail"
	"github.com/kaszm/imagegallery/internal/idp/service"
	"github.com/kaszm/imagegallery/internal/idp/store/drivers/sqlite"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/cryptox"
	"github.com/kaszm/imagegallery/pkg/jwtx"
	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

const (
	testClient   = "imagegalleryclient"
	testIssuer   = "https://idp.test"
	testAudience = "imagegalleryapi"
	testPassword = "correct horse battery staple"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "idp-http")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, m mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
	return nil
}

func (r *recordingSender) last(t *testing.T) mail.Message {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent, "no mail sent")
	return r.sent[len(r.sent)-1]
}

// stubVerifier returns a fixed identity for any token.
type stubVerifier struct {
	id  external.Identity
	err error
}

func (s stubVerifier) Verify(context.Context, string, string) (external.Identity, error) {
	return s.id, s.err
}

type testServer struct {
	srv    *httptest.Server
	client *authsdk.Client
	mail   *recordingSender
	creds  *service.CredentialService
}

func newTestServer(t *testing.T, google external.Verifier) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("", pemKey)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	verifier := jwtx.NewVerifierEdDSA(keys, testIssuer, []string{testAudience})

	metrics := metricsx.New("idp-test")
	creds := &service.CredentialService{Store: st, Metrics: metrics}
	mfa := &service.MFAService{Store: st, Metrics: metrics, Issuer: "ImageGallery"}
	profiles := &service.ProfileService{Store: st}
	sender := &recordingSender{}
	verification := &service.VerificationService{
		Credentials: creds,
		Mail:        sender,
		From:        "noreply@imagegallery.test",
	}

	router := NewRouter(keys, verifier, "test", st, slogx.Discard())
	router.Metrics = metrics
	router.CredentialService = creds
	router.VerificationService = verification
	router.MFAService = mfa
	router.ProfileService = profiles
	router.Google = google
	router.TokenService = &service.TokenService{
		Store:       st,
		Credentials: creds,
		MFA:         mfa,
		Profiles:    profiles,
		Signer:      signer,
		Metrics:     metrics,
		Issuer:      testIssuer,
		Audience:    []string{testAudience},
		Clients:     []string{testClient},
		RoleScopes: map[string][]string{
			"admin":    {authsdk.ScopeGalleryRead, authsdk.ScopeGalleryWrite},
			"employee": {authsdk.ScopeGalleryRead},
		},
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	verification.PublicURL = srv.URL

	return &testServer{
		srv:    srv,
		client: authsdk.NewClient(srv.URL),
		mail:   sender,
		creds:  creds,
	}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()
	var rdr *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = strings.NewReader(string(b))
	} else {
		rdr = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(t.Context(), method, s.srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

var hrefRe = regexp.MustCompile(`href='([^']+)'`)

// register creates an account over HTTP and follows the mailed link.
func (s *testServer) register(t *testing.T, email string) authsdk.RegisterResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/v1/account/register", "", authsdk.RegisterRequest{
		Email:     email,
		Password:  testPassword,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Country:   "uk",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[authsdk.RegisterResponse](t, resp)
	require.False(t, out.EmailVerified)

	m := s.mail.last(t)
	require.Equal(t, strings.ToLower(email), m.To)
	match := hrefRe.FindStringSubmatch(m.Body)
	require.Len(t, match, 2)
	link, err := url.Parse(html.UnescapeString(match[1]))
	require.NoError(t, err)
	require.Equal(t, "/v1/account/verify-email", link.Path)

	resp = s.do(t, http.MethodGet, link.RequestURI(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verified := decode[authsdk.VerifyEmailResponse](t, resp)
	require.True(t, verified.EmailVerified)
	require.Equal(t, out.UserID, verified.UserID)

	return out
}

func TestRegisterVerifyAndUserInfo(t *testing.T) {
	s := newTestServer(t, nil)
	reg := s.register(t, "Ada@Example.com")

	tr, err := s.client.PasswordGrant(t.Context(), testClient, "ada@example.com", testPassword, nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer", tr.TokenType)
	require.NotEmpty(t, tr.RefreshToken)
	require.Contains(t, strings.Fields(tr.Scope), authsdk.ScopeGalleryRead)
	require.NotContains(t, strings.Fields(tr.Scope), authsdk.ScopeGalleryWrite)

	resp := s.do(t, http.MethodGet, "/v1/userinfo", tr.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[authsdk.UserInfo](t, resp)
	require.Equal(t, reg.UserID, info.Subject)
	require.Equal(t, "ada@example.com", info.Email)
	require.True(t, info.EmailVerified)
	require.Equal(t, service.DefaultRole, info.Role)
	require.Equal(t, []string{"Ada"}, info.Claims[domain.ClaimGivenName])
	require.Equal(t, []string{"uk"}, info.Claims[domain.ClaimCountry])

	// The link only works once.
	resp = s.do(t, http.MethodGet, "/v1/account/verify-email?userId="+reg.UserID+"&securityCode=x", "", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodPost, "/v1/account/register", "", authsdk.RegisterRequest{
		Email:    "nofirst@example.com",
		Password: testPassword,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, authsdk.ErrorCodeValidation, decode[authsdk.ErrorResponse](t, resp).Error)

	req := authsdk.RegisterRequest{Email: "dup@example.com", Password: testPassword, FirstName: "Dup"}
	resp = s.do(t, http.MethodPost, "/v1/account/register", "", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req.Email = " DUP@example.com "
	resp = s.do(t, http.MethodPost, "/v1/account/register", "", req)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/v1/account/register", "", map[string]string{"unknown": "field"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyEmailRejectsBadCode(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/v1/account/register", "", authsdk.RegisterRequest{
		Email: "code@example.com", Password: testPassword, FirstName: "Code",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reg := decode[authsdk.RegisterResponse](t, resp)

	q := url.Values{"userId": {reg.UserID}, "securityCode": {"wrong"}}
	resp = s.do(t, http.MethodGet, "/v1/account/verify-email?"+q.Encode(), "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/v1/account/verify-email", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unverified accounts cannot sign in.
	_, err := s.client.PasswordGrant(t.Context(), testClient, "code@example.com", testPassword, nil)
	var oauthErr *authsdk.OAuth2Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, authsdk.ErrorCodeInvalidGrant, oauthErr.Code)
}

func TestResendVerification(t *testing.T) {
	s := newTestServer(t, nil)

	// Unknown addresses look the same as known ones.
	resp := s.do(t, http.MethodPost, "/v1/account/verify-email/resend", "",
		authsdk.ResendVerificationRequest{Email: "nobody@example.com"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/v1/account/register", "", authsdk.RegisterRequest{
		Email: "again@example.com", Password: testPassword, FirstName: "Again",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := s.mail.last(t).Body

	resp = s.do(t, http.MethodPost, "/v1/account/verify-email/resend", "",
		authsdk.ResendVerificationRequest{Email: "again@example.com"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NotEqual(t, first, s.mail.last(t).Body)

	resp = s.do(t, http.MethodPost, "/v1/account/verify-email/resend", "", authsdk.ResendVerificationRequest{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTokenEndpointErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "grant@example.com")

	tests := []struct {
		name   string
		form   url.Values
		status int
		code   string
	}{
		{
			name:   "unsupported grant",
			form:   url.Values{"grant_type": {"client_credentials"}},
			status: http.StatusBadRequest,
			code:   authsdk.ErrorCodeUnsupportedGrantType,
		},
		{
			name: "unknown client",
			form: url.Values{
				"grant_type": {"password"}, "client_id": {"other"},
				"username": {"grant@example.com"}, "password": {testPassword},
			},
			status: http.StatusUnauthorized,
			code:   authsdk.ErrorCodeInvalidClient,
		},
		{
			name: "wrong password",
			form: url.Values{
				"grant_type": {"password"}, "client_id": {testClient},
				"username": {"grant@example.com"}, "password": {"nope"},
			},
			status: http.StatusBadRequest,
			code:   authsdk.ErrorCodeInvalidGrant,
		},
		{
			name:   "missing refresh token",
			form:   url.Values{"grant_type": {"refresh_token"}, "client_id": {testClient}},
			status: http.StatusBadRequest,
			code:   authsdk.ErrorCodeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.PostForm(s.srv.URL+"/v1/oauth2/token", tt.form)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tt.status, resp.StatusCode)
			require.Equal(t, tt.code, decode[authsdk.ErrorResponse](t, resp).Error)
		})
	}
}

func TestRefreshAndRevoke(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "refresh@example.com")

	tr, err := s.client.PasswordGrant(t.Context(), testClient, "refresh@example.com", testPassword, nil)
	require.NoError(t, err)

	rotated, err := s.client.RefreshGrant(t.Context(), testClient, tr.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, tr.RefreshToken, rotated.RefreshToken)

	// The old token was consumed by rotation.
	_, err = s.client.RefreshGrant(t.Context(), testClient, tr.RefreshToken)
	var oauthErr *authsdk.OAuth2Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, authsdk.ErrorCodeInvalidGrant, oauthErr.Code)

	resp, err := http.PostForm(s.srv.URL+"/v1/oauth2/revoke", url.Values{"token": {rotated.RefreshToken}})
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = s.client.RefreshGrant(t.Context(), testClient, rotated.RefreshToken)
	require.ErrorAs(t, err, &oauthErr)
}

func TestMFAEnrollmentAndLogin(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "mfa@example.com")

	tr, err := s.client.PasswordGrant(t.Context(), testClient, "mfa@example.com", testPassword, nil)
	require.NoError(t, err)

	resp := s.do(t, http.MethodPost, "/v1/mfa/totp/confirm", tr.AccessToken, authsdk.MFACodeRequest{Code: "123456"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "mfa_not_enrolled", decode[authsdk.ErrorResponse](t, resp).Error)

	resp = s.do(t, http.MethodPost, "/v1/mfa/totp/enroll", tr.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	enroll := decode[authsdk.MFAEnrollResponse](t, resp)
	require.NotEmpty(t, enroll.Secret)
	require.True(t, strings.HasPrefix(enroll.URL, "otpauth://totp/"))
	require.NotEmpty(t, enroll.QRCodePNG)

	resp = s.do(t, http.MethodPost, "/v1/mfa/totp/confirm", tr.AccessToken, authsdk.MFACodeRequest{Code: "000000"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	code, err := totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	resp = s.do(t, http.MethodPost, "/v1/mfa/totp/confirm", tr.AccessToken, authsdk.MFACodeRequest{Code: code})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/v1/mfa/totp/enroll", tr.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "mfa_already_enabled", decode[authsdk.ErrorResponse](t, resp).Error)

	_, err = s.client.PasswordGrant(t.Context(), testClient, "mfa@example.com", testPassword, nil)
	var mfaErr *authsdk.MFARequiredError
	require.True(t, errors.As(err, &mfaErr))
	require.Equal(t, []string{authsdk.MFAMethodTOTP}, mfaErr.Methods)

	_, err = s.client.MFAGrant(t.Context(), mfaErr.MFAToken, "000000")
	require.Error(t, err)

	code, err = totp.GenerateCode(enroll.Secret, time.Now())
	require.NoError(t, err)
	final, err := s.client.MFAGrant(t.Context(), mfaErr.MFAToken, code)
	require.NoError(t, err)
	require.NotEmpty(t, final.AccessToken)

	// Disabling requires a current code.
	resp = s.do(t, http.MethodDelete, "/v1/mfa/totp", final.AccessToken, authsdk.MFACodeRequest{Code: code})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMFARequiresBearer(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodPost, "/v1/mfa/totp/enroll", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/v1/userinfo", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExternalGoogleLogin(t *testing.T) {
	id := external.Identity{
		Provider:    external.ProviderGoogle,
		ProviderKey: "google-sub-1",
		Email:       "grace@example.com",
		Claims: []domain.Claim{
			{Type: domain.ClaimEmail, Value: "grace@example.com"},
			{Type: domain.ClaimRole, Value: "admin"},
			{Type: domain.ClaimGivenName, Value: "Grace"},
		},
	}
	s := newTestServer(t, stubVerifier{id: id})

	req := authsdk.ExternalLoginRequest{ClientID: testClient, IDToken: "google-id-token"}
	resp := s.do(t, http.MethodPost, "/v1/external/google", "", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tr := decode[authsdk.TokenResponse](t, resp)
	require.Contains(t, strings.Fields(tr.Scope), authsdk.ScopeGalleryWrite)

	u, err := s.creds.GetUserByExternalProvider(t.Context(), external.ProviderGoogle, "google-sub-1")
	require.NoError(t, err)
	require.Equal(t, "Grace", u.FirstName)

	// A second sign in resolves the same account.
	resp = s.do(t, http.MethodPost, "/v1/external/google", "", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again, err := s.creds.GetUserByExternalProvider(t.Context(), external.ProviderGoogle, "google-sub-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, again.ID)
}

func TestExternalGoogleLoginErrors(t *testing.T) {
	t.Run("rejected token", func(t *testing.T) {
		s := newTestServer(t, stubVerifier{err: external.ErrInvalidAudience})
		resp := s.do(t, http.MethodPost, "/v1/external/google", "",
			authsdk.ExternalLoginRequest{ClientID: testClient, IDToken: "x"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, authsdk.ErrorCodeInvalidGrant, decode[authsdk.ErrorResponse](t, resp).Error)
	})

	t.Run("missing role claim", func(t *testing.T) {
		s := newTestServer(t, stubVerifier{id: external.Identity{
			Provider:    external.ProviderGoogle,
			ProviderKey: "k",
			Email:       "norole@example.com",
			Claims:      []domain.Claim{{Type: domain.ClaimGivenName, Value: "No"}},
		}})
		resp := s.do(t, http.MethodPost, "/v1/external/google", "",
			authsdk.ExternalLoginRequest{ClientID: testClient, IDToken: "x"})
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("first sign in without access token", func(t *testing.T) {
		s := newTestServer(t, stubVerifier{id: external.Identity{
			Provider:    external.ProviderGoogle,
			ProviderKey: "k-noname",
			Email:       "noname@example.com",
			Claims:      []domain.Claim{{Type: domain.ClaimRole, Value: "employee"}},
		}})
		resp := s.do(t, http.MethodPost, "/v1/external/google", "",
			authsdk.ExternalLoginRequest{ClientID: testClient, IDToken: "x"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, authsdk.ErrorCodeInvalidRequest, decode[authsdk.ErrorResponse](t, resp).Error)
	})

	t.Run("route absent without verifier", func(t *testing.T) {
		s := newTestServer(t, nil)
		resp := s.do(t, http.MethodPost, "/v1/external/google", "",
			authsdk.ExternalLoginRequest{ClientID: testClient, IDToken: "x"})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSystemEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decode[authsdk.HealthResponse](t, resp).Status)

	resp = s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ready := decode[authsdk.HealthResponse](t, resp)
	require.Equal(t, "ok", ready.Checks.Database)

	set, err := s.client.FetchJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, set.Keys, 1)
	require.Equal(t, "EdDSA", set.Keys[0].Alg)

	resp = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
