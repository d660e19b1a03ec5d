package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kaszm/imagegallery/pkg/jwtx"
)

// Client talks to the identity provider's public endpoints.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchJWKS downloads the provider's current signing keys.
func (c *Client) FetchJWKS(ctx context.Context) (jwtx.JWKS, error) {
	var set jwtx.JWKS
	err := c.do(ctx, http.MethodGet, "/.well-known/jwks.json", nil, "", &set)
	return set, err
}

// PasswordGrant runs grant_type=password. Accounts with MFA return
// *MFARequiredError.
func (c *Client) PasswordGrant(ctx context.Context, clientID, username, password string, scopes []string) (*TokenResponse, error) {
	return c.token(ctx, url.Values{
		"grant_type": {"password"},
		"client_id":  {clientID},
		"username":   {username},
		"password":   {password},
		"scope":      {strings.Join(scopes, " ")},
	})
}

// MFAGrant completes a login started by PasswordGrant.
func (c *Client) MFAGrant(ctx context.Context, mfaToken, code string) (*TokenResponse, error) {
	return c.token(ctx, url.Values{
		"grant_type": {"mfa_otp"},
		"mfa_token":  {mfaToken},
		"otp":        {code},
	})
}

func (c *Client) RefreshGrant(ctx context.Context, clientID, refreshToken string) (*TokenResponse, error) {
	return c.token(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"refresh_token": {refreshToken},
	})
}

func (c *Client) token(ctx context.Context, form url.Values) (*TokenResponse, error) {
	var tr TokenResponse
	err := c.do(ctx, http.MethodPost, "/v1/oauth2/token",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &tr)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("authsdk: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("authsdk: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("authsdk: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, b)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("authsdk: decode %s: %w", path, err)
	}
	return nil
}
