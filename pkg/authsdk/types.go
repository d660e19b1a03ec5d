package authsdk

import "github.com/kaszm/imagegallery/pkg/jwtx"

// TokenResponse is the body of a successful token endpoint call.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// RegisterRequest creates a local account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Country   string `json:"country,omitempty"`
}

type RegisterResponse struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

type VerifyEmailResponse struct {
	UserID        string `json:"user_id"`
	EmailVerified bool   `json:"email_verified"`
}

// ExternalLoginRequest exchanges a provider ID token for local tokens.
type ExternalLoginRequest struct {
	ClientID string `json:"client_id"`
	IDToken  string `json:"id_token"`

	// AccessToken lets the server read the name from userinfo. Required on
	// the first sign in.
	AccessToken string `json:"access_token,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

type MFAEnrollResponse struct {
	Secret    string `json:"secret"`
	URL       string `json:"otpauth_url"`
	QRCodePNG string `json:"qr_code_png"`
}

type MFACodeRequest struct {
	Code string `json:"code"`
}

// UserInfo is the body of GET /v1/userinfo.
type UserInfo struct {
	Subject       string              `json:"sub"`
	Email         string              `json:"email,omitempty"`
	EmailVerified bool                `json:"email_verified"`
	Role          string              `json:"role,omitempty"`
	MFAEnabled    bool                `json:"mfa_enabled"`
	Claims        map[string][]string `json:"claims,omitempty"`
}

// ErrorResponse documents the error body shape.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Signer   string `json:"signer,omitempty"`
	Keys     string `json:"keys,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type JWKSResponse jwtx.JWKS
