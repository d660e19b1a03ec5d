package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kaszm/imagegallery/pkg/idx"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Authentication method references carried in the amr claim.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRMFA      = "mfa"
	AMRExternal = "ext"
)

// Claims is the access token body shared by the identity provider and the
// resource APIs that trust it.
type Claims struct {
	jwt.RegisteredClaims

	ClientID string   `json:"client_id,omitempty"`
	SID      string   `json:"sid,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
	AMR      []string `json:"amr,omitempty"`

	// Role is only present when the roles scope was granted.
	Role string `json:"role,omitempty"`

	// Profile holds the user's stored claims, keyed by claim type, when the
	// profile scope was granted.
	Profile map[string][]string `json:"profile,omitempty"`
}

// AccessParams are the inputs to NewAccessClaims.
type AccessParams struct {
	Subject  string
	ClientID string
	SID      string
	Scopes   []string
	AMR      []string
	Role     string
	Profile  map[string][]string
	Issuer   string
	Audience []string
	TTL      time.Duration
	Now      time.Time
}

// NewAccessClaims fills in the registered claims around p.
func NewAccessClaims(p AccessParams) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings(p.Audience),
			IssuedAt:  jwt.NewNumericDate(p.Now),
			NotBefore: jwt.NewNumericDate(p.Now),
			ExpiresAt: jwt.NewNumericDate(p.Now.Add(p.TTL)),
			ID:        NewJTI(),
		},
		ClientID: p.ClientID,
		SID:      p.SID,
		Scopes:   p.Scopes,
		AMR:      p.AMR,
		Role:     p.Role,
		Profile:  p.Profile,
	}
}

// NewJTI returns a ULID token identifier.
func NewJTI() string {
	return idx.New().String()
}

// HasScope reports whether scope was granted.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience passes when any of expected is present, or expected is empty.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry checks exp and nbf against the current time.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now().UTC(), 0)
}

// ValidateExpiryAt checks exp and nbf against now, allowing leeway of clock skew.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
