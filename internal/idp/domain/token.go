package domain

import "time"

// TokenPair is the result of a successful grant.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    time.Duration
	Scope        string
}

// RefreshToken is a stored refresh token. Only the fingerprint of the
// opaque token is kept.
type RefreshToken struct {
	ID        string
	UserID    string
	ClientID  string
	TokenHash string
	SessionID string
	Scopes    []string
	AMR       []string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
