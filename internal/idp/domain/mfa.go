package domain

import "time"

// MFAEnrollment is what a user needs to add the account to an authenticator app.
type MFAEnrollment struct {
	Secret    string // base32
	URL       string // otpauth://totp/...
	QRCodePNG string // base64 PNG of URL
	Issuer    string
	Account   string
}

// MFASession is a pending second-factor challenge created after a
// successful password check.
type MFASession struct {
	ID        string // the mfa_token handed to the client
	UserID    string
	ClientID  string
	Scopes    []string
	AMR       []string
	SessionID string
	Attempts  int
	CreatedAt time.Time
	ExpiresAt time.Time
}
