package domain

import "time"

// User is a local or externally provisioned account.
type User struct {
	ID        string
	UserName  string // mirrors Email
	FirstName string
	LastName  string

	// PasswordHash is an argon2id PHC string. Empty for accounts created
	// through an external provider, which can never pass a password check.
	PasswordHash string

	Email         string
	EmailVerified bool

	// SecurityCode is the pending email verification code. Nil once consumed.
	SecurityCode          *string
	SecurityCodeExpiresAt *time.Time

	Role             string
	TwoFactorEnabled bool

	// TOTPSecret is the base32 authenticator secret. Nil until enrollment
	// starts.
	TOTPSecret *string

	Claims         []Claim
	ExternalLogins []ExternalLogin

	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ConcurrencyStamp string
}

// Claim is a typed attribute such as given_name or country.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ExternalLogin links a user to an account at an external identity provider.
type ExternalLogin struct {
	Provider    string
	ProviderKey string
}

// Well-known claim types.
const (
	ClaimGivenName  = "given_name"
	ClaimFamilyName = "family_name"
	ClaimName       = "name"
	ClaimEmail      = "email"
	ClaimCountry    = "country"
	ClaimRole       = "role"
)

// MFAState is where a user is in authenticator enrollment.
type MFAState int

const (
	MFANoSecret MFAState = iota
	MFASecretProvisioned
	MFAEnrolled
)

func (u User) MFAState() MFAState {
	switch {
	case u.TOTPSecret == nil || *u.TOTPSecret == "":
		return MFANoSecret
	case !u.TwoFactorEnabled:
		return MFASecretProvisioned
	default:
		return MFAEnrolled
	}
}

// ClaimValues returns every value stored for claim type t.
func (u User) ClaimValues(t string) []string {
	var out []string
	for _, c := range u.Claims {
		if c.Type == t {
			out = append(out, c.Value)
		}
	}
	return out
}

// HasLogin reports whether the user is already linked to provider.
func (u User) HasLogin(provider string) bool {
	for _, l := range u.ExternalLogins {
		if l.Provider == provider {
			return true
		}
	}
	return false
}
