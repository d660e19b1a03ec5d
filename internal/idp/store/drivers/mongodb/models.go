package mongodb

import (
	"time"

	"github.com/kaszm/imagegallery/internal/idp/domain"
)

type userDoc struct {
	ID                    string     `bson:"_id"`
	UserName              string     `bson:"user_name"`
	FirstName             string     `bson:"first_name"`
	LastName              string     `bson:"last_name"`
	PasswordHash          string     `bson:"password_hash"`
	Email                 string     `bson:"email"`
	EmailVerified         bool       `bson:"email_verified"`
	SecurityCode          *string    `bson:"security_code,omitempty"`
	SecurityCodeExpiresAt *time.Time `bson:"security_code_expires_at,omitempty"`
	Role                  string     `bson:"role"`
	TwoFactorEnabled      bool       `bson:"two_factor_enabled"`
	TOTPSecret            *string    `bson:"totp_secret,omitempty"`
	Claims                []claimDoc `bson:"claims"`
	Logins                []loginDoc `bson:"logins"`
	IsActive              bool       `bson:"is_active"`
	CreatedAt             time.Time  `bson:"created_at"`
	UpdatedAt             time.Time  `bson:"updated_at"`
	ConcurrencyStamp      string     `bson:"concurrency_stamp"`
}

type claimDoc struct {
	Type  string `bson:"type"`
	Value string `bson:"value"`
}

type loginDoc struct {
	Provider    string `bson:"provider"`
	ProviderKey string `bson:"provider_key"`
}

type refreshTokenDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ClientID  string    `bson:"client_id"`
	TokenHash string    `bson:"token_hash"`
	SessionID string    `bson:"session_id"`
	Scopes    []string  `bson:"scopes"`
	AMR       []string  `bson:"amr"`
	ExpiresAt time.Time `bson:"expires_at"`
	Revoked   bool      `bson:"revoked"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type mfaSessionDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ClientID  string    `bson:"client_id"`
	Scopes    []string  `bson:"scopes"`
	AMR       []string  `bson:"amr"`
	SessionID string    `bson:"session_id"`
	Attempts  int       `bson:"attempts"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func toUserDoc(u domain.User) userDoc {
	doc := userDoc{
		ID:               u.ID,
		UserName:         u.UserName,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		PasswordHash:     u.PasswordHash,
		Email:            u.Email,
		EmailVerified:    u.EmailVerified,
		SecurityCode:     u.SecurityCode,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
		TOTPSecret:       u.TOTPSecret,
		Claims:           make([]claimDoc, 0, len(u.Claims)),
		Logins:           make([]loginDoc, 0, len(u.ExternalLogins)),
		IsActive:         u.IsActive,
		CreatedAt:        u.CreatedAt.UTC(),
		UpdatedAt:        u.UpdatedAt.UTC(),
		ConcurrencyStamp: u.ConcurrencyStamp,
	}
	if u.SecurityCodeExpiresAt != nil {
		exp := u.SecurityCodeExpiresAt.UTC()
		doc.SecurityCodeExpiresAt = &exp
	}
	for _, c := range u.Claims {
		doc.Claims = append(doc.Claims, claimDoc{Type: c.Type, Value: c.Value})
	}
	for _, l := range u.ExternalLogins {
		doc.Logins = append(doc.Logins, loginDoc{Provider: l.Provider, ProviderKey: l.ProviderKey})
	}
	return doc
}

func (d userDoc) toDomain() domain.User {
	u := domain.User{
		ID:               d.ID,
		UserName:         d.UserName,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		PasswordHash:     d.PasswordHash,
		Email:            d.Email,
		EmailVerified:    d.EmailVerified,
		SecurityCode:     d.SecurityCode,
		Role:             d.Role,
		TwoFactorEnabled: d.TwoFactorEnabled,
		TOTPSecret:       d.TOTPSecret,
		IsActive:         d.IsActive,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
		ConcurrencyStamp: d.ConcurrencyStamp,
	}
	if d.SecurityCodeExpiresAt != nil {
		exp := d.SecurityCodeExpiresAt.UTC()
		u.SecurityCodeExpiresAt = &exp
	}
	for _, c := range d.Claims {
		u.Claims = append(u.Claims, domain.Claim{Type: c.Type, Value: c.Value})
	}
	for _, l := range d.Logins {
		u.ExternalLogins = append(u.ExternalLogins, domain.ExternalLogin{
			Provider:    l.Provider,
			ProviderKey: l.ProviderKey,
		})
	}
	return u
}

func (d refreshTokenDoc) toDomain() domain.RefreshToken {
	return domain.RefreshToken{
		ID:        d.ID,
		UserID:    d.UserID,
		ClientID:  d.ClientID,
		TokenHash: d.TokenHash,
		SessionID: d.SessionID,
		Scopes:    d.Scopes,
		AMR:       d.AMR,
		ExpiresAt: d.ExpiresAt.UTC(),
		Revoked:   d.Revoked,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (d mfaSessionDoc) toDomain() domain.MFASession {
	return domain.MFASession{
		ID:        d.ID,
		UserID:    d.UserID,
		ClientID:  d.ClientID,
		Scopes:    d.Scopes,
		AMR:       d.AMR,
		SessionID: d.SessionID,
		Attempts:  d.Attempts,
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
	}
}
