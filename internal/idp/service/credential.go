package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/store"
	"github.com/kaszm/imagegallery/pkg/cryptox"
	"github.com/kaszm/imagegallery/pkg/idx"
	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

const (
	DefaultRole            = "employee"
	DefaultSecurityCodeTTL = 24 * time.Hour
)

// NewUser is the input to CreateUser.
type NewUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Claims    []domain.Claim
}

// CredentialService owns account creation, password checks, email
// verification codes and external login linking.
type CredentialService struct {
	Store   store.Store
	Metrics *metricsx.Metrics

	// DefaultRole is assigned when CreateUser is called without a role.
	DefaultRole     string
	SecurityCodeTTL time.Duration

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (s *CredentialService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateUser registers a local account with an unverified email and a
// fresh security code.
func (s *CredentialService) CreateUser(ctx context.Context, in NewUser) (domain.User, error) {
	email := normalizeEmail(in.Email)
	switch {
	case email == "":
		return domain.User{}, fmt.Errorf("%w: email is required", ErrValidation)
	case strings.TrimSpace(in.Password) == "":
		return domain.User{}, fmt.Errorf("%w: password is required", ErrValidation)
	case strings.TrimSpace(in.FirstName) == "":
		return domain.User{}, fmt.Errorf("%w: first name is required", ErrValidation)
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = s.DefaultRole
	}
	if role == "" {
		role = DefaultRole
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.newUser(email, strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName), role)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = hash
	u.Claims = cleanClaims(in.Claims)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return createUser(ctx, tx, u)
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user created", slog.String("user_id", u.ID), slog.String("role", u.Role))
	return u, nil
}

// UpdateUser replaces the stored record. The caller must pass the
// ConcurrencyStamp it read; a stale stamp yields ErrConcurrencyConflict.
// The returned user carries the new stamp.
func (s *CredentialService) UpdateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)
	if u.Email == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if strings.TrimSpace(u.FirstName) == "" {
		return domain.User{}, fmt.Errorf("%w: first name is required", ErrValidation)
	}
	u.UserName = u.Email
	u.Claims = cleanClaims(u.Claims)
	if err := checkLogins(u.ExternalLogins); err != nil {
		return domain.User{}, err
	}

	var out domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if u.IsActive {
			if err := ensureLoginsFree(ctx, tx, u); err != nil {
				return err
			}
		}
		var err error
		out, err = saveUser(ctx, tx, u, s.now())
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}

// ValidateCredentials reports whether username and password identify an
// active account with a local password. It never returns an error; every
// failure is false.
func (s *CredentialService) ValidateCredentials(ctx context.Context, username, password string) bool {
	ok := s.validateCredentials(ctx, username, password)
	s.Metrics.CredentialCheck(ok)
	return ok
}

func (s *CredentialService) validateCredentials(ctx context.Context, username, password string) bool {
	email := normalizeEmail(username)
	if email == "" || password == "" {
		return false
	}

	u, err := s.Store.Users().GetActiveUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Error("failed to load user for credential check", slog.Any("error", err))
		}
		cryptox.BurnVerify(password)
		return false
	}

	// Accounts created through an external provider have no password.
	if u.PasswordHash == "" {
		cryptox.BurnVerify(password)
		return false
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Error("stored password hash rejected",
				slog.String("user_id", u.ID),
				slog.Any("error", err),
			)
		}
		return false
	}
	return true
}

// VerifySecurityCode reports whether code is the user's current, unexpired
// security code. It does not consume the code.
func (s *CredentialService) VerifySecurityCode(ctx context.Context, userID, code string) bool {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil || !u.IsActive {
		return false
	}
	return securityCodeMatches(u, code, s.now())
}

// ConfirmEmail consumes the security code and marks the email verified.
func (s *CredentialService) ConfirmEmail(ctx context.Context, userID, code string) (domain.User, error) {
	now := s.now()

	var out domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidSecurityCode
			}
			return err
		}
		if !u.IsActive {
			return ErrInvalidSecurityCode
		}
		if u.EmailVerified {
			return ErrEmailAlreadyVerified
		}
		if !securityCodeMatches(u, code, now) {
			return ErrInvalidSecurityCode
		}

		u.EmailVerified = true
		u.SecurityCode = nil
		u.SecurityCodeExpiresAt = nil
		out, err = saveUser(ctx, tx, u, now)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("email verified", slog.String("user_id", out.ID))
	return out, nil
}

// ReissueSecurityCode replaces the pending security code of an unverified
// account so a new verification email can be sent.
func (s *CredentialService) ReissueSecurityCode(ctx context.Context, email string) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	now := s.now()

	var out domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetActiveUserByEmail(ctx, email)
		if err != nil {
			return mapStoreErr(err)
		}
		if u.EmailVerified {
			return ErrEmailAlreadyVerified
		}

		code, exp, err := s.newSecurityCode(now)
		if err != nil {
			return err
		}
		u.SecurityCode = &code
		u.SecurityCodeExpiresAt = &exp
		out, err = saveUser(ctx, tx, u, now)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}

// GetUserByID returns an active user.
func (s *CredentialService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, mapStoreErr(err)
	}
	if !u.IsActive {
		return domain.User{}, ErrNotFound
	}
	return u, nil
}

func (s *CredentialService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := s.Store.Users().GetActiveUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.User{}, mapStoreErr(err)
	}
	return u, nil
}

// GetUserByExternalProvider returns the active user linked to the login.
// ErrNotFound means no such user.
func (s *CredentialService) GetUserByExternalProvider(ctx context.Context, provider, providerKey string) (domain.User, error) {
	u, err := s.Store.Users().GetActiveUserByLogin(ctx, provider, providerKey)
	if err != nil {
		return domain.User{}, mapStoreErr(err)
	}
	return u, nil
}

// ProvisionExternalUser links login to the active account owning email, or
// creates that account from claims. Linking a provider the account already
// has is a no-op, whatever the key.
func (s *CredentialService) ProvisionExternalUser(
	ctx context.Context,
	email string,
	claims []domain.Claim,
	login domain.ExternalLogin,
) (domain.User, error) {
	l := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	login.Provider = strings.TrimSpace(login.Provider)
	login.ProviderKey = strings.TrimSpace(login.ProviderKey)
	switch {
	case email == "":
		return domain.User{}, fmt.Errorf("%w: email is required", ErrValidation)
	case login.Provider == "" || login.ProviderKey == "":
		return domain.User{}, fmt.Errorf("%w: external login is required", ErrValidation)
	}
	claims = cleanClaims(claims)
	now := s.now()

	var out domain.User
	var created bool
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		owner, err := tx.Users().GetActiveUserByLogin(ctx, login.Provider, login.ProviderKey)
		switch {
		case err == nil:
			if owner.Email != email {
				return ErrExternalLoginConflict
			}
			out = owner
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		u, err := tx.Users().GetActiveUserByEmail(ctx, email)
		switch {
		case err == nil:
			if u.HasLogin(login.Provider) {
				out = u
				return nil
			}
			u.ExternalLogins = append(u.ExternalLogins, login)
			out, err = saveUser(ctx, tx, u, now)
			return err
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		role := firstClaim(claims, domain.ClaimRole)
		if role == "" {
			l.Error("external login is missing a required claim",
				slog.String("provider", login.Provider),
				slog.String("claim", domain.ClaimRole),
			)
			return fmt.Errorf("%w: %s", ErrMissingRequiredClaim, domain.ClaimRole)
		}
		givenName := firstClaim(claims, domain.ClaimGivenName)
		if givenName == "" {
			l.Error("external login is missing a required claim",
				slog.String("provider", login.Provider),
				slog.String("claim", domain.ClaimGivenName),
			)
			return fmt.Errorf("%w: %s", ErrMissingRequiredClaim, domain.ClaimGivenName)
		}

		nu, err := s.newUser(email, givenName, firstClaim(claims, domain.ClaimFamilyName), role)
		if err != nil {
			return err
		}
		nu.Claims = claims
		nu.ExternalLogins = []domain.ExternalLogin{login}
		if err := createUser(ctx, tx, nu); err != nil {
			return err
		}
		out = nu
		created = true
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	if created {
		l.Info("user provisioned from external login",
			slog.String("user_id", out.ID),
			slog.String("provider", login.Provider),
		)
	}
	return out, nil
}

// DeactivateUser soft deletes the account and revokes its refresh tokens.
func (s *CredentialService) DeactivateUser(ctx context.Context, userID, stamp string) error {
	now := s.now()
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return mapStoreErr(err)
		}
		if !u.IsActive {
			return ErrNotFound
		}

		u.IsActive = false
		u.ConcurrencyStamp = stamp
		if _, err := saveUser(ctx, tx, u, now); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, u.ID)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user deactivated", slog.String("user_id", userID))
	return nil
}

func (s *CredentialService) newUser(email, firstName, lastName, role string) (domain.User, error) {
	now := s.now()
	code, exp, err := s.newSecurityCode(now)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:                    idx.New().String(),
		UserName:              email,
		FirstName:             firstName,
		LastName:              lastName,
		Email:                 email,
		EmailVerified:         false,
		SecurityCode:          &code,
		SecurityCodeExpiresAt: &exp,
		Role:                  role,
		IsActive:              true,
		CreatedAt:             now,
		UpdatedAt:             now,
		ConcurrencyStamp:      idx.New().String(),
	}, nil
}

func (s *CredentialService) newSecurityCode(now time.Time) (string, time.Time, error) {
	code, err := cryptox.GenerateToken(cryptox.SecurityCodeSize)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate security code: %w", err)
	}
	ttl := s.SecurityCodeTTL
	if ttl <= 0 {
		ttl = DefaultSecurityCodeTTL
	}
	return code, now.Add(ttl), nil
}

func createUser(ctx context.Context, tx store.Tx, u domain.User) error {
	if _, err := tx.Users().GetActiveUserByEmail(ctx, u.Email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := ensureLoginsFree(ctx, tx, u); err != nil {
		return err
	}
	if err := tx.Users().CreateUser(ctx, u); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// saveUser writes u guarded by the stamp it carries, then rotates the stamp
// and UpdatedAt.
func saveUser(ctx context.Context, tx store.Tx, u domain.User, now time.Time) (domain.User, error) {
	expected := u.ConcurrencyStamp
	u.ConcurrencyStamp = idx.New().String()
	u.UpdatedAt = now
	if err := tx.Users().UpdateUser(ctx, u, expected); err != nil {
		return domain.User{}, mapStoreErr(err)
	}
	return u, nil
}

// ensureLoginsFree rejects logins already owned by another active user.
func ensureLoginsFree(ctx context.Context, tx store.Tx, u domain.User) error {
	for _, login := range u.ExternalLogins {
		owner, err := tx.Users().GetActiveUserByLogin(ctx, login.Provider, login.ProviderKey)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if owner.ID != u.ID {
			return ErrExternalLoginConflict
		}
	}
	return nil
}

func checkLogins(logins []domain.ExternalLogin) error {
	seen := make(map[string]struct{}, len(logins))
	for _, l := range logins {
		if strings.TrimSpace(l.Provider) == "" || strings.TrimSpace(l.ProviderKey) == "" {
			return fmt.Errorf("%w: external login needs provider and key", ErrValidation)
		}
		if _, ok := seen[l.Provider]; ok {
			return fmt.Errorf("%w: provider %s linked twice", ErrValidation, l.Provider)
		}
		seen[l.Provider] = struct{}{}
	}
	return nil
}

func securityCodeMatches(u domain.User, code string, now time.Time) bool {
	if u.SecurityCode == nil || u.SecurityCodeExpiresAt == nil {
		return false
	}
	if now.After(*u.SecurityCodeExpiresAt) {
		return false
	}
	return cryptox.EqualTokens(*u.SecurityCode, code)
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConcurrencyConflict
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrDuplicateEmail
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// cleanClaims drops claims with a blank type or value.
func cleanClaims(in []domain.Claim) []domain.Claim {
	out := make([]domain.Claim, 0, len(in))
	for _, c := range in {
		c.Type = strings.TrimSpace(c.Type)
		c.Value = strings.TrimSpace(c.Value)
		if c.Type == "" || c.Value == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func firstClaim(claims []domain.Claim, t string) string {
	for _, c := range claims {
		if c.Type == t {
			return c.Value
		}
	}
	return ""
}
