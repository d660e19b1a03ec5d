package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/store"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/cryptox"
	"github.com/kaszm/imagegallery/pkg/idx"
	"github.com/kaszm/imagegallery/pkg/jwtx"
	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

const (
	// MaxMFAAttempts is the number of wrong codes an MFA session survives.
	MaxMFAAttempts = 5

	DefaultMFASessionTTL = 5 * time.Minute
)

// Grant names reported to metrics.
const (
	GrantPassword = "password"
	GrantMFAOTP   = "mfa_otp"
	GrantRefresh  = "refresh_token"
	GrantExternal = "external"
)

type MFARequiredError = authsdk.MFARequiredError

type TokenService struct {
	Store       store.Store
	Credentials *CredentialService
	MFA         *MFAService
	Profiles    *ProfileService
	Signer      jwtx.Signer
	Metrics     *metricsx.Metrics

	Issuer   string
	Audience []string

	// Clients is the allow-list of public client ids.
	Clients []string

	// RoleScopes maps a role to the API scopes it may be granted on top of
	// the identity scopes.
	RoleScopes map[string][]string

	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	MFASessionTTL time.Duration

	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// PasswordGrant authenticates username and password. Accounts with an
// enrolled authenticator get a *MFARequiredError carrying the mfa_token for
// ExchangeMFAOTP instead of tokens.
func (s *TokenService) PasswordGrant(
	ctx context.Context,
	clientID, username, password string,
	requested []string,
) (*domain.TokenPair, error) {
	if !s.knownClient(clientID) {
		return nil, ErrInvalidClient
	}
	if !s.Credentials.ValidateCredentials(ctx, username, password) {
		return nil, ErrInvalidCredentials
	}

	u, err := s.Credentials.GetUserByEmail(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return s.completeSignIn(ctx, u, clientID, requested, jwtx.AMRPassword, GrantPassword)
}

// ExternalGrant issues tokens for a user resolved through an external
// provider. Email verification is not required; the provider vouched for
// the address.
func (s *TokenService) ExternalGrant(
	ctx context.Context,
	clientID string,
	u domain.User,
	requested []string,
) (*domain.TokenPair, error) {
	if !s.knownClient(clientID) {
		return nil, ErrInvalidClient
	}
	if !u.IsActive {
		return nil, ErrInvalidGrant
	}
	return s.completeSignIn(ctx, u, clientID, requested, jwtx.AMRExternal, GrantExternal)
}

func (s *TokenService) completeSignIn(
	ctx context.Context,
	u domain.User,
	clientID string,
	requested []string,
	method, grant string,
) (*domain.TokenPair, error) {
	effective := s.effectiveScopes(requested, u.Role)
	if len(effective) == 0 {
		return nil, ErrInvalidScope
	}

	now := s.now()
	sessionID := idx.New().String()
	amr := []string{method}

	if u.TwoFactorEnabled {
		mfaToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}
		ttl := s.MFASessionTTL
		if ttl <= 0 {
			ttl = DefaultMFASessionTTL
		}
		err = s.Store.MFASessions().CreateMFASession(ctx, domain.MFASession{
			ID:        cryptox.FingerprintToken(mfaToken),
			UserID:    u.ID,
			ClientID:  clientID,
			Scopes:    effective,
			AMR:       amr,
			SessionID: sessionID,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		})
		if err != nil {
			return nil, err
		}
		return nil, &MFARequiredError{MFAToken: mfaToken, Methods: []string{authsdk.MFAMethodTOTP}}
	}

	return s.issue(ctx, u, clientID, sessionID, effective, amr, grant, now, nil)
}

// ExchangeMFAOTP completes a sign-in started by PasswordGrant or
// ExternalGrant. Every call uses up one of MaxMFAAttempts; the session is
// dropped once they are spent.
func (s *TokenService) ExchangeMFAOTP(ctx context.Context, mfaToken, code string) (*domain.TokenPair, error) {
	now := s.now()
	l := slogx.FromContext(ctx)
	id := cryptox.FingerprintToken(mfaToken)

	session, err := s.Store.MFASessions().GetMFASession(ctx, id, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	// Reserve the attempt before checking the code so concurrent guesses
	// cannot overrun the cap.
	updated, err := s.Store.MFASessions().IncrementMFASessionAttempts(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}
	if updated.Attempts > MaxMFAAttempts {
		_ = s.Store.MFASessions().DeleteMFASession(ctx, id)
		l.Warn("MFA session exceeded max attempts", slog.String("user_id", session.UserID))
		return nil, ErrTooManyAttempts
	}

	active, err := s.Profiles.IsActive(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !active {
		_ = s.Store.MFASessions().DeleteMFASession(ctx, id)
		return nil, ErrInvalidGrant
	}

	if err := s.MFA.VerifyChallenge(ctx, session.UserID, code); err != nil {
		if !isCodeFailure(err) {
			return nil, err
		}
		l.Warn("MFA validation failed",
			slog.String("user_id", session.UserID),
			slog.Int("attempts", updated.Attempts),
		)
		return nil, ErrInvalidGrant
	}

	u, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	amr := dedupe(append(session.AMR, jwtx.AMROTP, jwtx.AMRMFA))
	return s.issue(ctx, u, session.ClientID, session.SessionID, session.Scopes, amr, GrantMFAOTP, now,
		func(tx store.Tx) error {
			return tx.MFASessions().DeleteMFASession(ctx, id)
		})
}

// ExchangeRefreshToken rotates a refresh token. requested may only narrow
// the scopes of the first grant. Inactive subjects lose every refresh
// token they hold.
func (s *TokenService) ExchangeRefreshToken(
	ctx context.Context,
	clientID, refreshOpaque string,
	requested []string,
) (*domain.TokenPair, error) {
	now := s.now()

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if rt.Revoked || now.After(rt.ExpiresAt) {
		return nil, ErrInvalidRefresh
	}
	if rt.ClientID != clientID {
		return nil, ErrInvalidClient
	}

	active, err := s.Profiles.IsActive(ctx, rt.UserID)
	if err != nil {
		return nil, err
	}
	if !active {
		if err := s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, rt.UserID); err != nil {
			slogx.FromContext(ctx).Error("failed to revoke refresh tokens of inactive user",
				slog.String("user_id", rt.UserID),
				slog.Any("error", err),
			)
		}
		return nil, ErrInvalidGrant
	}

	u, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		return nil, err
	}

	base := rt.Scopes
	if len(requested) > 0 {
		base = intersectScopes(requested, rt.Scopes)
	}
	effective := intersectScopes(base, s.allowedScopes(u.Role))
	if len(effective) == 0 {
		return nil, ErrInvalidScope
	}

	return s.issue(ctx, u, clientID, rt.SessionID, effective, rt.AMR, GrantRefresh, now,
		func(tx store.Tx) error {
			return tx.RefreshTokens().RevokeRefreshToken(ctx, fp)
		})
}

// RevokeRefreshToken revokes a single refresh token by its opaque value.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshOpaque string) error {
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(refreshOpaque))
}

// issue signs an access token, stores a new refresh token and runs extra in
// the same transaction.
func (s *TokenService) issue(
	ctx context.Context,
	u domain.User,
	clientID, sessionID string,
	scopes, amr []string,
	grant string,
	now time.Time,
	extra func(tx store.Tx) error,
) (*domain.TokenPair, error) {
	accessToken, err := s.signAccess(ctx, u, clientID, sessionID, scopes, amr, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	refresh := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		ClientID:  clientID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		SessionID: sessionID,
		Scopes:    scopes,
		AMR:       amr,
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if extra != nil {
			if err := extra(tx); err != nil {
				return err
			}
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, refresh)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.TokenIssued(grant)
	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshOpaque,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL(),
		Scope:        strings.Join(scopes, " "),
	}, nil
}

func (s *TokenService) signAccess(
	ctx context.Context,
	u domain.User,
	clientID, sessionID string,
	scopes, amr []string,
	now time.Time,
) (string, error) {
	p := jwtx.AccessParams{
		Subject:  u.ID,
		ClientID: clientID,
		SID:      sessionID,
		Scopes:   scopes,
		AMR:      amr,
		Issuer:   s.Issuer,
		Audience: s.Audience,
		TTL:      s.accessTTL(),
		Now:      now,
	}
	if slices.Contains(scopes, authsdk.ScopeRoles) {
		p.Role = u.Role
	}
	if slices.Contains(scopes, authsdk.ScopeProfile) {
		claims, err := s.Profiles.GetProfileData(ctx, u.ID)
		if err != nil {
			return "", err
		}
		p.Profile = ProfileClaims(claims)
	}

	token, err := s.Signer.Sign(jwtx.NewAccessClaims(p))
	if err != nil {
		slogx.FromContext(ctx).Error("failed to sign access token", slog.Any("error", err))
		return "", err
	}
	return token, nil
}

func (s *TokenService) knownClient(clientID string) bool {
	return clientID != "" && slices.Contains(s.Clients, clientID)
}

// allowedScopes is every scope a user with role may hold.
func (s *TokenService) allowedScopes(role string) []string {
	return dedupe(append(slices.Clone(authsdk.IdentityScopes), s.RoleScopes[role]...))
}

// effectiveScopes intersects requested with what the role allows. An empty
// request means everything allowed.
func (s *TokenService) effectiveScopes(requested []string, role string) []string {
	allowed := s.allowedScopes(role)
	if len(requested) == 0 {
		return allowed
	}
	return intersectScopes(requested, allowed)
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

func intersectScopes(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
