package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/store"
	"github.com/kaszm/imagegallery/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newUser(email string) domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	code := "code"
	exp := now.Add(time.Hour)
	return domain.User{
		ID:                    idx.New().String(),
		UserName:              email,
		FirstName:             "Ada",
		LastName:              "Lovelace",
		PasswordHash:          "hash",
		Email:                 email,
		SecurityCode:          &code,
		SecurityCodeExpiresAt: &exp,
		Role:                  "employee",
		Claims: []domain.Claim{
			{Type: domain.ClaimGivenName, Value: "Ada"},
			{Type: domain.ClaimCountry, Value: "nl"},
		},
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
		ConcurrencyStamp: idx.New().String(),
	}
}

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("ada@example.com")
	u.ExternalLogins = []domain.ExternalLogin{{Provider: "Google", ProviderKey: "g-1"}}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, u.Claims, got.Claims)
	require.Equal(t, u.ExternalLogins, got.ExternalLogins)
	require.NotNil(t, got.SecurityCode)
	require.Equal(t, "code", *got.SecurityCode)
	require.True(t, got.SecurityCodeExpiresAt.Equal(*u.SecurityCodeExpiresAt))
	require.Nil(t, got.TOTPSecret)

	byEmail, err := s.Users().GetActiveUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	byLogin, err := s.Users().GetActiveUserByLogin(ctx, "Google", "g-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, byLogin.ID)

	_, err = s.Users().GetActiveUserByLogin(ctx, "Google", "other")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deactivated users drop out of every sign-in lookup.
	stamp := u.ConcurrencyStamp
	u.IsActive = false
	u.ConcurrencyStamp = idx.New().String()
	require.NoError(t, s.Users().UpdateUser(ctx, u, stamp))

	_, err = s.Users().GetActiveUserByLogin(ctx, "Google", "g-1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().GetActiveUserByEmail(ctx, u.Email)
	require.ErrorIs(t, err, store.ErrNotFound)

	inactive, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, inactive.IsActive)
}

func TestCreateUserDuplicateActiveEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := newUser("dup@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, first))

	second := newUser("dup@example.com")
	require.ErrorIs(t, s.Users().CreateUser(ctx, second), store.ErrAlreadyExists)

	// Once the first account is deactivated the address is free again.
	stamp := first.ConcurrencyStamp
	first.IsActive = false
	first.ConcurrencyStamp = idx.New().String()
	require.NoError(t, s.Users().UpdateUser(ctx, first, stamp))
	require.NoError(t, s.Users().CreateUser(ctx, second))
}

func TestUpdateUserConcurrency(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("stamp@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	oldStamp := u.ConcurrencyStamp
	u.FirstName = "Grace"
	u.Claims = []domain.Claim{{Type: domain.ClaimGivenName, Value: "Grace"}}
	u.ConcurrencyStamp = idx.New().String()
	require.NoError(t, s.Users().UpdateUser(ctx, u, oldStamp))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Grace", got.FirstName)
	require.Equal(t, u.Claims, got.Claims)
	require.Equal(t, u.ConcurrencyStamp, got.ConcurrencyStamp)

	stale := u
	stale.ConcurrencyStamp = idx.New().String()
	require.ErrorIs(t, s.Users().UpdateUser(ctx, stale, oldStamp), store.ErrConflict)

	missing := newUser("nobody@example.com")
	require.ErrorIs(t, s.Users().UpdateUser(ctx, missing, "x"), store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("tx@example.com")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, u))
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("rt@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := time.Now().UTC()
	live := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		ClientID:  "imagegalleryclient",
		TokenHash: "live",
		SessionID: "sid",
		Scopes:    []string{"openid", "profile"},
		AMR:       []string{"pwd"},
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}
	expired := live
	expired.ID = idx.New().String()
	expired.TokenHash = "expired"
	expired.ExpiresAt = now.Add(-time.Hour)

	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, live))
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, expired))
	require.ErrorIs(t, s.RefreshTokens().CreateRefreshToken(ctx, live), store.ErrAlreadyExists)

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, []string{"openid", "profile"}, got.Scopes)
	require.False(t, got.Revoked)

	n, err := s.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, s.RefreshTokens().RevokeAllUserRefreshTokens(ctx, u.ID))
	got, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)
	require.True(t, got.Revoked)
}

func TestMFASessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("mfa@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := time.Now().UTC()
	sess := domain.MFASession{
		ID:        "mfa-token",
		UserID:    u.ID,
		ClientID:  "imagegalleryclient",
		Scopes:    []string{"openid"},
		AMR:       []string{"pwd"},
		SessionID: "sid",
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	}
	require.NoError(t, s.MFASessions().CreateMFASession(ctx, sess))

	got, err := s.MFASessions().GetMFASession(ctx, sess.ID, now)
	require.NoError(t, err)
	require.Equal(t, 0, got.Attempts)

	_, err = s.MFASessions().GetMFASession(ctx, sess.ID, now.Add(10*time.Minute))
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err = s.MFASessions().IncrementMFASessionAttempts(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Attempts)

	n, err := s.MFASessions().DeleteExpiredMFASessions(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
