package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaszm/imagegallery/internal/idp/domain"
)

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	creds := newCredentialService(t, st, newTestClock(time.Now()))
	profiles := &ProfileService{Store: st}

	u := mustCreateUser(t, creds, "profile@example.com", "pw")

	claims, err := profiles.GetProfileData(ctx, u.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.Claim{
		{Type: domain.ClaimGivenName, Value: "Alice"},
		{Type: domain.ClaimCountry, Value: "be"},
	}, claims)

	active, err := profiles.IsActive(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, active)

	unknown, err := profiles.GetProfileData(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, unknown)
	require.NotNil(t, unknown)

	active, err = profiles.IsActive(ctx, "missing")
	require.NoError(t, err)
	require.False(t, active)

	require.NoError(t, creds.DeactivateUser(ctx, u.ID, u.ConcurrencyStamp))

	claims, err = profiles.GetProfileData(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, claims)

	active, err = profiles.IsActive(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, active)
}

func TestProfileClaimsSkipsRole(t *testing.T) {
	got := ProfileClaims([]domain.Claim{
		{Type: domain.ClaimGivenName, Value: "Ada"},
		{Type: domain.ClaimRole, Value: "admin"},
		{Type: "nickname", Value: "a"},
		{Type: "nickname", Value: "b"},
	})
	require.Equal(t, map[string][]string{
		domain.ClaimGivenName: {"Ada"},
		"nickname":            {"a", "b"},
	}, got)

	require.Nil(t, ProfileClaims(nil))
}
