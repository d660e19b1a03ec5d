package domain_test

import (
	"testing"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/stretchr/testify/require"
)

func TestMFAState(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	empty := ""

	require.Equal(t, domain.MFANoSecret, domain.User{}.MFAState())
	require.Equal(t, domain.MFANoSecret, domain.User{TOTPSecret: &empty}.MFAState())
	require.Equal(t, domain.MFASecretProvisioned, domain.User{TOTPSecret: &secret}.MFAState())
	require.Equal(t, domain.MFAEnrolled, domain.User{TOTPSecret: &secret, TwoFactorEnabled: true}.MFAState())
}

func TestClaimValuesAndLogins(t *testing.T) {
	u := domain.User{
		Claims: []domain.Claim{
			{Type: domain.ClaimRole, Value: "employee"},
			{Type: domain.ClaimCountry, Value: "nl"},
			{Type: domain.ClaimRole, Value: "admin"},
		},
		ExternalLogins: []domain.ExternalLogin{{Provider: "google", ProviderKey: "123"}},
	}

	require.Equal(t, []string{"employee", "admin"}, u.ClaimValues(domain.ClaimRole))
	require.Nil(t, u.ClaimValues("missing"))
	require.True(t, u.HasLogin("google"))
	require.False(t, u.HasLogin("github"))
}
