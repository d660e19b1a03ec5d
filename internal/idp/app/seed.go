package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/service"
)

// seedAccounts are the development accounts created when IDP_SEED_USERS is
// set: one per built-in role.
var seedAccounts = []service.NewUser{
	{
		Email:     "admin@imagegallery.local",
		FirstName: "Alex",
		LastName:  "Admin",
		Role:      "admin",
		Claims: []domain.Claim{
			{Type: domain.ClaimRole, Value: "admin"},
			{Type: domain.ClaimCountry, Value: "ind"},
			{Type: domain.ClaimName, Value: "Alex Admin"},
			{Type: domain.ClaimGivenName, Value: "Alex"},
			{Type: domain.ClaimFamilyName, Value: "Admin"},
			{Type: domain.ClaimEmail, Value: "admin@imagegallery.local"},
		},
	},
	{
		Email:     "employee@imagegallery.local",
		FirstName: "Eli",
		LastName:  "Employee",
		Role:      "employee",
		Claims: []domain.Claim{
			{Type: domain.ClaimRole, Value: "employee"},
			{Type: domain.ClaimCountry, Value: "uae"},
			{Type: domain.ClaimName, Value: "Eli Employee"},
			{Type: domain.ClaimGivenName, Value: "Eli"},
			{Type: domain.ClaimFamilyName, Value: "Employee"},
			{Type: domain.ClaimEmail, Value: "employee@imagegallery.local"},
		},
	},
}

// SeedUsers creates the development accounts with verified emails. Accounts
// that already exist are left alone, so it is safe on every start.
func SeedUsers(ctx context.Context, creds *service.CredentialService, password string, logger *slog.Logger) error {
	if password == "" {
		return errors.New("IDP_SEED_PASSWORD is required when IDP_SEED_USERS is set")
	}

	for _, acct := range seedAccounts {
		acct.Password = password
		u, err := creds.CreateUser(ctx, acct)
		if errors.Is(err, service.ErrDuplicateEmail) {
			logger.Info("seed account already present", "email", acct.Email)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", acct.Email, err)
		}

		if _, err := creds.ConfirmEmail(ctx, u.ID, *u.SecurityCode); err != nil {
			return fmt.Errorf("verify seed %s: %w", acct.Email, err)
		}
		logger.Info("seed account created", "email", acct.Email, "user_id", u.ID, "role", u.Role)
	}
	return nil
}
