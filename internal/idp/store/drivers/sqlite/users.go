package sqlite

import (
	"context"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/store"
	"github.com/kaszm/imagegallery/internal/idp/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:                    u.ID,
		UserName:              u.UserName,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		PasswordHash:          u.PasswordHash,
		Email:                 u.Email,
		EmailVerified:         u.EmailVerified,
		SecurityCode:          mapOptionalString(u.SecurityCode),
		SecurityCodeExpiresAt: mapOptionalTime(u.SecurityCodeExpiresAt),
		Role:                  u.Role,
		TwoFactorEnabled:      u.TwoFactorEnabled,
		TotpSecret:            mapOptionalString(u.TOTPSecret),
		IsActive:              u.IsActive,
		CreatedAt:             u.CreatedAt.UTC(),
		UpdatedAt:             u.UpdatedAt.UTC(),
		ConcurrencyStamp:      u.ConcurrencyStamp,
	})
	if err != nil {
		return mapWriteErr(err)
	}
	return r.writeChildren(ctx, u)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.load(ctx, row)
}

func (r *usersRepo) GetActiveUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetActiveUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.load(ctx, row)
}

func (r *usersRepo) GetActiveUserByLogin(ctx context.Context, provider, providerKey string) (domain.User, error) {
	row, err := r.q.GetActiveUserByLogin(ctx, gen.GetActiveUserByLoginParams{
		Provider:    provider,
		ProviderKey: providerKey,
	})
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.load(ctx, row)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User, expectedStamp string) error {
	n, err := r.q.UpdateUser(ctx, gen.UpdateUserParams{
		UserName:              u.UserName,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		PasswordHash:          u.PasswordHash,
		Email:                 u.Email,
		EmailVerified:         u.EmailVerified,
		SecurityCode:          mapOptionalString(u.SecurityCode),
		SecurityCodeExpiresAt: mapOptionalTime(u.SecurityCodeExpiresAt),
		Role:                  u.Role,
		TwoFactorEnabled:      u.TwoFactorEnabled,
		TotpSecret:            mapOptionalString(u.TOTPSecret),
		IsActive:              u.IsActive,
		UpdatedAt:             u.UpdatedAt.UTC(),
		NewStamp:              u.ConcurrencyStamp,
		ID:                    u.ID,
		ExpectedStamp:         expectedStamp,
	})
	if err != nil {
		return mapWriteErr(err)
	}
	if n == 0 {
		count, err := r.q.UserExists(ctx, u.ID)
		if err != nil {
			return err
		}
		if count == 0 {
			return store.ErrNotFound
		}
		return store.ErrConflict
	}

	if err := r.q.DeleteUserClaims(ctx, u.ID); err != nil {
		return err
	}
	if err := r.q.DeleteUserLogins(ctx, u.ID); err != nil {
		return err
	}
	return r.writeChildren(ctx, u)
}

func (r *usersRepo) writeChildren(ctx context.Context, u domain.User) error {
	for _, c := range u.Claims {
		err := r.q.CreateUserClaim(ctx, gen.CreateUserClaimParams{
			UserID:     u.ID,
			ClaimType:  c.Type,
			ClaimValue: c.Value,
		})
		if err != nil {
			return mapWriteErr(err)
		}
	}
	for _, l := range u.ExternalLogins {
		err := r.q.CreateUserLogin(ctx, gen.CreateUserLoginParams{
			UserID:      u.ID,
			Provider:    l.Provider,
			ProviderKey: l.ProviderKey,
		})
		if err != nil {
			return mapWriteErr(err)
		}
	}
	return nil
}

func (r *usersRepo) load(ctx context.Context, row gen.User) (domain.User, error) {
	u := mapUser(row)

	claims, err := r.q.ListUserClaims(ctx, row.ID)
	if err != nil {
		return domain.User{}, err
	}
	for _, c := range claims {
		u.Claims = append(u.Claims, domain.Claim{Type: c.ClaimType, Value: c.ClaimValue})
	}

	logins, err := r.q.ListUserLogins(ctx, row.ID)
	if err != nil {
		return domain.User{}, err
	}
	for _, l := range logins {
		u.ExternalLogins = append(u.ExternalLogins, domain.ExternalLogin{
			Provider:    l.Provider,
			ProviderKey: l.ProviderKey,
		})
	}
	return u, nil
}
