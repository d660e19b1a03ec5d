package service

import (
	"context"
	"errors"

	"github.com/kaszm/imagegallery/internal/idp/domain"
	"github.com/kaszm/imagegallery/internal/idp/store"
)

// ProfileService feeds stored claims into issued tokens and reports
// whether a subject may still hold tokens.
type ProfileService struct {
	Store store.Store
}

// GetProfileData returns every claim of an active user. Unknown and
// inactive subjects have no claims.
func (s *ProfileService) GetProfileData(ctx context.Context, subjectID string) ([]domain.Claim, error) {
	u, err := s.Store.Users().GetUserByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []domain.Claim{}, nil
		}
		return nil, err
	}
	if !u.IsActive {
		return []domain.Claim{}, nil
	}
	return append([]domain.Claim{}, u.Claims...), nil
}

// IsActive reports the subject's active flag. Unknown subjects are inactive.
func (s *ProfileService) IsActive(ctx context.Context, subjectID string) (bool, error) {
	u, err := s.Store.Users().GetUserByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsActive, nil
}

// ProfileClaims groups claims by type for the profile token claim and the
// userinfo body. The role claim is left out; it travels in its own claim
// under the roles scope.
func ProfileClaims(claims []domain.Claim) map[string][]string {
	if len(claims) == 0 {
		return nil
	}
	out := make(map[string][]string, len(claims))
	for _, c := range claims {
		if c.Type == domain.ClaimRole {
			continue
		}
		out[c.Type] = append(out[c.Type], c.Value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
