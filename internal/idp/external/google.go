// Package external verifies identities asserted by third-party providers.
package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/kaszm/imagegallery/internal/idp/domain"
)

const ProviderGoogle = "google"

var (
	ErrInvalidAudience = errors.New("external: invalid google audience")
	ErrUnverifiedEmail = errors.New("external: provider email is not verified")
	ErrMissingToken    = errors.New("external: id token is required")
)

// Identity is a provider account ready for account linking.
type Identity struct {
	Provider    string
	ProviderKey string
	Email       string
	Claims      []domain.Claim
}

func (i Identity) Login() domain.ExternalLogin {
	return domain.ExternalLogin{Provider: i.Provider, ProviderKey: i.ProviderKey}
}

// Verifier turns provider tokens into an Identity.
type Verifier interface {
	Verify(ctx context.Context, idToken, accessToken string) (Identity, error)
}

// GoogleVerifier checks Google ID tokens with the tokeninfo endpoint and
// reads the profile from userinfo when an access token is supplied.
type GoogleVerifier struct {
	ClientID string

	// DefaultRole is attached as the role claim of every Google identity.
	DefaultRole string

	// HTTPClient and Endpoint override the Google API transport.
	HTTPClient *http.Client
	Endpoint   string
}

func (g *GoogleVerifier) Verify(ctx context.Context, idToken, accessToken string) (Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Identity{}, ErrMissingToken
	}

	svc, err := goauth2.NewService(ctx, g.options(ctx, nil)...)
	if err != nil {
		return Identity{}, fmt.Errorf("external: google client: %w", err)
	}

	info, err := svc.Tokeninfo().IdToken(idToken).Context(ctx).Do()
	if err != nil {
		return Identity{}, fmt.Errorf("external: tokeninfo: %w", err)
	}
	if info.Audience != g.ClientID {
		return Identity{}, ErrInvalidAudience
	}
	if !info.VerifiedEmail {
		return Identity{}, ErrUnverifiedEmail
	}

	id := Identity{
		Provider:    ProviderGoogle,
		ProviderKey: info.UserId,
		Email:       strings.ToLower(info.Email),
		Claims:      []domain.Claim{{Type: domain.ClaimEmail, Value: info.Email}},
	}
	if g.DefaultRole != "" {
		id.Claims = append(id.Claims, domain.Claim{Type: domain.ClaimRole, Value: g.DefaultRole})
	}

	if accessToken = strings.TrimSpace(accessToken); accessToken != "" {
		profile, err := g.userinfo(ctx, accessToken)
		if err != nil {
			return Identity{}, err
		}
		if profile.Id != "" && profile.Id != info.UserId {
			return Identity{}, fmt.Errorf("external: userinfo subject does not match id token")
		}
		id.Claims = appendClaim(id.Claims, domain.ClaimGivenName, profile.GivenName)
		id.Claims = appendClaim(id.Claims, domain.ClaimFamilyName, profile.FamilyName)
		id.Claims = appendClaim(id.Claims, domain.ClaimName, profile.Name)
	}
	return id, nil
}

func (g *GoogleVerifier) userinfo(ctx context.Context, accessToken string) (*goauth2.Userinfo, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	svc, err := goauth2.NewService(ctx, g.options(ctx, ts)...)
	if err != nil {
		return nil, fmt.Errorf("external: google client: %w", err)
	}
	profile, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("external: userinfo: %w", err)
	}
	return profile, nil
}

func (g *GoogleVerifier) options(ctx context.Context, ts oauth2.TokenSource) []option.ClientOption {
	var opts []option.ClientOption
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}

	base := g.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	switch {
	case ts != nil:
		authed := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
		opts = append(opts, option.WithHTTPClient(authed))
	default:
		opts = append(opts, option.WithHTTPClient(base))
	}
	return opts
}

func appendClaim(claims []domain.Claim, t, v string) []domain.Claim {
	if v = strings.TrimSpace(v); v == "" {
		return claims
	}
	return append(claims, domain.Claim{Type: t, Value: v})
}
