package authz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kaszm/imagegallery/internal/gallery/authz"
	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/kaszm/imagegallery/pkg/jwtx"
)

// fakeOwners maps resource ids to owners and counts lookups.
type fakeOwners struct {
	owners map[uuid.UUID]string
	err    error
	calls  int
}

func (f *fakeOwners) IsOwner(_ context.Context, id uuid.UUID, subject string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	owner, ok := f.owners[id]
	return ok && owner == subject, nil
}

func TestOwnershipGuardEvaluate(t *testing.T) {
	imageID := uuid.New()

	tests := []struct {
		name      string
		req       authz.Request
		storeErr  error
		want      authz.Decision
		wantCalls int
	}{
		{
			name:      "owner is allowed",
			req:       authz.Request{Subject: "alice", ResourceID: imageID.String()},
			want:      authz.Decision{Allowed: true, Reason: authz.ReasonOK},
			wantCalls: 1,
		},
		{
			name:      "other subject is denied",
			req:       authz.Request{Subject: "bob", ResourceID: imageID.String()},
			want:      authz.Decision{Reason: authz.ReasonNotOwner},
			wantCalls: 1,
		},
		{
			name:      "unknown resource is denied",
			req:       authz.Request{Subject: "alice", ResourceID: uuid.NewString()},
			want:      authz.Decision{Reason: authz.ReasonNotOwner},
			wantCalls: 1,
		},
		{
			name: "malformed id is denied before the store",
			req:  authz.Request{Subject: "alice", ResourceID: "not-a-uuid"},
			want: authz.Decision{Reason: authz.ReasonMalformedResourceID},
		},
		{
			name: "malformed id wins over missing subject",
			req:  authz.Request{ResourceID: "42"},
			want: authz.Decision{Reason: authz.ReasonMalformedResourceID},
		},
		{
			name: "missing subject is denied",
			req:  authz.Request{ResourceID: imageID.String()},
			want: authz.Decision{Reason: authz.ReasonNoAuthenticatedSubject},
		},
		{
			name:      "absent id is never owned",
			req:       authz.Request{Subject: "alice"},
			want:      authz.Decision{Reason: authz.ReasonNotOwner},
			wantCalls: 1,
		},
		{
			name:      "store failure denies",
			req:       authz.Request{Subject: "alice", ResourceID: imageID.String()},
			storeErr:  errors.New("disk on fire"),
			want:      authz.Decision{Reason: authz.ReasonStoreError},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			owners := &fakeOwners{owners: map[uuid.UUID]string{imageID: "alice"}, err: tt.storeErr}
			g := &authz.OwnershipGuard{Store: owners}

			require.Equal(t, tt.want, g.Evaluate(context.Background(), tt.req))
			require.Equal(t, tt.wantCalls, owners.calls)
		})
	}
}

func TestOwnershipGuardIsNotCached(t *testing.T) {
	imageID := uuid.New()
	owners := &fakeOwners{owners: map[uuid.UUID]string{imageID: "alice"}}
	g := &authz.OwnershipGuard{Store: owners}
	req := authz.Request{Subject: "alice", ResourceID: imageID.String()}

	require.True(t, g.Evaluate(context.Background(), req).Allowed)

	owners.owners[imageID] = "bob"
	require.False(t, g.Evaluate(context.Background(), req).Allowed)
	require.Equal(t, 2, owners.calls)
}

type stubVerifier map[string]string

func (s stubVerifier) Verify(tok string) (jwtx.Claims, error) {
	sub, ok := s[tok]
	if !ok {
		return jwtx.Claims{}, errors.New("bad token")
	}
	return jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}, nil
}

func TestRequireOwnership(t *testing.T) {
	imageID := uuid.New()
	g := &authz.OwnershipGuard{Store: &fakeOwners{owners: map[uuid.UUID]string{imageID: "alice"}}}

	mux := http.NewServeMux()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("GET /images/{id}", httpx.Chain(inner,
		httpx.AuthnMiddleware(stubVerifier{"alice-token": "alice", "bob-token": "bob"}),
		authz.RequireOwnership(g, "id", nil),
	))

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"owner", "/images/" + imageID.String(), "alice-token", http.StatusNoContent},
		{"not owner", "/images/" + imageID.String(), "bob-token", http.StatusForbidden},
		{"unknown image", "/images/" + uuid.NewString(), "alice-token", http.StatusForbidden},
		{"malformed id", "/images/abc", "alice-token", http.StatusForbidden},
		{"no token", "/images/" + imageID.String(), "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				require.Contains(t, rec.Body.String(), "access_denied")
				require.NotContains(t, rec.Body.String(), "not_owner")
			}
		})
	}
}

func TestRequireOwnershipWithoutSubject(t *testing.T) {
	g := &authz.OwnershipGuard{Store: &fakeOwners{}}
	h := authz.RequireOwnership(g, "id", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	mux := http.NewServeMux()
	mux.Handle("GET /images/{id}", h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
