// Package authz decides whether an authenticated subject may act on an
// owner-scoped gallery resource.
package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/kaszm/imagegallery/pkg/slogx"
)

// Reason is the internal code attached to a Decision. It is logged and
// counted, never returned to the caller.
type Reason string

const (
	ReasonOK                     Reason = "ok"
	ReasonMalformedResourceID    Reason = "malformed_resource_id"
	ReasonNoAuthenticatedSubject Reason = "no_authenticated_subject"
	ReasonNotOwner               Reason = "not_owner"
	ReasonStoreError             Reason = "store_error"
)

// Request is the input to a Policy. An empty ResourceID means the route
// carried no identifier.
type Request struct {
	Subject    string
	ResourceID string
}

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true, Reason: ReasonOK} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// Policy evaluates one authorization requirement.
type Policy interface {
	Evaluate(ctx context.Context, req Request) Decision
}

// OwnerStore answers whether subject owns the resource with the given id.
type OwnerStore interface {
	IsOwner(ctx context.Context, id uuid.UUID, subject string) (bool, error)
}

// OwnershipGuard grants access only to the resource's owner. Every
// evaluation reads the store.
type OwnershipGuard struct {
	Store OwnerStore
}

func (g *OwnershipGuard) Evaluate(ctx context.Context, req Request) Decision {
	id := uuid.Nil
	if raw := strings.TrimSpace(req.ResourceID); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return deny(ReasonMalformedResourceID)
		}
		id = parsed
	}

	if strings.TrimSpace(req.Subject) == "" {
		return deny(ReasonNoAuthenticatedSubject)
	}

	// uuid.Nil is never stored, so an absent id ends up here as not owned.
	owned, err := g.Store.IsOwner(ctx, id, req.Subject)
	if err != nil {
		slogx.FromContext(ctx).Error("ownership lookup failed", "resource_id", id, "err", err)
		return deny(ReasonStoreError)
	}
	if !owned {
		return deny(ReasonNotOwner)
	}
	return allow()
}

// RequireOwnership evaluates policy with the authenticated subject and the
// path value idParam. It must run after httpx.AuthnMiddleware.
func RequireOwnership(policy Policy, idParam string, m *metricsx.Metrics) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			req := Request{
				Subject:    httpx.UserID(ctx),
				ResourceID: r.PathValue(idParam),
			}

			d := policy.Evaluate(ctx, req)
			m.OwnershipDecision(string(d.Reason))
			if !d.Allowed {
				slogx.FromContext(ctx).Warn("ownership check denied",
					"subject", req.Subject,
					"resource_id", req.ResourceID,
					"reason", d.Reason,
				)
				authsdk.ErrAccessDenied.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
