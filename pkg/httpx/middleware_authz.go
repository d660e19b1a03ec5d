package httpx

import (
	"net/http"
	"slices"
	"strings"
)

// RequireAnyScope passes requests whose token carries at least one of scopes.
func RequireAnyScope(scopes ...string) Middleware {
	return requireScopes(scopes, func(have []string) bool {
		return slices.ContainsFunc(scopes, func(s string) bool { return slices.Contains(have, s) })
	})
}

// RequireAllScopes passes requests whose token carries every one of scopes.
func RequireAllScopes(scopes ...string) Middleware {
	return requireScopes(scopes, func(have []string) bool {
		for _, s := range scopes {
			if !slices.Contains(have, s) {
				return false
			}
		}
		return true
	})
}

func requireScopes(scopes []string, ok func(have []string) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ok(scopesFromCtx(r.Context())) {
				w.Header().Set("WWW-Authenticate",
					`Bearer error="insufficient_scope", scope="`+strings.Join(scopes, " ")+`"`)
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error":             "insufficient_scope",
					"error_description": "the access token does not have the required scopes",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
