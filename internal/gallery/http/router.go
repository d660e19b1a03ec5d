package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kaszm/imagegallery/internal/gallery/authz"
	"github.com/kaszm/imagegallery/internal/gallery/store"
	"github.com/kaszm/imagegallery/pkg/authsdk"
	"github.com/kaszm/imagegallery/pkg/httpx"
	"github.com/kaszm/imagegallery/pkg/jwtx"
	"github.com/kaszm/imagegallery/pkg/metricsx"
	"github.com/kaszm/imagegallery/pkg/slogx"

	_ "github.com/kaszm/imagegallery/api/gallery" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Metrics *metricsx.Metrics

	// Ownership decides access to /v1/images/{id}. Defaults to an
	// OwnershipGuard over the image store.
	Ownership authz.Policy
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	if r.Ownership == nil {
		r.Ownership = &authz.OwnershipGuard{Store: r.store.Images()}
	}

	r.registerImages()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Image Gallery API
//	@version		0.1.0
//	@description	Owner-scoped image metadata. Every image route needs a bearer token from the identity provider;
//	@description	routes addressing a single image also require the caller to own it.
//
//	@host						localhost:8081
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerImages() {
	h := &ImageHandler{Images: r.store.Images()}

	read := func(fn http.HandlerFunc, extra ...httpx.Middleware) http.Handler {
		mws := []httpx.Middleware{
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAllScopes(authsdk.ScopeGalleryRead),
			httpx.RateLimitByUser(httpx.LenientLimit),
		}
		return httpx.Chain(fn, append(mws, extra...)...)
	}
	write := func(fn http.HandlerFunc, extra ...httpx.Middleware) http.Handler {
		mws := []httpx.Middleware{
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAllScopes(authsdk.ScopeGalleryRead, authsdk.ScopeGalleryWrite),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		}
		return httpx.Chain(fn, append(mws, extra...)...)
	}

	// Ownership runs after the scope checks and in addition to them.
	owned := authz.RequireOwnership(r.Ownership, "id", r.Metrics)

	// Creation has no id to check ownership against.
	r.Mux.Handle("GET /v1/images", read(h.HandleList))
	r.Mux.Handle("POST /v1/images", write(h.HandleCreate))

	r.Mux.Handle("GET /v1/images/{id}", read(h.HandleGet, owned))
	r.Mux.Handle("PUT /v1/images/{id}", write(h.HandleUpdate, owned))
	r.Mux.Handle("DELETE /v1/images/{id}", write(h.HandleDelete, owned))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}
