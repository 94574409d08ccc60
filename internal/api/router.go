package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/Togather-Foundation/events-api/internal/api/handlers"
	"github.com/Togather-Foundation/events-api/internal/api/middleware"
	"github.com/Togather-Foundation/events-api/internal/config"
	"github.com/Togather-Foundation/events-api/internal/domain/events"
	"github.com/Togather-Foundation/events-api/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config config.Config
	Logger zerolog.Logger
	Events *events.Service
	Health *handlers.HealthChecker
	Build  BuildInfo
}

type route struct {
	method  string
	pattern string
	handler http.Handler
}

func routes(deps Deps) []route {
	eventsHandler := handlers.NewEventsHandler(deps.Events)

	health := deps.Health
	if health == nil {
		health = handlers.NewHealthChecker(nil, deps.Build.Version, deps.Build.GitCommit)
	}

	return []route{
		{http.MethodGet, "/events", http.HandlerFunc(eventsHandler.List)},
		{http.MethodPost, "/events", http.HandlerFunc(eventsHandler.Create)},
		{http.MethodGet, "/events/{id}", http.HandlerFunc(eventsHandler.Get)},
		{http.MethodDelete, "/events/{id}", http.HandlerFunc(eventsHandler.Delete)},

		{http.MethodGet, "/healthz", handlers.Healthz()},
		{http.MethodGet, "/readyz", health.Readyz()},
		{http.MethodGet, "/health", health.Health()},
		{http.MethodGet, "/version", VersionHandler(deps.Build)},
		{http.MethodGet, "/openapi.json", OpenAPIHandler()},
		{http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})},
	}
}

// NewRouter assembles the route table behind the middleware chain. Unknown
// paths get 404 and known paths with an unsupported method get 405 with an
// Allow header; both with empty bodies.
func NewRouter(deps Deps) http.Handler {
	byPattern := map[string]map[string]http.Handler{}
	var patterns []string
	for _, rt := range routes(deps) {
		if _, ok := byPattern[rt.pattern]; !ok {
			byPattern[rt.pattern] = map[string]http.Handler{}
			patterns = append(patterns, rt.pattern)
		}
		byPattern[rt.pattern][rt.method] = metrics.HTTPMiddleware(rt.pattern)(rt.handler)
	}

	mux := http.NewServeMux()
	for _, pattern := range patterns {
		mux.Handle(pattern, methodMux(byPattern[pattern]))
	}
	mux.Handle("/", metrics.HTTPMiddleware("unmatched")(http.HandlerFunc(notFound)))

	cfg := deps.Config
	var handler http.Handler = mux
	handler = middleware.RequestSize(cfg.Server.MaxBodyBytes)(handler)
	handler = middleware.RequestTimeout(cfg.Server.RequestTimeout)(handler)
	handler = middleware.RateLimit(cfg.RateLimit)(handler)
	handler = middleware.CORS(cfg.CORS, deps.Logger)(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.TrustedForwarding(cfg.RateLimit.TrustedProxyCIDRs)(handler)
	return handler
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusNotFound)
}

// methodMux dispatches on the request method. HEAD is served by the GET
// handler when one exists.
func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if method == http.MethodHead {
			if _, ok := handlers[http.MethodHead]; !ok {
				method = http.MethodGet
			}
		}
		if handler, ok := handlers[method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers)+1)
	for method := range handlers {
		methods = append(methods, method)
	}
	if _, ok := handlers[http.MethodGet]; ok {
		if _, ok := handlers[http.MethodHead]; !ok {
			methods = append(methods, http.MethodHead)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
