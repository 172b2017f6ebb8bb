// Package http is the HTTP delivery layer of the link shortener: the router,
// its middleware chain and the handlers translating requests to use case calls.
package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/samber/lo"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/link-shortener/docs"
	"github.com/vadimbarashkov/link-shortener/pkg/middleware/recoverer"
	"github.com/vadimbarashkov/link-shortener/pkg/response"
)

const redirectPattern = "/{shortCode}"

type route struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

// routes lists every exact-path rule. The redirect rule is not part of it: it
// matches any single segment and is mounted by NewRouter after the table.
func routes(h *linkHandler) []route {
	return []route{
		{http.MethodGet, "/healthz", handleHealthz},
		{http.MethodGet, "/metrics", h.serveMetrics},
		{http.MethodGet, "/swagger/*", httpSwagger.Handler(httpSwagger.URL("/docs/swagger.yml"))},
		{http.MethodGet, "/docs/swagger.yml", serveSwaggerSpec},
		{http.MethodPost, "/api/links", h.createLink},
		{http.MethodGet, "/api/links", h.listLinks},
		{http.MethodGet, "/api/links/{shortCode}", h.getLink},
		{http.MethodDelete, "/api/links/{shortCode}", h.deleteLink},
	}
}

// ReservedCodes returns the path segments taken by single-segment exact routes.
// A link stored under one of them could never be reached through the redirect rule.
func ReservedCodes() []string {
	return lo.Uniq(lo.FilterMap(routes(&linkHandler{}), func(rt route, _ int) (string, bool) {
		segment := strings.TrimPrefix(rt.pattern, "/")
		if segment == "" || strings.ContainsAny(segment, "/{*") {
			return "", false
		}
		return segment, true
	}))
}

// NewRouter builds the API router. Requests from origins outside allowedOrigins
// are refused by CORS; requests without an Origin header are not CORS requests and pass.
func NewRouter(logger *httplog.Logger, linkUseCase linkUseCase, allowedOrigins []string, metrics *Metrics) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(metrics.instrument)
	r.Use(recoverer.New(logger.Logger))
	r.Use(propagateTrace)

	h := newLinkHandler(linkUseCase, metrics)

	for _, rt := range routes(h) {
		r.Method(rt.method, rt.pattern, rt.handler)
	}

	r.Get(redirectPattern, h.redirect)

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	return r
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, response.NotFoundResponse)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusMethodNotAllowed)
	render.JSON(w, r, response.MethodNotAllowedResponse)
}

func serveSwaggerSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docs.Swagger)
}
