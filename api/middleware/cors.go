package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// corsOptions builds the origin policy. A "*" entry opens the API to any
// origin, in which case credentials are not allowed.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", idempotencyHeader, "X-Request-Id", "X-Requested-With", "Last-Event-ID"},
		ExposedHeaders: []string{"X-Request-Id", replayedHeader, "Retry-After"},
		MaxAge:         300,
	}
	opts.AllowCredentials = !slices.Contains(origins, "*")
	return opts
}

// CORS applies the configured origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(corsOptions(origins)).Handler
}
