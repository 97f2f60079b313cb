package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

const localFrontend = "http://localhost:8080"

// CORS allows the storefront frontend plus the local dev server.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	origins := []string{localFrontend}
	if origin := strings.TrimRight(strings.TrimSpace(frontendURL), "/"); origin != "" && origin != localFrontend {
		origins = append(origins, origin)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
