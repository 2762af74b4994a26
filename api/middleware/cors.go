package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// CORS returns middleware that applies the configured allowed origins. The
// storefront authenticates with cookies, so credentials are allowed.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
