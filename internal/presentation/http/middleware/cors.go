package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/config"
)

// Headers the POS front end always needs, whatever CORS_ALLOWED_HEADERS says.
var requiredHeaders = []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"}

// CORSMiddleware creates a CORS middleware for the register front ends.
// Downloads (invoice PDF, journal export) need Content-Disposition exposed.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: cfg.AllowedMethods,
		AllowHeaders: cfg.AllowedHeaders,
		ExposeHeaders: []string{
			"Content-Disposition",
			"X-Request-ID",
			"X-Idempotency-Replayed",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"Retry-After",
		},
		AllowCredentials: true,
		AllowWebSockets:  true,
		MaxAge:           12 * time.Hour,
	}

	// Register terminals run the Vite dev server during development
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}

	headers := append([]string{"Accept", "Origin"}, corsConfig.AllowHeaders...)
	for _, h := range requiredHeaders {
		if !slices.Contains(headers, h) {
			headers = append(headers, h)
		}
	}
	corsConfig.AllowHeaders = headers

	return cors.New(corsConfig)
}
