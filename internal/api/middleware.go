package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/terra-clan/health-package-engine/internal/models"
)

// ForwardCaller records the identity headers set by the hosting platform.
// The platform authenticates callers before requests reach the engine, so
// nothing is verified here and no request is rejected.
func ForwardCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		clientInfo := r.Header.Get("X-Client-Info")
		if token == "" && clientInfo == "" {
			next.ServeHTTP(w, r)
			return
		}

		caller := &models.Caller{Token: token, ClientInfo: clientInfo}
		slog.Debug("forwarded caller",
			"caller", caller.Label(),
			"client_info", clientInfo,
			"request_id", middleware.GetReqID(r.Context()),
		)

		next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), caller)))
	})
}

// extractToken reads the bearer token, falling back to the apikey header
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			return strings.TrimSpace(authHeader[7:])
		}
		return authHeader
	}
	return r.Header.Get("Apikey")
}
