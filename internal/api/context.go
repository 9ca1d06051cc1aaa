package api

import (
	"context"

	"github.com/terra-clan/health-package-engine/internal/models"
)

type contextKey string

const callerContextKey contextKey = "caller"

// CallerFromContext extracts the forwarded caller from context
func CallerFromContext(ctx context.Context) *models.Caller {
	caller, ok := ctx.Value(callerContextKey).(*models.Caller)
	if !ok {
		return nil
	}
	return caller
}

// ContextWithCaller adds the forwarded caller to context
func ContextWithCaller(ctx context.Context, caller *models.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}
