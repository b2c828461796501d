// Package ctxutil moves request scoped values from gin into context.Context.
package ctxutil

import (
	"context"

	"orderlifecycle/api/response"
	"orderlifecycle/infrastructure/persistence"

	"github.com/gin-gonic/gin"
)

// WithRequestID returns the request context carrying the gin request id.
func WithRequestID(c *gin.Context) context.Context {
	return persistence.ContextWithRequestID(c.Request.Context(), response.GetRequestID(c))
}

func RequestIDFromContext(ctx context.Context) string {
	return persistence.RequestIDFromContext(ctx)
}
