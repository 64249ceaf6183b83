package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mercato/storefront-identity/internal/infra/logger"
)

// HeaderRequestID is the correlation header honored on ingress and echoed
// on every response.
const HeaderRequestID = "X-Request-ID"

// RequestID guarantees each request carries a correlation identifier. A
// caller-supplied one is kept; otherwise a fresh UUID is minted. The id is
// threaded through the request context so log lines can be tied back to
// the response the client saw.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Writer.Header().Set(HeaderRequestID, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}

// RequestIDFrom extracts the correlation identifier placed by RequestID,
// or "" when the middleware did not run.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(logger.RequestIDKey{}).(string)
	return id
}
