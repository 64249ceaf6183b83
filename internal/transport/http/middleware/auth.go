package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mercato/storefront-identity/internal/core/domain"
	"github.com/mercato/storefront-identity/internal/usecase"
)

const (
	// TokenCookieName carries the signed credential.
	TokenCookieName = "token"
	// SessionCookieName carries the unsigned fallback blob.
	SessionCookieName = "session"

	identityContextKey = "identity"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// RequireIdentity resolves the caller's identity from credential material on
// the request. The signed token (Authorization header, or the token cookie)
// is consulted first; the unsigned session cookie is a fallback. Requests
// with neither are rejected.
func RequireIdentity(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenMaterial := bearerToken(c)
		if tokenMaterial == "" {
			if cookie, err := c.Cookie(TokenCookieName); err == nil {
				tokenMaterial = cookie
			}
		}

		sessionMaterial := ""
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			sessionMaterial = cookie
		}

		identity, err := auth.ResolveIdentity(tokenMaterial, sessionMaterial)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		c.Set(identityContextKey, identity)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = identity.UserID
		}

		c.Next()
	}
}

// RequireRole gates the route to identities carrying one of the given roles.
// Unknown roles never match, so they fail closed here.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "insufficient permissions"))
	}
}

// GetIdentity retrieves the resolved identity from context (helper for handlers)
func GetIdentity(c *gin.Context) (*domain.Identity, bool) {
	val, exists := c.Get(identityContextKey)
	if !exists {
		return nil, false
	}

	identity, ok := val.(*domain.Identity)
	if !ok || identity == nil {
		return nil, false
	}

	return identity, true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
