package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mercato/storefront-identity/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest defines the payload for account creation.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Bio      string `json:"bio"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserProfile describes the public view of an account.
type UserProfile struct {
	ID          int64          `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        domain.Role    `json:"role"`
	Bio         *string        `json:"bio,omitempty"`
	AvatarURL   *string        `json:"avatarUrl,omitempty"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// AuthResponse bundles the issued credential with the account it represents.
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// IdentityResponse describes the resolved caller for /auth/me.
type IdentityResponse struct {
	UserID      int64          `json:"userId"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        domain.Role    `json:"role"`
	Preferences map[string]any `json:"preferences"`
}

// ForgotPasswordRequest defines the payload to initiate recovery.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPasswordResponse acknowledges a recovery request without revealing
// whether the account exists.
type ForgotPasswordResponse struct {
	Message   string     `json:"message"`
	RequestID string     `json:"requestId"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	DevToken  *string    `json:"devToken,omitempty"`
}

// ResetPasswordRequest defines the payload to finalize recovery.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func profileFromUser(user domain.User, preferences map[string]any) UserProfile {
	if preferences == nil {
		preferences = map[string]any{}
	}
	return UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		Preferences: preferences,
		CreatedAt:   user.CreatedAt,
	}
}
