package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	uuid "github.com/google/uuid"

	"github.com/mercato/storefront-identity/internal/usecase"
)

// PasswordHandler exposes the password recovery endpoints.
type PasswordHandler struct {
	reset      *usecase.PasswordResetService
	dispatcher NotificationDispatcher
	isDev      bool
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(reset *usecase.PasswordResetService, dispatcher NotificationDispatcher, isDev bool) *PasswordHandler {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	return &PasswordHandler{
		reset:      reset,
		dispatcher: dispatcher,
		isDev:      isDev,
	}
}

// RegisterRoutes binds password recovery routes.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/forgot", h.forgot)
	r.POST("/reset", h.resetPassword)
}

// forgot always acknowledges with 202 for well-formed requests, regardless
// of whether the account exists, to avoid account enumeration.
func (h *PasswordHandler) forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password reset request"))
		return
	}

	result, err := h.reset.RequestPasswordReset(c.Request.Context(), usecase.ResetRequestInput{
		Email: strings.TrimSpace(req.Email),
		IP:    c.ClientIP(),
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusAccepted, ForgotPasswordResponse{
				Message:   "If the account exists, instructions have been sent",
				RequestID: uuid.NewString(),
			})
			return
		}

		var rateErr *usecase.RateLimitExceededError
		if errors.As(err, &rateErr) {
			retryAfter := int(rateErr.RetryAfter.Round(time.Second) / time.Second)
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(retryAfter))
			}
			c.JSON(http.StatusTooManyRequests, NewErrorResponse(c, "too many password reset requests"))
			return
		}

		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to initiate password reset"))
		return
	}

	response := ForgotPasswordResponse{
		Message:   "If the account exists, instructions have been sent",
		RequestID: result.RequestID,
	}

	expires := result.ExpiresAt
	response.ExpiresAt = &expires

	// Raw tokens leave the service only through the notification channel;
	// development mode additionally echoes them for local testing.
	if h.isDev {
		if token := strings.TrimSpace(result.Token); token != "" {
			response.DevToken = &token
		}
	}

	_ = h.dispatcher.SendPasswordReset(c.Request.Context(), PasswordResetNotification{
		Contact:  req.Email,
		DevToken: result.Token,
		Expires:  result.ExpiresAt,
	})

	c.JSON(http.StatusAccepted, response)
}

func (h *PasswordHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset payload"))
		return
	}

	err := h.reset.ConfirmPasswordReset(c.Request.Context(), usecase.ResetConfirmInput{
		Token:       strings.TrimSpace(req.Token),
		NewPassword: req.Password,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetTokenInvalid, Status: http.StatusBadRequest, Message: "password reset token invalid"},
			{Err: usecase.ErrResetTokenExpired, Status: http.StatusBadRequest, Message: "password reset token expired"},
		}, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}
