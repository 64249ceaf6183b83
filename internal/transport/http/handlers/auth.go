package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mercato/storefront-identity/internal/transport/http/middleware"
	"github.com/mercato/storefront-identity/internal/usecase"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
	r.GET("/me", middleware.RequireIdentity(h.auth), h.me)
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Bio:      req.Bio,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
		}, http.StatusInternalServerError, "failed to register")
		return
	}

	h.setCredentialCookies(c, result.Token, result.SessionBlob)

	c.JSON(http.StatusCreated, AuthResponse{
		Token: result.Token,
		User:  profileFromUser(result.User, nil),
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "failed to login")
		return
	}

	h.setCredentialCookies(c, result.Token, result.SessionBlob)

	c.JSON(http.StatusOK, AuthResponse{
		Token: result.Token,
		User:  profileFromUser(result.User, nil),
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookieName, "", -1, "/", "", false, true)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) me(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	profile, err := h.auth.Profile(c.Request.Context(), identity.UserID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "account no longer exists"},
		}, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, IdentityResponse{
		UserID:      identity.UserID,
		Email:       profile.User.Email,
		Name:        profile.User.Name,
		Role:        profile.User.Role,
		Preferences: profile.Preferences,
	})
}

func (h *AuthHandler) setCredentialCookies(c *gin.Context, token, sessionBlob string) {
	maxAge := int(h.auth.SessionTTL().Seconds())
	c.SetCookie(middleware.TokenCookieName, token, maxAge, "/", "", false, true)
	c.SetCookie(middleware.SessionCookieName, sessionBlob, maxAge, "/", "", false, true)
}
