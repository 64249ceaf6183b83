package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mercato/storefront-identity/internal/usecase"
)

// AdminHandler exposes endpoints restricted to the admin role.
type AdminHandler struct {
	auth *usecase.AuthService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(auth *usecase.AuthService) *AdminHandler {
	return &AdminHandler{auth: auth}
}

// RegisterRoutes binds admin routes. Role gating is applied by the caller.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users/:id", h.getUser)
}

func (h *AdminHandler) getUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user id"))
		return
	}

	profile, err := h.auth.Profile(c.Request.Context(), id)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to load user")
		return
	}

	c.JSON(http.StatusOK, profileFromUser(profile.User, profile.Preferences))
}
