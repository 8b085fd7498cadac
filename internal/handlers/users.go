package handlers

import (
	"github.com/gin-gonic/gin"

	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/services"
	"appointment-booking-server/internal/utils"
)

// UserHandler serves the user directory.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// UserListResponse is a page of users.
type UserListResponse struct {
	Users []models.UserSanitized `json:"users"`
	Count int                    `json:"count"`
}

// GetUsers lists users, optionally filtered with ?role=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	users, err := h.users.List(c.Request.Context(), p, c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, UserListResponse{Users: users, Count: len(users)})
}
