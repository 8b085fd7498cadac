package handlers

import (
	"github.com/gin-gonic/gin"

	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/services"
	"appointment-booking-server/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRequest represents the request body for user registration.
// Email format and role are checked by the service after normalization.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=7"`
	Role     string `json:"role" binding:"required"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	Message string               `json:"message"`
	User    models.UserSanitized `json:"user"`
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !utils.BindAndValidate(c, &req) {
		return // Error response handled by BindAndValidate
	}

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, UserResponse{Message: "User registered successfully", User: user})
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, res)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	user, err := h.auth.Me(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, UserResponse{Message: "Authenticated user info", User: user})
}
