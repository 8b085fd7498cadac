package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"appointment-booking-server/internal/config"
	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/utils"
)

const principalKey = "principal"

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return authenticate(cfg, false)
}

// StreamAuthMiddleware also accepts the token in the "token" query parameter,
// since browsers cannot set headers on websocket upgrades.
func StreamAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return authenticate(cfg, true)
}

func authenticate(cfg *config.Config, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok && allowQuery {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			if c.GetHeader("Authorization") != "" {
				utils.Unauthorized(c, "Invalid authorization header format")
			} else {
				utils.Unauthorized(c, "Authorization header required")
			}
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil {
			LoggerFrom(c).Debug("token rejected", "error", err)
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		p := claims.Principal()
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(withLogger(c.Request.Context(),
			LoggerFrom(c).With("user_id", p.ID, "role", p.Role)))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			utils.InternalServerError(c, "Principal not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		for _, allowed := range allowedRoles {
			if p.Role == allowed {
				c.Next()
				return
			}
		}

		utils.Forbidden(c, "You do not have permission to access this resource.")
		c.Abort()
	}
}

// GetPrincipal returns the authenticated user set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok && p.ID != ""
}
