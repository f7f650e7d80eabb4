package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"webagency/api/internal/config"
	"webagency/api/internal/models"
	"webagency/api/internal/repository"
	"webagency/api/internal/security"
)

const currentUserKey = "current_user"

// BearerToken extracts the credential from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

// CurrentUser returns the identity attached by Auth or OptionalAuth.
func CurrentUser(c *gin.Context) (models.AuthUser, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.AuthUser{}, false
	}
	user, ok := val.(models.AuthUser)
	return user, ok
}

// Auth resolves the bearer token to an identity or rejects the request.
// A token is only trusted when its session is live, its signature verifies
// and its owner still exists.
func Auth(cfg *config.AppConfig, users repository.UserRepository, sessions repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "authentication token required",
			})
			return
		}

		session, err := sessions.FindByToken(c.Request.Context(), token)
		if err != nil || session.Expired(time.Now()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "token expired or invalid",
			})
			return
		}

		if _, err := security.ParseToken(token, cfg.Security.JWTSecret); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "token expired or invalid",
			})
			return
		}

		user, err := users.GetByID(c.Request.Context(), session.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "user_not_found",
				"message": "no user associated with this token",
			})
			return
		}

		c.Set(currentUserKey, user.AuthView())
		c.Next()
	}
}

// OptionalAuth attaches the identity when the token resolves and proceeds
// anonymously otherwise. It never rejects.
func OptionalAuth(cfg *config.AppConfig, users repository.UserRepository, sessions repository.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			c.Next()
			return
		}

		session, err := sessions.FindByToken(c.Request.Context(), token)
		if err != nil || session.Expired(time.Now()) {
			c.Next()
			return
		}
		if _, err := security.ParseToken(token, cfg.Security.JWTSecret); err != nil {
			c.Next()
			return
		}
		if user, err := users.GetByID(c.Request.Context(), session.UserID); err == nil {
			c.Set(currentUserKey, user.AuthView())
		}

		c.Next()
	}
}
