package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"webagency/api/internal/middleware"
	"webagency/api/internal/models"
	"webagency/api/internal/service"
)

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type authPayload struct {
	User      models.AuthUser `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

func authData(result service.AuthResponse) authPayload {
	return authPayload{
		User:      result.User,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}
}

func (h HandlerSet) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if msg := validateUsername(req.Username); msg != "" {
		respondError(c, http.StatusBadRequest, "validation_error", msg)
		return
	}
	if msg := validatePassword(req.Password); msg != "" {
		respondError(c, http.StatusBadRequest, "validation_error", msg)
		return
	}
	for _, name := range []string{req.FirstName, req.LastName} {
		if msg := validateName(name); msg != "" {
			respondError(c, http.StatusBadRequest, "validation_error", msg)
			return
		}
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, authData(result))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, authData(result))
}

func (h HandlerSet) Logout(c *gin.Context) {
	token, _ := middleware.BearerToken(c)
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"message": "logged out"})
}

type refreshRequest struct {
	Token string `json:"token"`
}

// RefreshToken accepts the old token from the Authorization header or the
// request body without running the auth middleware; the service decides
// whether the session is still live.
func (h HandlerSet) RefreshToken(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil && req.Token != "" {
			token = req.Token
			ok = true
		}
	}
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing_token", "authentication token required")
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, authData(result))
}

func (h HandlerSet) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}
	respondOK(c, gin.H{"user": user})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if msg := validatePassword(req.NewPassword); msg != "" {
		respondError(c, http.StatusBadRequest, "validation_error", msg)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"message": "password changed, please log in again"})
}
