package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"webagency/api/internal/middleware"
	"webagency/api/internal/models"
	"webagency/api/internal/service"
)

func (h HandlerSet) PrivilegeHierarchy(c *gin.Context) {
	respondOK(c, h.adminService.PrivilegeHierarchy())
}

func (h HandlerSet) GetAllAdmins(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	admins, err := h.adminService.GetAllAdmins(c.Request.Context(), actor.ID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, admins)
}

type createAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

func (h HandlerSet) CreateAdmin(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	var req createAdminRequest
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

	role, err := models.ParseRole(req.Role)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	created, err := h.adminService.CreateAdmin(c.Request.Context(), service.CreateAdminInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     role,
	}, actor.ID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, gin.H{"user": created})
}

type roleChangeRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h HandlerSet) PromoteToAdmin(c *gin.Context) {
	h.roleChange(c, h.adminService.PromoteToAdmin, "user promoted to admin")
}

func (h HandlerSet) PromoteToSuperAdmin(c *gin.Context) {
	h.roleChange(c, h.adminService.PromoteToSuperAdmin, "admin promoted to super admin")
}

func (h HandlerSet) DemoteAdmin(c *gin.Context) {
	h.roleChange(c, h.adminService.DemoteAdmin, "admin demoted to user")
}

func (h HandlerSet) roleChange(c *gin.Context, op func(ctx context.Context, userID, actorID string) error, message string) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	var req roleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := op(c.Request.Context(), req.UserID, actor.ID); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"message": message})
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"users": users})
}

// ListReports backs the moderator surface. Report intake lives outside this
// service; the route exists to exercise the moderator role gate.
func (h HandlerSet) ListReports(c *gin.Context) {
	respondOK(c, gin.H{"reports": []any{}})
}
