package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"webagency/api/internal/config"
	"webagency/api/internal/middleware"
	"webagency/api/internal/repository"
	"webagency/api/internal/service"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	authService   *service.AuthService
	adminService  *service.AdminService
	uploadService *service.UploadService
	users         repository.UserRepository
	sessions      repository.SessionRepository
	db            *pgxpool.Pool
	cache         *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	db *pgxpool.Pool,
	cache *redis.Client,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	uploads repository.UploadRepository,
	store service.ObjectStore,
) HandlerSet {
	return HandlerSet{
		log:           log,
		cfg:           cfg,
		authService:   service.NewAuthService(users, sessions, cfg, log),
		adminService:  service.NewAdminService(users, sessions, cfg, log),
		uploadService: service.NewUploadService(uploads, store, cfg, log),
		users:         users,
		sessions:      sessions,
		db:            db,
		cache:         cache,
	}
}

func (h HandlerSet) Routes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	authed := middleware.Auth(h.cfg, h.users, h.sessions)
	rateLimited := middleware.RateLimit(h.cache, h.cfg.Security.RateLimitWindow, h.cfg.Security.RateLimitMax, h.log)

	auth := router.Group("/auth")
	{
		auth.POST("/register", rateLimited, h.Register)
		auth.POST("/login", rateLimited, h.Login)
		auth.POST("/refresh-token", h.RefreshToken)

		auth.POST("/logout", authed, h.Logout)
		auth.GET("/profile", authed, h.Profile)
		auth.POST("/change-password", authed, h.ChangePassword)
	}

	superadmin := router.Group("/superadmin", authed, middleware.RequireSuperAdmin())
	{
		superadmin.GET("/hierarchy", h.PrivilegeHierarchy)
		superadmin.GET("/admins", h.GetAllAdmins)
		superadmin.POST("/admins", h.CreateAdmin)
		superadmin.POST("/promote-admin", h.PromoteToAdmin)
		superadmin.POST("/promote-superadmin", h.PromoteToSuperAdmin)
		superadmin.POST("/demote-admin", h.DemoteAdmin)
	}

	admin := router.Group("/admin", authed, middleware.RequireAdmin())
	{
		admin.GET("/users", h.ListUsers)
	}

	moderator := router.Group("/moderator", authed, middleware.RequireModerator())
	{
		moderator.GET("/reports", h.ListReports)
	}

	upload := router.Group("/upload", authed)
	{
		upload.POST("", h.Upload)
		upload.GET("", h.ListUploads)
		upload.DELETE("/:id", h.DeleteUpload)
	}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": kind, "message": message})
}

// respondServiceError maps typed service failures onto the HTTP taxonomy:
// 401 for authentication, 403 for authorization, 404 for missing targets,
// 409 for uniqueness conflicts.
func respondServiceError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		respondError(c, http.StatusUnauthorized, "invalid_token", err.Error())
	case errors.Is(err, service.ErrIncorrectOldPassword):
		respondError(c, http.StatusBadRequest, "incorrect_old_password", err.Error())
	case errors.Is(err, repository.ErrDuplicateEmail):
		respondError(c, http.StatusConflict, "duplicate_email", err.Error())
	case errors.Is(err, repository.ErrDuplicateUsername):
		respondError(c, http.StatusConflict, "duplicate_username", err.Error())
	case errors.Is(err, service.ErrSuperAdminRequired),
		errors.Is(err, service.ErrTargetNotAdmin),
		errors.Is(err, service.ErrSelfDemotion),
		errors.Is(err, service.ErrInvalidAdminRole),
		errors.Is(err, service.ErrUploadForbidden):
		respondError(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, repository.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, repository.ErrUploadNotFound):
		respondError(c, http.StatusNotFound, "upload_not_found", err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		respondError(c, http.StatusBadRequest, "upload_too_large", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled service error")
		respondError(c, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
