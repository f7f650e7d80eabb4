package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"webagency/api/internal/config"
	"webagency/api/internal/ids"
	"webagency/api/internal/models"
	"webagency/api/internal/repository"
	"webagency/api/internal/security"
)

var (
	ErrSuperAdminRequired = errors.New("only a super admin may perform this action")
	ErrTargetNotAdmin     = errors.New("only an admin can be promoted to super admin")
	ErrSelfDemotion       = errors.New("a super admin cannot demote itself")
	ErrInvalidAdminRole   = errors.New("created account role must be ADMIN or SUPER_ADMIN")
)

type AdminService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAdminService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AdminService {
	return &AdminService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

// requireSuperAdmin re-reads the actor from the store; a cached role claim is
// never trusted for privileged mutations.
func (s *AdminService) requireSuperAdmin(ctx context.Context, actorID string) (models.User, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil || actor.Role != models.RoleSuperAdmin {
		return models.User{}, ErrSuperAdminRequired
	}
	return actor, nil
}

// PromoteToAdmin sets the target's role to ADMIN, whatever it was before.
func (s *AdminService) PromoteToAdmin(ctx context.Context, userID, actorID string) error {
	if _, err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return err
	}
	return s.setRole(ctx, userID, models.RoleAdmin)
}

// PromoteToSuperAdmin elevates an existing ADMIN to SUPER_ADMIN. Promoting any
// other role directly is rejected.
func (s *AdminService) PromoteToSuperAdmin(ctx context.Context, userID, actorID string) error {
	if _, err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return err
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil || target.Role != models.RoleAdmin {
		return ErrTargetNotAdmin
	}

	return s.setRole(ctx, userID, models.RoleSuperAdmin)
}

// DemoteAdmin resets the target to USER. Self-demotion is forbidden so the
// system always keeps at least one reachable super admin.
func (s *AdminService) DemoteAdmin(ctx context.Context, userID, actorID string) error {
	if _, err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return err
	}
	if userID == actorID {
		return ErrSelfDemotion
	}
	return s.setRole(ctx, userID, models.RoleUser)
}

// setRole applies the role change and revokes the target's sessions, so stale
// tokens carrying the old role claim stop working immediately.
func (s *AdminService) setRole(ctx context.Context, userID string, role models.Role) error {
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("session revocation after role change failed")
	}
	s.log.Info().Str("user_id", userID).Str("role", string(role)).Msg("role changed")
	return nil
}

type CreateAdminInput struct {
	Email    string
	Username string
	Password string
	Role     models.Role
}

// CreateAdmin creates a privileged account directly. Only ADMIN and
// SUPER_ADMIN may be created through this path.
func (s *AdminService) CreateAdmin(ctx context.Context, input CreateAdminInput, actorID string) (models.AuthUser, error) {
	if _, err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return models.AuthUser{}, err
	}

	if input.Role != models.RoleAdmin && input.Role != models.RoleSuperAdmin {
		return models.AuthUser{}, ErrInvalidAdminRole
	}

	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Username = strings.TrimSpace(input.Username)

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return models.AuthUser{}, repository.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.AuthUser{}, err
	}
	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return models.AuthUser{}, repository.ErrDuplicateUsername
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.AuthUser{}, err
	}

	passwordHash, err := security.HashPassword(input.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		return models.AuthUser{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: passwordHash,
		Role:         input.Role,
		CreatedAt:    time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.AuthUser{}, err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Str("created_by", actorID).
		Msg("privileged account created")

	return user.AuthView(), nil
}

// AdminSummary is the audit view of a privileged account.
type AdminSummary struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// GetAllAdmins lists ADMIN and SUPER_ADMIN accounts, super admins first, then
// by ascending creation time.
func (s *AdminService) GetAllAdmins(ctx context.Context, actorID string) ([]AdminSummary, error) {
	if _, err := s.requireSuperAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	admins, err := s.users.ListByRoles(ctx, models.RoleAdmin, models.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(admins, func(i, j int) bool {
		iSuper := admins[i].Role == models.RoleSuperAdmin
		jSuper := admins[j].Role == models.RoleSuperAdmin
		if iSuper != jSuper {
			return iSuper
		}
		return admins[i].CreatedAt.Before(admins[j].CreatedAt)
	})

	out := make([]AdminSummary, 0, len(admins))
	for _, admin := range admins {
		out = append(out, AdminSummary{
			ID:        admin.ID,
			Email:     admin.Email,
			Username:  admin.Username,
			Role:      admin.Role,
			CreatedAt: admin.CreatedAt,
		})
	}
	return out, nil
}

// ListUsers returns the safe view of every account, for the admin roster.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.AuthUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.AuthUser, 0, len(users))
	for _, user := range users {
		out = append(out, user.AuthView())
	}
	return out, nil
}

// PrivilegeHierarchy exposes the static privilege table.
func (s *AdminService) PrivilegeHierarchy() map[models.Role]models.Privilege {
	return models.PrivilegeHierarchy()
}
