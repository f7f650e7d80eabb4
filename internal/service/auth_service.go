package service

import (
	"context"
	"errors"
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
	// ErrInvalidCredentials is deliberately undifferentiated so a login
	// failure never reveals whether the email exists.
	ErrInvalidCredentials    = errors.New("email or password incorrect")
	ErrInvalidOrExpiredToken = errors.New("token invalid or expired")
	ErrIncorrectOldPassword  = errors.New("old password incorrect")
)

type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

type AuthResponse struct {
	User      models.AuthUser
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResponse, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Username = strings.TrimSpace(input.Username)

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return AuthResponse{}, repository.ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResponse{}, err
	}

	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return AuthResponse{}, repository.ErrDuplicateUsername
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return AuthResponse{}, err
	}

	passwordHash, err := security.HashPassword(input.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		return AuthResponse{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}

	// The existence checks above are racy; the repository's unique
	// constraints are the real guarantee and report the same errors.
	if err := s.users.Create(ctx, user); err != nil {
		return AuthResponse{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")

	return s.issueSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResponse{}, ErrInvalidCredentials
		}
		return AuthResponse{}, err
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return AuthResponse{}, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// Logout removes the session bound to the token. Tokens with no session are
// ignored, so repeated logouts succeed.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteByToken(ctx, token)
}

// RefreshToken rotates the session: the old session is destroyed and a fresh
// token issued, so the old token becomes unusable even before its expiry.
func (s *AuthService) RefreshToken(ctx context.Context, oldToken string) (AuthResponse, error) {
	session, err := s.sessions.FindByToken(ctx, oldToken)
	if err != nil {
		return AuthResponse{}, ErrInvalidOrExpiredToken
	}
	if session.Expired(time.Now()) {
		return AuthResponse{}, ErrInvalidOrExpiredToken
	}

	// a session whose owner no longer exists is a dead credential, not a
	// lookup failure
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return AuthResponse{}, ErrInvalidOrExpiredToken
	}

	if err := s.sessions.DeleteByID(ctx, session.ID); err != nil {
		return AuthResponse{}, err
	}

	return s.issueSession(ctx, user)
}

// ChangePassword verifies the old password, stores a fresh hash and destroys
// every session the user holds, forcing re-authentication everywhere.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !security.VerifyPassword(oldPassword, user.PasswordHash) {
		return ErrIncorrectOldPassword
	}

	passwordHash, err := security.HashPassword(newPassword, s.cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return err
	}

	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Msg("password changed, sessions revoked")
	return nil
}

// GetUserByToken resolves a bearer token to its owner. Any failure (missing
// session, elapsed expiry, bad signature, vanished user) yields nil, not an
// error.
func (s *AuthService) GetUserByToken(ctx context.Context, token string) (*models.AuthUser, error) {
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, nil
	}
	if session.Expired(time.Now()) {
		return nil, nil
	}

	if _, err := security.ParseToken(token, s.cfg.Security.JWTSecret); err != nil {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil
	}

	view := user.AuthView()
	return &view, nil
}

func (s *AuthService) issueSession(ctx context.Context, user models.User) (AuthResponse, error) {
	token, expiresAt, err := security.IssueToken(s.cfg.Security.JWTSecret, user, s.cfg.Security.TokenTTL)
	if err != nil {
		return AuthResponse{}, err
	}

	session := models.Session{
		ID:        ids.New(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{
		User:      user.AuthView(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
