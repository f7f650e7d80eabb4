package repository

import (
	"context"
	"errors"
	"time"

	"webagency/api/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUploadNotFound    = errors.New("upload not found")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrDuplicateUsername = errors.New("username already taken")
)

// UserRepository persists user records. Implementations enforce email and
// username uniqueness and surface violations as ErrDuplicateEmail /
// ErrDuplicateUsername.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	List(ctx context.Context) ([]models.User, error)
	ListByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error)
}

// SessionRepository persists bearer sessions.
type SessionRepository interface {
	Create(ctx context.Context, session models.Session) error
	FindByToken(ctx context.Context, token string) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	// DeleteByToken is idempotent: deleting an absent token is not an error.
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UploadRepository persists upload metadata. Payload bytes live in the object
// store, not here.
type UploadRepository interface {
	Create(ctx context.Context, upload models.Upload) error
	GetByID(ctx context.Context, id string) (models.Upload, error)
	ListByUser(ctx context.Context, userID string) ([]models.Upload, error)
	List(ctx context.Context) ([]models.Upload, error)
	Delete(ctx context.Context, id string) error
}
