package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"webagency/api/internal/models"
)

// Memory keeps all records in-process behind a single mutex. It backs the
// development storage driver and the test suite. Uniqueness checks happen
// atomically under the lock, so duplicate races are not possible here.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]models.User
	byEmail  map[string]string
	byUser   map[string]string
	sessions map[string]models.Session // key: token
	uploads  map[string]models.Upload
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]models.User),
		byEmail:  make(map[string]string),
		byUser:   make(map[string]string),
		sessions: make(map[string]models.Session),
		uploads:  make(map[string]models.Upload),
	}
}

func (m *Memory) Create(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}
	if _, exists := m.byUser[user.Username]; exists {
		return ErrDuplicateUsername
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	m.byUser[user.Username] = user.ID
	return nil
}

func (m *Memory) GetByID(ctx context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *Memory) FindByUsername(ctx context.Context, username string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byUser[username]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *Memory) UpdateRole(ctx context.Context, id string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return nil
}

func (m *Memory) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return nil
}

func (m *Memory) List(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sortUsersByCreation(users)
	return users, nil
}

func (m *Memory) ListByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	wanted := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		wanted[role] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []models.User
	for _, user := range m.users {
		if _, ok := wanted[user.Role]; ok {
			users = append(users, user)
		}
	}
	sortUsersByCreation(users)
	return users, nil
}

func sortUsersByCreation(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}

// sessions

func (m *Memory) CreateSession(ctx context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *Memory) FindByToken(ctx context.Context, token string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[token]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (m *Memory) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, session := range m.sessions {
		if session.ID == id {
			delete(m.sessions, token)
			return nil
		}
	}
	return ErrSessionNotFound
}

func (m *Memory) DeleteByToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *Memory) DeleteByUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, token)
		}
	}
	return nil
}

func (m *Memory) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for token, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// uploads

func (m *Memory) CreateUpload(ctx context.Context, upload models.Upload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now()
	}
	m.uploads[upload.ID] = upload
	return nil
}

func (m *Memory) GetUploadByID(ctx context.Context, id string) (models.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	upload, ok := m.uploads[id]
	if !ok {
		return models.Upload{}, ErrUploadNotFound
	}
	return upload, nil
}

func (m *Memory) ListUploadsByUser(ctx context.Context, userID string) ([]models.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var uploads []models.Upload
	for _, upload := range m.uploads {
		if upload.UserID == userID {
			uploads = append(uploads, upload)
		}
	}
	sortUploads(uploads)
	return uploads, nil
}

func (m *Memory) ListUploads(ctx context.Context) ([]models.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uploads := make([]models.Upload, 0, len(m.uploads))
	for _, upload := range m.uploads {
		uploads = append(uploads, upload)
	}
	sortUploads(uploads)
	return uploads, nil
}

func (m *Memory) DeleteUpload(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.uploads[id]; !ok {
		return ErrUploadNotFound
	}
	delete(m.uploads, id)
	return nil
}

func sortUploads(uploads []models.Upload) {
	sort.Slice(uploads, func(i, j int) bool {
		return uploads[i].CreatedAt.After(uploads[j].CreatedAt)
	})
}

// MemoryUsers, MemorySessions and MemoryUploads adapt a shared Memory to the
// per-aggregate repository interfaces.
type MemoryUsers struct{ *Memory }

type MemorySessions struct{ *Memory }

func (s MemorySessions) Create(ctx context.Context, session models.Session) error {
	return s.CreateSession(ctx, session)
}

type MemoryUploads struct{ *Memory }

func (u MemoryUploads) Create(ctx context.Context, upload models.Upload) error {
	return u.CreateUpload(ctx, upload)
}

func (u MemoryUploads) GetByID(ctx context.Context, id string) (models.Upload, error) {
	return u.GetUploadByID(ctx, id)
}

func (u MemoryUploads) ListByUser(ctx context.Context, userID string) ([]models.Upload, error) {
	return u.ListUploadsByUser(ctx, userID)
}

func (u MemoryUploads) List(ctx context.Context) ([]models.Upload, error) {
	return u.ListUploads(ctx)
}

func (u MemoryUploads) Delete(ctx context.Context, id string) error {
	return u.DeleteUpload(ctx, id)
}
