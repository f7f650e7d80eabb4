package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"webagency/api/internal/config"
	"webagency/api/internal/models"
	"webagency/api/internal/repository"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret",
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
		Uploads: config.UploadsConfig{MaxSizeBytes: 1024},
	}
}

type testEnv struct {
	mem   *repository.Memory
	auth  *AuthService
	admin *AdminService
	cfg   *config.AppConfig
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	mem := repository.NewMemory()
	users := repository.MemoryUsers{Memory: mem}
	sessions := repository.MemorySessions{Memory: mem}
	cfg := testConfig()
	logger := zerolog.Nop()
	return testEnv{
		mem:   mem,
		auth:  NewAuthService(users, sessions, cfg, logger),
		admin: NewAdminService(users, sessions, cfg, logger),
		cfg:   cfg,
	}
}

func (e testEnv) register(t *testing.T, email, username string) AuthResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterInput{
		Email:    email,
		Username: username,
		Password: "Str0ng$pass",
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return resp
}

// promote the user directly in the store; used to seed privileged actors.
func (e testEnv) seedRole(t *testing.T, userID string, role models.Role) {
	t.Helper()
	if err := e.mem.UpdateRole(context.Background(), userID, role); err != nil {
		t.Fatalf("seed role: %v", err)
	}
}
