package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"webagency/api/internal/config"
	"webagency/api/internal/models"
	"webagency/api/internal/repository"
)

type stubStore struct {
	objects map[string][]byte
}

func (s *stubStore) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.objects[objectName] = data
	return nil
}

func (s *stubStore) Remove(ctx context.Context, objectName string) error {
	delete(s.objects, objectName)
	return nil
}

type testServer struct {
	engine *gin.Engine
	mem    *repository.Memory
	store  *stubStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:  "test-secret",
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
		Uploads: config.UploadsConfig{MaxSizeBytes: 1 << 20},
	}

	mem := repository.NewMemory()
	store := &stubStore{objects: make(map[string][]byte)}
	handlerSet := NewHandlerSet(
		zerolog.Nop(),
		cfg,
		nil,
		nil,
		repository.MemoryUsers{Memory: mem},
		repository.MemorySessions{Memory: mem},
		repository.MemoryUploads{Memory: mem},
		store,
	)

	engine := gin.New()
	handlerSet.Routes(engine.Group("/api"))

	return &testServer{engine: engine, mem: mem, store: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

// register creates an account through the public route and returns its token
// and user id.
func (s *testServer) register(t *testing.T, email, username string) (string, string) {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"username": username,
		"password": "Str0ng$pass",
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: want 201, got %d (%s)", email, code, env.Message)
	}
	var payload struct {
		User  models.AuthUser `json:"user"`
		Token string          `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode register payload: %v", err)
	}
	return payload.Token, payload.User.ID
}

func (s *testServer) login(t *testing.T, email, password string) (int, string) {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	if code != http.StatusOK {
		return code, ""
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode login payload: %v", err)
	}
	return code, payload.Token
}

// seedSuperAdmin registers a root account and elevates it directly in storage.
func (s *testServer) seedSuperAdmin(t *testing.T) string {
	t.Helper()
	_, id := s.register(t, "root@example.com", "root")
	if err := s.mem.UpdateRole(context.Background(), id, models.RoleSuperAdmin); err != nil {
		t.Fatalf("elevate root: %v", err)
	}
	// the pre-elevation token carries the old role claim; log in again
	code, token := s.login(t, "root@example.com", "Str0ng$pass")
	if code != http.StatusOK {
		t.Fatalf("root login: got %d", code)
	}
	return token
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Database != "memory" {
		t.Fatalf("unexpected health payload: %+v", health)
	}
}

func TestRegisterValidationAndConflicts(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "taken@example.com", "taken")

	cases := []struct {
		name string
		body gin.H
		want int
		kind string
	}{
		{"weak password", gin.H{"email": "a@example.com", "username": "abc", "password": "short"}, http.StatusBadRequest, "validation_error"},
		{"bad username", gin.H{"email": "a@example.com", "username": "x", "password": "Str0ng$pass"}, http.StatusBadRequest, "validation_error"},
		{"bad email", gin.H{"email": "not-an-email", "username": "abc", "password": "Str0ng$pass"}, http.StatusBadRequest, "validation_error"},
		{"duplicate email", gin.H{"email": "taken@example.com", "username": "other", "password": "Str0ng$pass"}, http.StatusConflict, "duplicate_email"},
		{"duplicate username", gin.H{"email": "other@example.com", "username": "taken", "password": "Str0ng$pass"}, http.StatusConflict, "duplicate_username"},
	}
	for _, tc := range cases {
		code, env := s.do(t, http.MethodPost, "/api/auth/register", "", tc.body)
		if code != tc.want || env.Error != tc.kind {
			t.Fatalf("%s: want %d/%s, got %d/%s", tc.name, tc.want, tc.kind, code, env.Error)
		}
	}
}

func TestLoginFailureIsUndifferentiated(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "known@example.com", "known")

	codeUnknown, envUnknown := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "nobody@example.com", "password": "Str0ng$pass",
	})
	codeWrong, envWrong := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "known@example.com", "password": "Wr0ng$pass!",
	})
	if codeUnknown != http.StatusUnauthorized || codeWrong != http.StatusUnauthorized {
		t.Fatalf("want 401/401, got %d/%d", codeUnknown, codeWrong)
	}
	if envUnknown.Message != envWrong.Message || envUnknown.Error != envWrong.Error {
		t.Fatalf("login failures must be indistinguishable: %q vs %q", envUnknown.Message, envWrong.Message)
	}
}

func TestProfileAndLogout(t *testing.T) {
	s := newTestServer(t)
	token, id := s.register(t, "me@example.com", "myself")

	code, env := s.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	if code != http.StatusOK {
		t.Fatalf("profile: want 200, got %d", code)
	}
	var payload struct {
		User models.AuthUser `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if payload.User.ID != id || payload.User.Role != models.RoleUser {
		t.Fatalf("unexpected profile: %+v", payload.User)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/auth/logout", token, nil); code != http.StatusOK {
		t.Fatalf("logout: want 200, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/auth/profile", token, nil); code != http.StatusUnauthorized {
		t.Fatalf("profile after logout: want 401, got %d", code)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	s := newTestServer(t)
	oldToken, _ := s.register(t, "r@example.com", "rotator")

	code, env := s.do(t, http.MethodPost, "/api/auth/refresh-token", oldToken, nil)
	if code != http.StatusOK {
		t.Fatalf("refresh: want 200, got %d (%s)", code, env.Message)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("decode refresh: %v", err)
	}

	if code, _ := s.do(t, http.MethodGet, "/api/auth/profile", oldToken, nil); code != http.StatusUnauthorized {
		t.Fatalf("old token after rotation: want 401, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/auth/profile", payload.Token, nil); code != http.StatusOK {
		t.Fatalf("rotated token: want 200, got %d", code)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "cp@example.com", "changer")

	code, env := s.do(t, http.MethodPost, "/api/auth/change-password", token, gin.H{
		"oldPassword": "Str0ng$pass",
		"newPassword": "N3w$trongpass",
	})
	if code != http.StatusOK {
		t.Fatalf("change password: want 200, got %d (%s)", code, env.Message)
	}

	if code, _ := s.do(t, http.MethodGet, "/api/auth/profile", token, nil); code != http.StatusUnauthorized {
		t.Fatalf("token must be revoked after password change, got %d", code)
	}
	if code, _ := s.login(t, "cp@example.com", "Str0ng$pass"); code != http.StatusUnauthorized {
		t.Fatalf("old password: want 401, got %d", code)
	}
	if code, _ := s.login(t, "cp@example.com", "N3w$trongpass"); code != http.StatusOK {
		t.Fatalf("new password: want 200, got %d", code)
	}
}

// Full privilege lifecycle: a super admin provisions an admin, the admin is
// rebuffed from the superadmin surface, gets promoted, and a fresh login
// opens the door.
func TestAdminLifecycle(t *testing.T) {
	s := newTestServer(t)
	rootToken := s.seedSuperAdmin(t)

	code, env := s.do(t, http.MethodPost, "/api/superadmin/admins", rootToken, gin.H{
		"email":    "admin@example.com",
		"username": "firstadmin",
		"password": "Adm1n$pass!",
		"role":     "ADMIN",
	})
	if code != http.StatusCreated {
		t.Fatalf("create admin: want 201, got %d (%s)", code, env.Message)
	}
	var created struct {
		User models.AuthUser `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created admin: %v", err)
	}
	if created.User.Role != models.RoleAdmin {
		t.Fatalf("want ADMIN, got %s", created.User.Role)
	}

	_, adminToken := s.login(t, "admin@example.com", "Adm1n$pass!")

	// admin surface opens, superadmin surface does not
	if code, _ := s.do(t, http.MethodGet, "/api/admin/users", adminToken, nil); code != http.StatusOK {
		t.Fatalf("admin users as admin: want 200, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/superadmin/admins", adminToken, nil); code != http.StatusForbidden {
		t.Fatalf("superadmin list as admin: want 403, got %d", code)
	}

	code, env = s.do(t, http.MethodPost, "/api/superadmin/promote-superadmin", rootToken, gin.H{
		"userId": created.User.ID,
	})
	if code != http.StatusOK {
		t.Fatalf("promote to super admin: want 200, got %d (%s)", code, env.Message)
	}

	// promotion revoked the old session; only a fresh login carries the role
	if code, _ := s.do(t, http.MethodGet, "/api/superadmin/admins", adminToken, nil); code != http.StatusUnauthorized {
		t.Fatalf("stale token after promotion: want 401, got %d", code)
	}
	_, freshToken := s.login(t, "admin@example.com", "Adm1n$pass!")
	if code, _ := s.do(t, http.MethodGet, "/api/superadmin/admins", freshToken, nil); code != http.StatusOK {
		t.Fatalf("superadmin list after promotion: want 200, got %d", code)
	}
}

func TestRoleChangeRejections(t *testing.T) {
	s := newTestServer(t)
	rootToken := s.seedSuperAdmin(t)
	_, userID := s.register(t, "plain@example.com", "plainuser")

	// only an ADMIN may become SUPER_ADMIN
	code, env := s.do(t, http.MethodPost, "/api/superadmin/promote-superadmin", rootToken, gin.H{"userId": userID})
	if code != http.StatusForbidden {
		t.Fatalf("promote non-admin: want 403, got %d (%s)", code, env.Message)
	}

	// self-demotion is forbidden
	_, envProfile := s.do(t, http.MethodGet, "/api/auth/profile", rootToken, nil)
	var profile struct {
		User models.AuthUser `json:"user"`
	}
	if err := json.Unmarshal(envProfile.Data, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	code, _ = s.do(t, http.MethodPost, "/api/superadmin/demote-admin", rootToken, gin.H{"userId": profile.User.ID})
	if code != http.StatusForbidden {
		t.Fatalf("self demotion: want 403, got %d", code)
	}

	// unknown target surfaces as 404
	code, _ = s.do(t, http.MethodPost, "/api/superadmin/promote-admin", rootToken, gin.H{"userId": "missing"})
	if code != http.StatusNotFound {
		t.Fatalf("unknown target: want 404, got %d", code)
	}

	// creating a plain USER through the admin route is rejected
	code, _ = s.do(t, http.MethodPost, "/api/superadmin/admins", rootToken, gin.H{
		"email": "u@example.com", "username": "uuu", "password": "Str0ng$pass", "role": "USER",
	})
	if code != http.StatusForbidden {
		t.Fatalf("create USER via admin route: want 403, got %d", code)
	}
}

func TestHierarchyRequiresSuperAdmin(t *testing.T) {
	s := newTestServer(t)
	rootToken := s.seedSuperAdmin(t)
	userToken, _ := s.register(t, "low@example.com", "lowuser")

	if code, _ := s.do(t, http.MethodGet, "/api/superadmin/hierarchy", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: want 401, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/superadmin/hierarchy", userToken, nil); code != http.StatusForbidden {
		t.Fatalf("plain user: want 403, got %d", code)
	}

	code, env := s.do(t, http.MethodGet, "/api/superadmin/hierarchy", rootToken, nil)
	if code != http.StatusOK {
		t.Fatalf("super admin: want 200, got %d", code)
	}
	var hierarchy map[models.Role]models.Privilege
	if err := json.Unmarshal(env.Data, &hierarchy); err != nil {
		t.Fatalf("decode hierarchy: %v", err)
	}
	if hierarchy[models.RoleSuperAdmin].Level != 4 {
		t.Fatalf("unexpected hierarchy payload: %+v", hierarchy)
	}
}

func (s *testServer) uploadFile(t *testing.T, token, name, content string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode upload response: %v", err)
		}
	}
	return rec.Code, env
}

func TestUploadLifecycle(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.register(t, "owner@example.com", "owner")
	strangerToken, _ := s.register(t, "stranger@example.com", "stranger")
	rootToken := s.seedSuperAdmin(t)

	code, env := s.uploadFile(t, ownerToken, "report.pdf", "content")
	if code != http.StatusCreated {
		t.Fatalf("upload: want 201, got %d (%s)", code, env.Message)
	}
	var upload struct {
		ID           string `json:"id"`
		OriginalName string `json:"originalName"`
	}
	if err := json.Unmarshal(env.Data, &upload); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if upload.OriginalName != "report.pdf" {
		t.Fatalf("unexpected upload payload: %+v", upload)
	}
	if len(s.store.objects) != 1 {
		t.Fatalf("object not stored: %v", s.store.objects)
	}

	// a stranger can neither see nor delete it
	_, listEnv := s.do(t, http.MethodGet, "/api/upload", strangerToken, nil)
	var listed struct {
		Uploads []json.RawMessage `json:"uploads"`
	}
	if err := json.Unmarshal(listEnv.Data, &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Uploads) != 0 {
		t.Fatalf("stranger sees foreign uploads: %v", listed.Uploads)
	}
	if code, _ := s.do(t, http.MethodDelete, "/api/upload/"+upload.ID, strangerToken, nil); code != http.StatusForbidden {
		t.Fatalf("stranger delete: want 403, got %d", code)
	}

	// an admin sees everything and may delete
	if code, _ := s.do(t, http.MethodDelete, "/api/upload/"+upload.ID, rootToken, nil); code != http.StatusOK {
		t.Fatalf("admin delete: want 200, got %d", code)
	}
	if len(s.store.objects) != 0 {
		t.Fatalf("object not removed: %v", s.store.objects)
	}
	if code, _ := s.do(t, http.MethodDelete, "/api/upload/"+upload.ID, ownerToken, nil); code != http.StatusNotFound {
		t.Fatalf("delete gone upload: want 404, got %d", code)
	}
}

func TestModeratorGate(t *testing.T) {
	s := newTestServer(t)
	userToken, userID := s.register(t, "mod@example.com", "modtobe")

	if code, _ := s.do(t, http.MethodGet, "/api/moderator/reports", userToken, nil); code != http.StatusForbidden {
		t.Fatalf("plain user on moderator surface: want 403, got %d", code)
	}

	if err := s.mem.UpdateRole(context.Background(), userID, models.RoleModerator); err != nil {
		t.Fatalf("elevate: %v", err)
	}
	_, modToken := s.login(t, "mod@example.com", "Str0ng$pass")
	if code, _ := s.do(t, http.MethodGet, "/api/moderator/reports", modToken, nil); code != http.StatusOK {
		t.Fatalf("moderator: want 200, got %d", code)
	}
}
