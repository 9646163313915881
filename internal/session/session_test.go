package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/terra-clan/assessment-portal/internal/models"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"role":    "candidate",
		"exp":     exp.Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestLoginRestoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	token := signedToken(t, time.Now().Add(time.Hour))

	s := New(store, "browser-1")
	if s.IsAuthenticated() {
		t.Fatal("new session must be empty")
	}
	if err := s.Login(ctx, token, models.RoleInterviewer); err != nil {
		t.Fatalf("Login: %v", err)
	}

	restored := New(store, "browser-1")
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Token() != token || restored.Role() != models.RoleInterviewer {
		t.Errorf("restored %q/%q", restored.Token(), restored.Role())
	}
	if exp, ok := restored.Expiry(); !ok || exp.Before(time.Now()) {
		t.Errorf("unexpected expiry %v %v", exp, ok)
	}

	if err := restored.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if restored.IsAuthenticated() {
		t.Error("session still authenticated after Clear")
	}
	if _, err := store.Load(ctx, "browser-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after Clear, got %v", err)
	}
}

func TestRestoreDropsExpiredToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, "k", &State{Token: signedToken(t, time.Now().Add(-time.Minute)), Role: models.RoleCandidate})

	s := New(store, "k")
	if err := s.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("expired token must not be restored")
	}
	if _, err := store.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired entry should be removed, got %v", err)
	}
}

func TestRestoreKeepsOpaqueToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, "k", &State{Token: "opaque", Role: models.RoleCandidate})

	s := New(store, "k")
	if err := s.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s.Token() != "opaque" {
		t.Errorf("non-JWT token should survive restore, got %q", s.Token())
	}
	if _, ok := s.Expiry(); ok {
		t.Error("opaque token has no expiry")
	}
}

func TestLoginUserDefaultsRole(t *testing.T) {
	s := New(NewMemoryStore(), "k")
	if err := s.LoginUser(context.Background(), "tok", &models.User{ID: "u1", Name: "Ada"}); err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if s.Role() != models.RoleCandidate {
		t.Errorf("expected candidate role, got %q", s.Role())
	}
	if s.User() == nil || s.User().Name != "Ada" {
		t.Errorf("user not kept: %+v", s.User())
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	s := New(NewMemoryStore(), "k")
	if err := s.Login(context.Background(), "", models.RoleCandidate); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestRequireRole(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStore(), "k")

	if err := s.RequireRole(models.RoleCandidate); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}

	_ = s.Login(ctx, "tok", models.RoleCandidate)
	if err := s.RequireRole(models.RoleCandidate); err != nil {
		t.Errorf("candidate should pass: %v", err)
	}
	if err := s.RequireRole(); err != nil {
		t.Errorf("no roles should accept any authenticated session: %v", err)
	}
	if err := s.RequireRole(models.RoleInterviewer, models.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileStore(path)

	if _, err := store.Load(ctx, "default"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on missing file, got %v", err)
	}
	if err := store.Delete(ctx, "default"); err != nil {
		t.Fatalf("Delete on missing file: %v", err)
	}

	want := &State{Token: "tok", Role: models.RoleInterviewer, User: &models.User{ID: "u1", Email: "i@x.io"}}
	if err := store.Save(ctx, "default", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(ctx, "other", &State{Token: "t2"}); err != nil {
		t.Fatalf("Save other: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("session file mode %v, want 0600", info.Mode().Perm())
	}

	got, err := NewFileStore(path).Load(ctx, "default")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Token != "tok" || got.Role != models.RoleInterviewer || got.User == nil || got.User.Email != "i@x.io" {
		t.Errorf("unexpected state %+v", got)
	}

	if err := store.Delete(ctx, "default"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "other"); err != nil {
		t.Errorf("other key should survive: %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}

	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	key := "test-" + time.Now().Format("150405.000000")
	if err := store.Save(ctx, key, &State{Token: "tok", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, key)
	if err != nil || got.Role != models.RoleAdmin {
		t.Fatalf("Load: %+v %v", got, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
