package services

import (
	"context"
	"errors"
	"testing"

	"github.com/intentlab/intent-backend/internal/requestdata"
	"gorm.io/gorm"
)

func newTestAuthService(t *testing.T, gdb *gorm.DB, r testRepos) AuthService {
	t.Helper()
	return NewAuthService(gdb, testLogger(t), "test-secret", r.user)
}

func TestRegisterAndLogin_RoundTrip(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	svc := newTestAuthService(t, gdb, r)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, " Alice@Example.com ", "hunter22", "Alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a token")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Password == "hunter22" {
		t.Fatalf("password stored in plaintext")
	}

	loginToken, loginUser, err := svc.Login(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loginToken == "" || loginUser.ID != user.ID {
		t.Fatalf("unexpected login result")
	}
}

func TestRegister_DuplicateEmailRejected(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	svc := newTestAuthService(t, gdb, r)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "bob@example.com", "pw123456", "Bob"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "BOB@example.com", "other", "Bob2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	svc := newTestAuthService(t, gdb, r)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "carol@example.com", "correct-pw", "Carol"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Login(ctx, "carol@example.com", "wrong-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestSetContextFromToken(t *testing.T) {
	gdb := newTestDB(t)
	r := newTestRepos(t, gdb)
	svc := newTestAuthService(t, gdb, r)
	ctx := context.Background()

	token, user, err := svc.Register(ctx, "dave@example.com", "pw123456", "Dave")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	authedCtx, err := svc.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != user.ID || rd.Email != "dave@example.com" {
		t.Fatalf("unexpected request data: %+v", rd)
	}

	if _, err := svc.SetContextFromToken(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for garbage token, got %v", err)
	}

	other := NewAuthService(gdb, testLogger(t), "different-secret", r.user)
	if _, err := other.SetContextFromToken(ctx, token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong signing key, got %v", err)
	}
}
