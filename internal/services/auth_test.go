package services_test

import (
	"context"
	"errors"
	"testing"

	"appointment-booking-server/internal/config"
	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/services"
	"appointment-booking-server/internal/store/memory"
	"appointment-booking-server/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTExpirationMinutes: 60}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	auth := services.NewAuthService(memory.New(), cfg, nil)

	user, err := auth.Register(ctx, services.RegisterInput{
		Name: "Pat", Email: " Pat@Example.com ", Password: "hunter22", Role: "patient",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "pat@example.com" || user.Role != models.RolePatient || user.ID == "" {
		t.Fatalf("unexpected user %+v", user)
	}

	res, err := auth.Login(ctx, "PAT@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != user.ID {
		t.Fatalf("login user = %s, want %s", res.User.ID, user.ID)
	}
	claims, err := utils.ValidateToken(res.AccessToken, cfg.JWTSecret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != user.ID || claims.Role != models.RolePatient || claims.Email != user.Email {
		t.Fatalf("unexpected claims %+v", claims)
	}

	me, err := auth.Me(ctx, claims.Principal())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.ID != user.ID {
		t.Fatalf("Me returned %+v", me)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	auth := services.NewAuthService(memory.New(), testConfig(), nil)

	in := services.RegisterInput{Name: "Doc", Email: "doc@example.com", Password: "password1", Role: "DOCTOR"}
	if _, err := auth.Register(ctx, in); err != nil {
		t.Fatalf("Register: %v", err)
	}
	in.Email = "DOC@example.com"
	if _, err := auth.Register(ctx, in); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	auth := services.NewAuthService(memory.New(), testConfig(), nil)

	tests := []struct {
		name string
		in   services.RegisterInput
	}{
		{"missing name", services.RegisterInput{Email: "a@example.com", Password: "password", Role: "PATIENT"}},
		{"bad email", services.RegisterInput{Name: "A", Email: "not-an-email", Password: "password", Role: "PATIENT"}},
		{"short password", services.RegisterInput{Name: "A", Email: "a@example.com", Password: "123456", Role: "PATIENT"}},
		{"unknown role", services.RegisterInput{Name: "A", Email: "a@example.com", Password: "password", Role: "NURSE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Register(context.Background(), tt.in); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	ctx := context.Background()
	auth := services.NewAuthService(memory.New(), testConfig(), nil)
	if _, err := auth.Register(ctx, services.RegisterInput{
		Name: "Ada", Email: "ada@example.com", Password: "correct-horse", Role: "ADMIN",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errWrong := auth.Login(ctx, "ada@example.com", "wrong-horse")
	_, errUnknown := auth.Login(ctx, "nobody@example.com", "correct-horse")
	for _, err := range []error{errWrong, errUnknown} {
		if !errors.Is(err, services.ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Fatalf("login errors differ: %q vs %q", errWrong, errUnknown)
	}
}

func TestMeUnknownUser(t *testing.T) {
	auth := services.NewAuthService(memory.New(), testConfig(), nil)
	_, err := auth.Me(context.Background(), models.Principal{ID: "gone", Role: models.RolePatient})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
