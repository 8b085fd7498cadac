package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"appointment-booking-server/internal/config"
	"appointment-booking-server/internal/models"
	"appointment-booking-server/internal/store"
	"appointment-booking-server/internal/utils"
)

// UserStore is the credential store.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 7

var validate = validator.New()

// AuthService registers users and issues access tokens.
type AuthService struct {
	users  UserStore
	cfg    *config.Config
	logger *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, cfg *config.Config, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, cfg: cfg, logger: logger.With("service", "auth")}
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	AccessToken string               `json:"access_token"`
	User        models.UserSanitized `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Duplicate emails fail with ErrConflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.UserSanitized, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.UserSanitized{}, validationf("name is required")
	}
	email := normalizeEmail(in.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return models.UserSanitized{}, validationf("email must be a valid email address")
	}
	if len(in.Password) < MinPasswordLength {
		return models.UserSanitized{}, validationf("password must be at least %d characters", MinPasswordLength)
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return models.UserSanitized{}, validationf("role must be PATIENT, DOCTOR, or ADMIN")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return models.UserSanitized{}, fmt.Errorf("%w: email already exists", ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.UserSanitized{}, fmt.Errorf("lookup user: %w", err)
	}

	user := models.User{Name: name, Email: email, Role: role}
	if err := user.SetPassword(in.Password); err != nil {
		return models.UserSanitized{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.UserSanitized{}, fmt.Errorf("%w: email already exists", ErrConflict)
		}
		return models.UserSanitized{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user.Sanitize(), nil
}

// Login verifies credentials and issues a signed access token. Unknown emails
// and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrUnauthenticated
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !user.CheckPassword(password) {
		s.logger.WarnContext(ctx, "login failed", "user_id", user.ID)
		return LoginResult{}, ErrUnauthenticated
	}

	token, err := utils.GenerateAccessToken(user, s.cfg)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: token, User: user.Sanitize()}, nil
}

// Me returns the stored profile of the authenticated principal.
func (s *AuthService) Me(ctx context.Context, p models.Principal) (models.UserSanitized, error) {
	user, err := s.users.GetUser(ctx, p.ID)
	if err != nil {
		return models.UserSanitized{}, notFound(err, "user", p.ID)
	}
	return user.Sanitize(), nil
}
