package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wolfman30/realty-crm/pkg/logging"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Username string `json:"username"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by register and login.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Service implements registration, login and profile lookup.
type Service struct {
	store    UserStore
	tokens   *TokenIssuer
	logger   *logging.Logger
	validate *validator.Validate
	now      func() time.Time
	suffix   func() int
}

func NewService(store UserStore, tokens *TokenIssuer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		tokens:   tokens,
		logger:   logger,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
		suffix:   func() int { return rand.IntN(10000) },
	}
}

// Register creates an agent account and signs a token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.newUser(req.Name, req.Email, req.Username, req.Password, RoleAgent)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return s.session(user)
}

// Login verifies credentials and signs a fresh token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	user, err := s.store.GetByEmail(ctx, req.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

// Me returns the actor's profile.
func (s *Service) Me(ctx context.Context, actor Actor) (*User, error) {
	return s.store.GetByID(ctx, actor.ID)
}

// EnsureAdmin seeds an admin account when one with the email does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	user, err := s.newUser("Administrator", email, "admin", password, RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.store.Create(ctx, user); err != nil && !errors.Is(err, ErrEmailTaken) {
		return err
	}
	s.logger.Info("admin account seeded", "user_id", user.ID)
	return nil
}

func (s *Service) newUser(name, email, username, password string, role Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		local, _, _ := strings.Cut(email, "@")
		username = fmt.Sprintf("%s%d", local, s.suffix())
	}
	return &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}, nil
}

func (s *Service) session(user *User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

func (s *Service) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return &ValidationError{Message: err.Error()}
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "please include a valid email"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	}
	return field + " is invalid"
}
