package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/internal/repository"
)

var (
	ErrUserAlreadyExists = errors.New("user with this email already exists")
	ErrBadLogin          = errors.New("invalid email or password")
	ErrUserNotFound      = errors.New("user not found")
)

// TokenIssuer signs session tokens
type TokenIssuer interface {
	GenerateToken(userID uint, email string) (string, error)
}

// UserService handles user-related operations
type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	now    func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens, now: time.Now}
}

// CreateUser creates a new user and returns a session token for it
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, "", ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", err
	}

	user := models.User{
		Name:  req.Name,
		Email: email,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, "", err
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrBadLogin
	}
	if err != nil {
		return nil, "", err
	}

	if !user.CheckPassword(req.Password) {
		return nil, "", ErrBadLogin
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	// last-login bookkeeping must not block sign-in
	now := s.now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err == nil {
		user.LastLogin = now
	}

	return user, token, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
