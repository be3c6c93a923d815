package service

import (
	"context"
	"errors"
	"fmt"

	"membership-platform/backend/internal/models"
	"membership-platform/backend/internal/repository"
	"membership-platform/backend/pkg/jwt"
)

var (
	ErrNoCredentials      = errors.New("no credentials presented")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityProvider   = errors.New("identity provider unavailable")
)

// Credentials are the raw authentication inputs of a request
type Credentials struct {
	BearerToken  string
	SessionToken string
}

// TokenValidator checks session tokens
type TokenValidator interface {
	ValidateToken(token string) (*jwt.JWTClaims, error)
}

// IdentityResolver turns request credentials into an Identity
type IdentityResolver struct {
	tokens TokenValidator
	users  repository.UserRepository
}

func NewIdentityResolver(tokens TokenValidator, users repository.UserRepository) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, users: users}
}

// Resolve prefers the bearer token and falls back to the session cookie.
func (r *IdentityResolver) Resolve(ctx context.Context, creds Credentials) (*models.Identity, error) {
	token := creds.BearerToken
	if token == "" {
		token = creds.SessionToken
	}
	if token == "" {
		return nil, ErrNoCredentials
	}

	claims, err := r.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d no longer exists", ErrInvalidCredentials, claims.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityProvider, err)
	}

	return &models.Identity{UserID: user.ID, Email: user.Email}, nil
}

// ResolveToken adapts Resolve to raw header and cookie values.
func (r *IdentityResolver) ResolveToken(ctx context.Context, bearer, session string) (*models.Identity, error) {
	return r.Resolve(ctx, Credentials{BearerToken: bearer, SessionToken: session})
}
