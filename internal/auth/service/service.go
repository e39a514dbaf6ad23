// Package service implements staff authentication: credential checks and
// access-token minting.
package service

import (
	"context"
	"errors"
	"time"

	"cleanops_backend/internal/auth/password"
	"cleanops_backend/internal/auth/repository"
	"cleanops_backend/platform/apperr"
	"cleanops_backend/platform/config"
	"cleanops_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

// Store is the persistence surface the service needs.
type Store interface {
	CreateUser(ctx context.Context, params repository.CreateUserParams) (repository.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (repository.User, error)
	GetUserByEmail(ctx context.Context, email string) (repository.User, error)
	SetUserRoles(ctx context.Context, id uuid.UUID, roles []string) error
}

// Service authenticates staff users and mints JWT access tokens.
type Service struct {
	store Store
	cfg   config.AuthServiceConfig
	log   *logger.Logger
}

// New creates an auth service.
func New(store Store, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, log: log}
}

// Login verifies credentials and returns a signed access token with the user.
// Lookup and compare failures collapse into one error so responses do not
// reveal whether the account exists.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (string, repository.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", repository.User{}, apperr.Unauthorized("invalid credentials")
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return "", repository.User{}, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.signAccessToken(user)
	if err != nil {
		return "", repository.User{}, err
	}
	return token, user, nil
}

// GetMe returns the authenticated user's profile.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, err
}

// CreateUserParams contains parameters for provisioning a staff account.
type CreateUserParams struct {
	Email       string
	Password    string
	DisplayName *string
	Roles       []string
}

// CreateUser provisions a staff account. Admin only.
func (s *Service) CreateUser(ctx context.Context, params CreateUserParams) (repository.User, error) {
	hash, err := password.Hash(params.Password)
	if err != nil {
		return repository.User{}, err
	}
	roles := params.Roles
	if len(roles) == 0 {
		roles = []string{"staff"}
	}
	return s.store.CreateUser(ctx, repository.CreateUserParams{
		Email:        params.Email,
		PasswordHash: hash,
		DisplayName:  params.DisplayName,
		Roles:        roles,
	})
}

// SetUserRoles replaces a user's role set. Admin only.
func (s *Service) SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	err := s.store.SetUserRoles(ctx, userID, roles)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	return err
}

func (s *Service) signAccessToken(user repository.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"type":  accessTokenType,
		"roles": user.Roles,
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
