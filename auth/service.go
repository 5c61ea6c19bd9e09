// Package auth is responsible for handling authentication logic.
// This includes user registration, login, profile lookup and token issuance (JWT).
// In a Nest.js analogy, this directory would correspond to an "AuthModule",
// containing services, controllers (handlers in Go), DTOs and guards.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	// Library for password hashing using bcrypt.
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/users"
	"github.com/user/taskmanager-go/validation"
)

// dummyPassword is hashed once per Service. Login compares against that hash
// when the email is unknown, so both failure paths spend one bcrypt comparison.
const dummyPassword = "taskmanager-login-timing-guard"

// Service provides registration, login and profile lookup.
// Dependencies are injected explicitly via the constructor, analogous to
// constructor injection in Nest.js services.
type Service struct {
	users      users.Repository
	tokens     *TokenService
	validate   *validation.Validator
	bcryptCost int
	dummyHash  []byte
	now        func() time.Time
}

// NewService creates a new Service. It fails when bcryptCost is outside
// bcrypt's accepted range, since the login timing guard needs a real hash.
func NewService(repo users.Repository, tokens *TokenService, validate *validation.Validator, bcryptCost int) (*Service, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), bcryptCost)
	if err != nil {
		return nil, apperror.NewConfigError(fmt.Sprintf("invalid bcrypt cost %d", bcryptCost), err)
	}
	return &Service{
		users:      repo,
		tokens:     tokens,
		validate:   validate,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		now:        time.Now,
	}, nil
}

// Register creates a new user and returns it together with a token.
// The name is trimmed and the email normalized to lower case before
// validation and storage.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Name = users.NormalizeName(req.Name)
	req.Email = users.NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, duplicateEmail(nil)
	case !apperror.IsNotFound(err):
		return nil, err
	}

	// Hash the user's password using bcrypt. bcrypt is a strong, adaptive hashing algorithm.
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	now := s.now().UTC()
	user := &users.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can win the race between the lookup
		// above and this insert; the unique index reports it as a conflict.
		if apperror.IsConflictError(err) {
			return nil, duplicateEmail(err)
		}
		return nil, err
	}

	return s.respond(user)
}

func duplicateEmail(cause error) error {
	return apperror.NewConflictError("User with this email already exists", cause)
}

// Login authenticates a user and returns a token.
// An unknown email and a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = users.NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, invalidCredentials()
	}

	// `bcrypt.CompareHashAndPassword` handles the comparison securely.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, invalidCredentials()
	}

	return s.respond(user)
}

func invalidCredentials() error {
	return apperror.NewInvalidCredentialsError("Invalid email or password")
}

// GetProfile returns the user behind an identity. It fails with NotFound
// when the user no longer exists.
func (s *Service) GetProfile(ctx context.Context, userID string) (*users.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperror.NewNotFoundError("User not found", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFoundError("User not found", nil)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) respond(user *users.User) (*AuthResponse, error) {
	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Token: token}, nil
}
