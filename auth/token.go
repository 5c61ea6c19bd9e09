// This file, `token.go`, implements the token service: issuing and verifying
// the signed, time-limited bearer tokens (JWT, HS256) that identify a user.
// Tokens are stateless. Nothing is stored server-side, so a token stays valid
// until it expires.
package auth

import (
	"errors"
	"time"

	// Third-party library for JWT handling. `jwt/v5` indicates version 5.
	"github.com/golang-jwt/jwt/v5"

	"github.com/user/taskmanager-go/apperror"
)

// Claims defines the payload of our JWTs.
// Embedding `jwt.RegisteredClaims` includes standard claims like `iss` (issuer), `exp` (expiration time), etc.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies bearer tokens with a single server-held secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenService creates a TokenService. ttl is the lifetime of issued tokens.
func NewTokenService(secret string, ttl time.Duration, issuer string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock returns a copy of s that reads time from now. Tests use it to
// issue tokens in the past.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue creates a signed token for the user and returns it with its expiry.
func (s *TokenService) Issue(userID, email string) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	// Create a new token object with the specified signing method (HS256) and claims.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, apperror.NewInternalError("failed to sign token", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token string.
//
// Failures map onto three errors: TokenExpired for a token past its expiry,
// InvalidToken for a bad signature or structure (including tokens signed with
// another algorithm), and Unauthorized for anything else.
func (s *TokenService) Verify(raw string) (Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		// Only HS256 is accepted. This rejects `none` and RS/ES downgrades
		// before the key function is consulted.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, apperror.NewTokenExpiredError("Token expired", err)
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return Identity{}, apperror.NewInvalidTokenError("Invalid token", err)
		default:
			return Identity{}, apperror.NewUnauthorizedError("Token verification failed", err)
		}
	}

	if claims.UserID == "" {
		return Identity{}, apperror.NewUnauthorizedError("Token verification failed", errors.New("userId claim is missing"))
	}
	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
