// Package auth, as part of the authentication module.
// This file, `middleware.go`, defines the auth gate: HTTP middleware that resolves
// the caller from the `Authorization: Bearer <token>` header.
// In Nest.js, guards (`CanActivate`) serve a similar purpose.
package auth

import (
	"net/http"
	"strings"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/response"
)

// Verifier is the part of TokenService the gate depends on.
type Verifier interface {
	Verify(raw string) (Identity, error)
}

// bearerToken extracts the token from an `Authorization: Bearer <token>` header.
// Any other scheme or shape counts as absent.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Require rejects requests without a valid bearer token with 401 and attaches
// the verified Identity to the request context otherwise.
// The returned middleware conforms to the standard Go `func(next http.Handler) http.Handler` pattern.
func Require(tokens Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				response.Error(w, r, apperror.NewUnauthorizedError("Access token required", nil))
				return
			}

			id, err := tokens.Verify(raw)
			if err != nil {
				response.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
		})
	}
}

// Optional attaches the Identity when a valid bearer token is present and
// otherwise lets the request through anonymously.
func Optional(tokens Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok {
				if id, err := tokens.Verify(raw); err == nil {
					r = r.WithContext(NewContext(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
