// Package auth, as part of the authentication module.
// This file, `context.go`, deals with carrying the authenticated identity
// within the Go `context.Context`. The context is a standard way in Go to carry request-scoped
// values, cancellation signals, and deadlines across API boundaries and between goroutines.
//
// The auth gate is the only writer. Handlers read the identity once with
// IdentityFrom and hand the user id to services as an explicit argument.
package auth

import (
	"context"
)

// `contextKey` is a custom type for context keys. Using a custom type prevents collisions
// with context keys defined in other packages. It's a common Go idiom.
type contextKey string

const (
	// `identityContextKey` is the specific key used to store the identity in the context.
	identityContextKey contextKey = "auth_identity"
)

// Identity is the caller resolved from a verified bearer token.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// NewContext returns a child of ctx that carries id.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFrom extracts the Identity stored by the auth gate.
// The second return value (`bool`) is false when the request is anonymous.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok
}
