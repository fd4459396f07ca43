package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role is the coarse access role carried by the identity provider's token.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Principal is the authenticated caller as asserted by the identity
// provider. The scheduling core trusts these fields; issuing and revoking
// tokens is out of scope.
type Principal struct {
	UserID        uuid.UUID
	Role          Role
	EmailVerified bool
}

type contextKey string

const principalKey contextKey = "principal"

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the authenticated principal, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
