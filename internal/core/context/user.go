// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// SystemActor is recorded as the author of changes made without an authenticated user.
const SystemActor = "system"

// UserContext contains authenticated user information.
type UserContext struct {
	UserID      string
	DisplayName string
	Email       string
	Roles       []string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// ChangedBy returns the name stamped on history snapshots and quotations.
func ChangedBy(ctx context.Context) string {
	u := GetUser(ctx)
	switch {
	case u == nil:
		return SystemActor
	case u.DisplayName != "":
		return u.DisplayName
	case u.Email != "":
		return u.Email
	case u.UserID != "":
		return u.UserID
	}
	return SystemActor
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
