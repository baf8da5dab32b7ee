package auth

import (
	"context"

	"oversight/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u domain.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext retrieves the authenticated user, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	if ctx == nil {
		return domain.User{}, false
	}
	u, ok := ctx.Value(userKey).(domain.User)
	return u, ok
}

// HasRole reports whether the user in ctx holds one of roles.
func HasRole(ctx context.Context, roles ...domain.Role) bool {
	u, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
