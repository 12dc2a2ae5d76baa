package auth

import (
	"context"
	"errors"
)

// ErrNotLoggedIn is returned by operations that need a signed-in user when
// the request carries none.
var ErrNotLoggedIn = errors.New("not logged in")

type contextKey struct{}

type deviceKey struct{}

type AuthContext struct {
	UserID    int64
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// UserID returns the signed-in user, or 0 when there is none.
func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// RequireUser returns the signed-in user or ErrNotLoggedIn.
func RequireUser(ctx context.Context) (int64, error) {
	id := UserID(ctx)
	if id == 0 {
		return 0, ErrNotLoggedIn
	}
	return id, nil
}

// WithDevice records the installation the request came from.
func WithDevice(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceKey{}, deviceID)
}

// DeviceID returns the installation id, or "" when none was recorded.
func DeviceID(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey{}).(string)
	return id
}
