package storefront

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// WithClaimsContext sets the SessionClaims in the given context
func WithClaimsContext(r context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the SessionClaims from the standard context
func ClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*SessionClaims)
	return raw, ok && raw != nil
}

// CurrentUser returns the user on the context, or nil for anonymous
// requests.
func CurrentUser(ctx context.Context) *User {
	user, _ := FromContext(ctx)
	return user
}

// RequireUser returns the user on the context or an authentication error.
// Anonymous requests pass through the middleware untouched, so this is the
// single point where identity becomes mandatory.
func RequireUser(ctx context.Context) (*User, error) {
	user, ok := FromContext(ctx)
	if !ok {
		return nil, ErrAuthenticationRequired
	}
	return user, nil
}
