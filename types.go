package storefront

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds storefront options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetCookieName() string
	GetFrontendURL() string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Signin(ctx context.Context, email, password string) (*User, string, error)
	TokenForUser(user *User) (string, error)
}

// Mailer delivers out-of-band notifications. Delivery failures are returned
// to the caller so the surrounding transaction can decide what to roll back.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] STORE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] STORE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] STORE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
