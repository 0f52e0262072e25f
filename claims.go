package storefront

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload embedded in the session cookie. Only the user
// identifier travels in the token; permissions are re-read from the store on
// every request so label changes take effect without reissuing cookies.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

// UserID returns the embedded user identifier
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// UserUUID parses the embedded identifier
func (c *SessionClaims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID())
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
