package storefront

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes clients can branch on without parsing messages.
const (
	TextCodeAuthRequired       = "AUTH_REQUIRED"
	TextCodePermissionDenied   = "PERMISSION_DENIED"
	TextCodeInvalidPassword    = "INVALID_PASSWORD"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodePasswordMismatch   = "PASSWORD_MISMATCH"
	TextCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeSessionDecodeError = "SESSION_DECODE_ERROR"
)

// ErrAuthenticationRequired is returned when an operation needs an identity
// and the request context carries none.
var ErrAuthenticationRequired = errors.New("you must be signed in to do that", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeAuthRequired)

// ErrPermissionDenied is returned when an identity is present but its
// permission labels do not intersect the required set.
var ErrPermissionDenied = errors.New("you don't have sufficient permissions", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodePermissionDenied)

// ErrInvalidPassword is the signin failure for a known email with a bad
// password. Kept distinct from the not-found failure on purpose.
var ErrInvalidPassword = errors.New("invalid password", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPassword)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrPasswordMismatch is returned when password and confirmation differ
var ErrPasswordMismatch = errors.New("your passwords don't match", errors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch)

// ErrResetTokenInvalid covers both unknown and expired reset tokens
var ErrResetTokenInvalid = errors.New("this token is either invalid or expired", errors.CategoryValidation).
	WithTextCode(TextCodeResetTokenInvalid)

// ErrTokenExpired is the session token expiry error
var ErrTokenExpired = errors.New("session token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is the session token decode error
var ErrTokenMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionDecodeError)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
