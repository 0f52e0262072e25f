package storefront

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

// DefaultCookieName is the cookie carrying the session token
const DefaultCookieName = "token"

// SessionMiddleware decodes the session cookie into an identity on the
// request context. It never rejects a request: a missing, malformed, or
// expired cookie degrades to anonymous and the operations that actually need
// identity fail on their own terms.
type SessionMiddleware struct {
	tokens     TokenService
	users      Users
	cookieName string
	logger     Logger
}

func NewSessionMiddleware(tokens TokenService, users Users, cookieName string) *SessionMiddleware {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &SessionMiddleware{
		tokens:     tokens,
		users:      users,
		cookieName: cookieName,
		logger:     defLogger{},
	}
}

func (m *SessionMiddleware) WithLogger(logger Logger) *SessionMiddleware {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Handler returns the middleware. Stage one validates the cookie into
// claims; stage two resolves the embedded identifier to the minimal user
// projection. Both land on the request context.
func (m *SessionMiddleware) Handler() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			raw := c.Cookies(m.cookieName)
			if raw == "" {
				return next(c)
			}

			claims, err := m.tokens.Validate(raw)
			if err != nil {
				switch {
				case IsTokenExpiredError(err):
					m.logger.Debug("session cookie expired, proceeding anonymous")
				case IsMalformedError(err):
					m.logger.Debug("session cookie malformed, proceeding anonymous")
				default:
					m.logger.Debug("session cookie rejected, proceeding anonymous", "error", err)
				}
				return next(c)
			}

			ctx := WithClaimsContext(c.Context(), claims)

			user, err := m.users.GetSessionUser(ctx, claims.UserID())
			if err != nil {
				// a stale cookie for a deleted account is anonymous,
				// store failures still propagate
				if repository.IsRecordNotFound(err) {
					c.SetContext(ctx)
					return next(c)
				}
				m.logger.Error("session user lookup failed", "error", err)
				return errors.Wrap(err, errors.CategoryInternal, "failed to resolve session user")
			}

			ctx = WithContext(ctx, user)
			c.SetContext(ctx)

			return next(c)
		}
	}
}
