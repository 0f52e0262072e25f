package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther verifies credentials against the users repository and mints
// session tokens.
type Auther struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	duration := SessionTokenDuration
	if cfg.GetTokenExpiration() > 0 {
		duration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	tokens := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		duration,
		cfg.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Signin checks the email and password and returns the user with a fresh
// session token. The not-found and bad-password failures stay
// distinguishable: clients surface different messages for each.
func (s *Auther) Signin(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, "", errors.New(
				fmt.Sprintf("no such user found for email %s", NormalizeEmail(email)),
				errors.CategoryNotFound,
			).WithCode(errors.CodeNotFound)
		}
		s.logger.Error("Signin user lookup error", "error", err)
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during signin")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, "", ErrInvalidPassword
	}

	token, err := s.tokens.Generate(user.ID.String())
	if err != nil {
		s.logger.Error("Signin token generation error", "error", err)
		return nil, "", err
	}

	return user, token, nil
}

// TokenForUser mints a session token for an already verified user, the path
// signup and resetPassword take after their own checks.
func (s *Auther) TokenForUser(user *User) (string, error) {
	if user == nil {
		return "", errors.New("cannot issue token for nil user", errors.CategoryInternal)
	}
	return s.tokens.Generate(user.ID.String())
}
