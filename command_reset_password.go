package storefront

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ResetPasswordMessage struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	ResetToken      string `json:"reset_token"`
	OnResponse      func(user *User)
}

func (e ResetPasswordMessage) Type() string { return "user.password_reset" }

type ResetPasswordHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewResetPasswordHandler creates a handler with sane defaults.
func NewResetPasswordHandler(repo RepositoryManager) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	// confirmation mismatch fails before any store access
	if event.Password != event.ConfirmPassword {
		return ErrPasswordMismatch
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		match, err := h.repo.Users().FindByResetToken(ctx, tx, event.ResetToken)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve reset token")
		}

		// the select already filters on the window, this re-checks the row
		// actually fetched
		if match.ResetTokenExpiry != nil {
			expired, err := IsOutsideThresholdPeriod(*match.ResetTokenExpiry, "1h")
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "error parsing period")
			}
			if expired {
				return ErrResetTokenInvalid
			}
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		// token fields are cleared by the same statement that swaps the hash
		if user, err = h.repo.Users().ResetPasswordTx(ctx, tx, match.ID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
