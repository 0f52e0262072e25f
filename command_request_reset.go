package storefront

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// resetTokenBytes is the raw entropy behind the hex-encoded reset token
const resetTokenBytes = 20

type RequestResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *RequestResetResponse)
}

func (e RequestResetMessage) Type() string { return "user.password_reset_request" }

type RequestResetResponse struct {
	Message string `json:"message"`
}

type RequestResetHandler struct {
	repo        RepositoryManager
	mailer      Mailer
	frontendURL string
	logger      Logger
}

// NewRequestResetHandler creates a handler with sane defaults.
func NewRequestResetHandler(repo RepositoryManager, mailer Mailer, frontendURL string) *RequestResetHandler {
	return &RequestResetHandler{
		repo:        repo,
		mailer:      mailer,
		frontendURL: frontendURL,
		logger:      defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RequestResetHandler) WithLogger(logger Logger) *RequestResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestResetHandler) Execute(ctx context.Context, event RequestResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestResetHandler) execute(ctx context.Context, event RequestResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// The token persist and the mail dispatch share one transaction: a
	// delivery failure rolls the token back so no orphaned token is left
	// pointing at a mail nobody received.
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New(
					fmt.Sprintf("no such user found for email %s", NormalizeEmail(event.Email)),
					goerrors.CategoryNotFound,
				).WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		token, err := generateResetToken()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
		}

		expiry := time.Now().Add(ResetTokenDuration)
		if err := h.repo.Users().SetResetToken(ctx, tx, user.ID, token, expiry); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist reset token")
		}

		if err := h.mailer.SendPasswordReset(ctx, user.Email, ResetURL(h.frontendURL, token)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to deliver reset email")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RequestResetResponse{Message: "Thanks!"})
	}

	return nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
