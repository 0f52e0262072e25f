package storefront

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	UseHashid  bool
	OnResponse func(user *User)
}

func (e SignupMessage) Type() string { return "user.signup" }

type SignupHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewSignupHandler creates a handler with sane defaults.
func NewSignupHandler(repo RepositoryManager) *SignupHandler {
	return &SignupHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *SignupHandler) WithLogger(logger Logger) *SignupHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	user := &User{}
	email := NormalizeEmail(event.Email)
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.Name = event.Name
		user.Email = email
		user.PasswordHash = hash
		user.Permissions = []Permission{PermissionUser}
		if event.UseHashid {
			if id, err := hashid.NewUUID(user.Email); err == nil {
				user.ID = id
			}
		}

		// email uniqueness is delegated to the unique constraint.
		// CreateTx returns nil on failure, the metadata reads the local
		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user").
				WithMetadata(map[string]any{"email": email})
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
