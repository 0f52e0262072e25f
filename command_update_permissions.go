package storefront

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type UpdatePermissionsMessage struct {
	Actor       *User
	UserID      string       `json:"user_id"`
	Permissions []Permission `json:"permissions"`
	OnResponse  func(user *User)
}

func (e UpdatePermissionsMessage) Type() string { return "user.update_permissions" }

type UpdatePermissionsHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewUpdatePermissionsHandler creates a handler with sane defaults.
func NewUpdatePermissionsHandler(repo RepositoryManager) *UpdatePermissionsHandler {
	return &UpdatePermissionsHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *UpdatePermissionsHandler) WithLogger(logger Logger) *UpdatePermissionsHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdatePermissionsHandler) Execute(ctx context.Context, event UpdatePermissionsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during permission update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePermissionsHandler) execute(ctx context.Context, event UpdatePermissionsMessage) error {
	if err := Authorize(event.Actor, PermissionAdmin, PermissionPermissionUpdate); err != nil {
		return err
	}

	for _, p := range event.Permissions {
		if !IsValidPermission(p) {
			return goerrors.New("unknown permission label", goerrors.CategoryValidation).
				WithMetadata(map[string]any{"permission": p})
		}
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		target, err := h.repo.Users().GetByID(ctx, event.UserID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("no such user", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound).
					WithMetadata(map[string]any{"user_id": event.UserID})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for permission update")
		}

		// wholesale replacement, not a merge
		target.Permissions = event.Permissions

		if user, err = h.repo.Users().UpdateTx(ctx, tx, target, repository.UpdateByID(target.ID.String())); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user permissions")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "permission update transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
