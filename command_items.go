package storefront

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CreateItemMessage struct {
	Actor       *User
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	LargeImage  string `json:"large_image"`
	Price       int64  `json:"price"`
	OnResponse  func(item *Item)
}

func (e CreateItemMessage) Type() string { return "item.create" }

type CreateItemHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewCreateItemHandler creates a handler with sane defaults.
func NewCreateItemHandler(repo RepositoryManager) *CreateItemHandler {
	return &CreateItemHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *CreateItemHandler) WithLogger(logger Logger) *CreateItemHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CreateItemHandler) Execute(ctx context.Context, event CreateItemMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during item creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateItemHandler) execute(ctx context.Context, event CreateItemMessage) error {
	if event.Actor == nil {
		return ErrAuthenticationRequired
	}

	item := &Item{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		item.Title = event.Title
		item.Description = event.Description
		item.Image = event.Image
		item.LargeImage = event.LargeImage
		item.Price = event.Price
		// ownership binds to the caller here and is never reassigned
		item.UserID = event.Actor.ID

		var err error
		if item, err = h.repo.Items().CreateTx(ctx, tx, item); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create item")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "item creation transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(item)
	}

	return nil
}

// ItemPatch is the explicit allow-list of mutable item fields. Anything not
// listed here cannot be persisted through an update, no matter what the
// request body carries.
type ItemPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	LargeImage  *string `json:"large_image,omitempty"`
	Price       *int64  `json:"price,omitempty"`
}

// IsEmpty reports whether the patch carries no changes
func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Image == nil &&
		p.LargeImage == nil && p.Price == nil
}

type UpdateItemMessage struct {
	ID         string    `json:"id"`
	Patch      ItemPatch `json:"patch"`
	OnResponse func(item *Item)
}

func (e UpdateItemMessage) Type() string { return "item.update" }

// UpdateItemHandler applies an item patch.
// NOTE: unlike deletion, updates perform no ownership or permission check;
// any authenticated caller can patch any item. Kept as-is deliberately, the
// asymmetry with DeleteItemHandler is known.
type UpdateItemHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewUpdateItemHandler creates a handler with sane defaults.
func NewUpdateItemHandler(repo RepositoryManager) *UpdateItemHandler {
	return &UpdateItemHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateItemHandler) WithLogger(logger Logger) *UpdateItemHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateItemHandler) Execute(ctx context.Context, event UpdateItemMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during item update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateItemHandler) execute(ctx context.Context, event UpdateItemMessage) error {
	if event.Patch.IsEmpty() {
		return goerrors.New("no updatable fields in patch", goerrors.CategoryValidation)
	}

	item := &Item{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Items().GetByID(ctx, event.ID); err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("no such item", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound).
					WithMetadata(map[string]any{"id": event.ID})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve item for update")
		}

		q := tx.NewUpdate().Model((*Item)(nil)).Where("id = ?", event.ID)
		if event.Patch.Title != nil {
			q = q.Set("title = ?", *event.Patch.Title)
		}
		if event.Patch.Description != nil {
			q = q.Set("description = ?", *event.Patch.Description)
		}
		if event.Patch.Image != nil {
			q = q.Set("image = ?", *event.Patch.Image)
		}
		if event.Patch.LargeImage != nil {
			q = q.Set("large_image = ?", *event.Patch.LargeImage)
		}
		if event.Patch.Price != nil {
			q = q.Set("price = ?", *event.Patch.Price)
		}
		q = q.Set("updated_at = ?", time.Now())

		if _, err := q.Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update item")
		}

		updated := &Item{}
		if err := tx.NewSelect().Model(updated).
			Where("?TableAlias.id = ?", event.ID).
			Limit(1).
			Scan(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reload updated item")
		}

		item = updated
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "item update transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(item)
	}

	return nil
}

type DeleteItemMessage struct {
	Actor      *User
	ID         string `json:"id"`
	OnResponse func(item *Item)
}

func (e DeleteItemMessage) Type() string { return "item.delete" }

type DeleteItemHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewDeleteItemHandler creates a handler with sane defaults.
func NewDeleteItemHandler(repo RepositoryManager) *DeleteItemHandler {
	return &DeleteItemHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *DeleteItemHandler) WithLogger(logger Logger) *DeleteItemHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *DeleteItemHandler) Execute(ctx context.Context, event DeleteItemMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during item deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteItemHandler) execute(ctx context.Context, event DeleteItemMessage) error {
	if event.Actor == nil {
		return ErrAuthenticationRequired
	}

	item := &Item{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		found, err := h.repo.Items().GetProjection(ctx, event.ID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("no such item", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound).
					WithMetadata(map[string]any{"id": event.ID})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve item for deletion")
		}

		ownsItem := found.UserID != uuid.Nil && found.UserID == event.Actor.ID
		if !ownsItem {
			if err := Authorize(event.Actor, PermissionAdmin, PermissionItemDelete); err != nil {
				return err
			}
		}

		if err := h.repo.Items().DeleteByID(ctx, tx, found.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete item")
		}

		item = found
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "item deletion transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(item)
	}

	return nil
}
