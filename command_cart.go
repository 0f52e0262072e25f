package storefront

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AddToCartMessage struct {
	Actor      *User
	ItemID     string `json:"item_id"`
	OnResponse func(cartItem *CartItem)
}

func (e AddToCartMessage) Type() string { return "cart.add" }

type AddToCartHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewAddToCartHandler creates a handler with sane defaults.
func NewAddToCartHandler(repo RepositoryManager) *AddToCartHandler {
	return &AddToCartHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *AddToCartHandler) WithLogger(logger Logger) *AddToCartHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *AddToCartHandler) Execute(ctx context.Context, event AddToCartMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during cart update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *AddToCartHandler) execute(ctx context.Context, event AddToCartMessage) error {
	if event.Actor == nil {
		return ErrAuthenticationRequired
	}

	itemID, err := uuid.Parse(event.ItemID)
	if err != nil {
		return goerrors.New("invalid item identifier", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"item_id": event.ItemID})
	}

	cartItem := &CartItem{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.CartItems().GetForUserAndItem(ctx, tx, event.Actor.ID, itemID)
		if err == nil {
			// repeated add bumps quantity in the store, no read-modify-write
			if cartItem, err = h.repo.CartItems().Increment(ctx, tx, existing.ID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to increment cart item")
			}
			return nil
		}

		if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up cart item")
		}

		record := &CartItem{
			UserID:   event.Actor.ID,
			ItemID:   itemID,
			Quantity: 1,
		}

		// a concurrent first add loses to the unique (user_id, item_id)
		// index and surfaces as a conflict
		if cartItem, err = h.repo.CartItems().CreateTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create cart item")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "cart transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(cartItem)
	}

	return nil
}

type RemoveFromCartMessage struct {
	Actor      *User
	ID         string `json:"id"`
	OnResponse func(cartItem *CartItem)
}

func (e RemoveFromCartMessage) Type() string { return "cart.remove" }

type RemoveFromCartHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewRemoveFromCartHandler creates a handler with sane defaults.
func NewRemoveFromCartHandler(repo RepositoryManager) *RemoveFromCartHandler {
	return &RemoveFromCartHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RemoveFromCartHandler) WithLogger(logger Logger) *RemoveFromCartHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RemoveFromCartHandler) Execute(ctx context.Context, event RemoveFromCartMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during cart removal",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RemoveFromCartHandler) execute(ctx context.Context, event RemoveFromCartMessage) error {
	if event.Actor == nil {
		return ErrAuthenticationRequired
	}

	cartItem := &CartItem{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		found, err := h.repo.CartItems().GetByID(ctx, event.ID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("no such cart item", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound).
					WithMetadata(map[string]any{"id": event.ID})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve cart item")
		}

		if found.UserID != event.Actor.ID {
			return goerrors.New("you can only remove your own cart items", goerrors.CategoryAuthz).
				WithCode(goerrors.CodeForbidden).
				WithTextCode(TextCodePermissionDenied)
		}

		if err := h.repo.CartItems().DeleteByID(ctx, tx, found.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete cart item")
		}

		cartItem = found
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "cart removal transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(cartItem)
	}

	return nil
}
