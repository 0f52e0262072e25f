package storefront

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	Items() Items
	CartItems() CartItems
}

type mngr struct {
	db        *bun.DB
	users     Users
	items     Items
	cartItems CartItems
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:        db,
		users:     NewUsersRepository(db),
		items:     NewItemsRepository(db),
		cartItems: NewCartItemsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.items == nil {
		return errors.New("repository items should be initialized")
	}

	if m.cartItems == nil {
		return errors.New("repository cartItems should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Items() Items {
	return m.items
}

func (m mngr) CartItems() CartItems {
	return m.cartItems
}
