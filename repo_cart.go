package storefront

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IncrementCartItemSQL bumps the quantity at the store boundary. The
// read-increment-write alternative can lose concurrent adds; doing the
// arithmetic in SQL keeps every add counted.
var IncrementCartItemSQL = `UPDATE "cart_items" AS "crt"
SET
	"quantity" = "quantity" + 1
WHERE (
	"crt"."id" = ?
) RETURNING *;`

type CartItems interface {
	repository.Repository[*CartItem]

	GetForUserAndItem(ctx context.Context, tx bun.IDB, userID, itemID uuid.UUID) (*CartItem, error)
	Increment(ctx context.Context, tx bun.IDB, id uuid.UUID) (*CartItem, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *CartItem, criteria ...repository.InsertCriteria) (*CartItem, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*CartItem, error)
	DeleteByID(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type cartItems struct {
	repository.Repository[*CartItem]
	db *bun.DB
}

var (
	_ CartItems                        = (*cartItems)(nil)
	_ repository.Repository[*CartItem] = (*cartItems)(nil)
)

func NewCartItemsRepository(db *bun.DB) CartItems {
	repo := repository.NewRepository[*CartItem](db, repository.ModelHandlers[*CartItem]{
		NewRecord: func() *CartItem { return &CartItem{} },
		GetID: func(c *CartItem) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *CartItem, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &cartItems{
		Repository: repo,
		db:         db,
	}
}

func (a *cartItems) GetForUserAndItem(ctx context.Context, tx bun.IDB, userID, itemID uuid.UUID) (*CartItem, error) {
	if tx == nil {
		tx = a.db
	}

	record := &CartItem{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.item_id = ?", itemID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
					"item_id": itemID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *cartItems) Increment(ctx context.Context, tx bun.IDB, id uuid.UUID) (*CartItem, error) {
	if tx == nil {
		tx = a.db
	}

	res, err := a.Repository.RawTx(ctx, tx, IncrementCartItemSQL, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *cartItems) CreateTx(ctx context.Context, tx bun.IDB, record *CartItem, criteria ...repository.InsertCriteria) (*CartItem, error) {
	if record != nil {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		if record.Quantity < 1 {
			record.Quantity = 1
		}
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *cartItems) ListForUser(ctx context.Context, userID uuid.UUID) ([]*CartItem, error) {
	var records []*CartItem
	err := a.db.NewSelect().Model(&records).
		Relation("Item").
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *cartItems) DeleteByID(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if tx == nil {
		tx = a.db
	}

	_, err := tx.NewDelete().Model((*CartItem)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	return err
}
