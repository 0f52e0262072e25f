package storefront

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Items interface {
	repository.Repository[*Item]

	Create(ctx context.Context, record *Item, criteria ...repository.InsertCriteria) (*Item, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Item, criteria ...repository.InsertCriteria) (*Item, error)
	GetProjection(ctx context.Context, id string) (*Item, error)
	ListPage(ctx context.Context, limit, offset int) ([]*Item, error)
	DeleteByID(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type items struct {
	repository.Repository[*Item]
	db *bun.DB
}

var (
	_ Items                        = (*items)(nil)
	_ repository.Repository[*Item] = (*items)(nil)
)

func NewItemsRepository(db *bun.DB) Items {
	repo := repository.NewRepository[*Item](db, repository.ModelHandlers[*Item]{
		NewRecord: func() *Item { return &Item{} },
		GetID: func(i *Item) uuid.UUID {
			if i == nil {
				return uuid.Nil
			}
			return i.ID
		},
		SetID: func(i *Item, id uuid.UUID) {
			if i != nil {
				i.ID = id
			}
		},
	})

	return &items{
		Repository: repo,
		db:         db,
	}
}

func (a *items) Create(ctx context.Context, record *Item, criteria ...repository.InsertCriteria) (*Item, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *items) CreateTx(ctx context.Context, tx bun.IDB, record *Item, criteria ...repository.InsertCriteria) (*Item, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// GetProjection fetches the fields deletion reports back: id, title, owner.
func (a *items) GetProjection(ctx context.Context, id string) (*Item, error) {
	record := &Item{}
	err := a.db.NewSelect().Model(record).
		Column("id", "title", "user_id").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id,
				})
		}
		return nil, err
	}

	return record, nil
}

// ListPage returns newest-first pages for the storefront listing.
func (a *items) ListPage(ctx context.Context, limit, offset int) ([]*Item, error) {
	if limit <= 0 {
		limit = 25
	}

	var records []*Item
	err := a.db.NewSelect().Model(&records).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

func (a *items) DeleteByID(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if tx == nil {
		tx = a.db
	}

	_, err := tx.NewDelete().Model((*Item)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	return err
}
