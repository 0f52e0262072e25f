package storefront

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ResetUserPasswordSQL swaps the password hash and consumes the reset token
// in one statement so a token can never survive the update it authorized.
var ResetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_token" = NULL,
	"reset_token_expiry" = NULL
WHERE (
	"usr"."id" = ?
) RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetSessionUser(ctx context.Context, id string) (*User, error)
	ListAll(ctx context.Context) ([]*User, error)
	FindByResetToken(ctx context.Context, tx bun.IDB, token string) (*User, error)
	SetResetToken(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiry time.Time) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) (*User, error)
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	email = NormalizeEmail(email)

	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

// GetSessionUser fetches the minimal projection the session middleware
// attaches to each request.
func (a *users) GetSessionUser(ctx context.Context, id string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).
		Column("id", "email", "name", "permissions").
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

// ListAll returns every account with its permission set. Callers gate access,
// the projection leaves out credentials and reset state.
func (a *users) ListAll(ctx context.Context) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().Model(&records).
		Column("id", "email", "name", "permissions", "created_at", "updated_at").
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	return records, nil
}

// FindByResetToken matches a user on the exact token within the validity
// window.
// NOTE: the window is computed as reset_token_expiry >= now()-1h, a boundary
// shifted from read time instead of a plain expiry check. Since the stored
// expiry is already issuance+1h this accepts tokens for up to two hours after
// issuance. TODO: re-derive the intended boundary with the frontend team
// before tightening; clients currently rely on the wide window.
func (a *users) FindByResetToken(ctx context.Context, tx bun.IDB, token string) (*User, error) {
	if tx == nil {
		tx = a.db
	}

	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.reset_token = ?", token).
		Where("?TableAlias.reset_token_expiry >= ?", time.Now().Add(-ResetTokenDuration)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrResetTokenInvalid
		}
		return nil, err
	}

	return record, nil
}

func (a *users) SetResetToken(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiry time.Time) error {
	if tx == nil {
		tx = a.db
	}

	_, err := tx.NewUpdate().Model((*User)(nil)).
		Set("reset_token = ?", token).
		Set("reset_token_expiry = ?", expiry).
		Where("id = ?", id).
		Exec(ctx)

	return err
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) (*User, error) {
	return a.ResetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, ResetUserPasswordSQL, passwordHash, id.String())
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

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if len(record.Permissions) == 0 {
		record.Permissions = []Permission{PermissionUser}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

// NormalizeEmail lowercases and trims an email address so lookups and the
// unique constraint agree on one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
