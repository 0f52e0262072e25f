package storefront

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Permission is a named capability label attached to a user
type Permission = string

const (
	// PermissionUser is the baseline label every account gets at signup
	PermissionUser Permission = "USER"
	// PermissionAdmin grants every privileged operation
	PermissionAdmin Permission = "ADMIN"
	// PermissionItemCreate allows creating items
	PermissionItemCreate Permission = "ITEMCREATE"
	// PermissionItemUpdate allows updating items
	PermissionItemUpdate Permission = "ITEMUPDATE"
	// PermissionItemDelete allows deleting items the caller does not own
	PermissionItemDelete Permission = "ITEMDELETE"
	// PermissionPermissionUpdate allows rewriting another user's labels
	PermissionPermissionUpdate Permission = "PERMISSIONUPDATE"
)

// User is the account model
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name             string       `bun:"name,notnull" json:"name,omitempty"`
	Email            string       `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash     string       `bun:"password_hash,notnull" json:"-"`
	Permissions      []Permission `bun:"permissions" json:"permissions,omitempty"`
	ResetToken       string       `bun:"reset_token,nullzero" json:"-"`
	ResetTokenExpiry *time.Time   `bun:"reset_token_expiry,nullzero" json:"-"`
	CreatedAt        *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasPermission reports whether any of the given labels is on the user
func (u *User) HasPermission(required ...Permission) bool {
	if u == nil {
		return false
	}
	for _, need := range required {
		for _, have := range u.Permissions {
			if have == need {
				return true
			}
		}
	}
	return false
}

// Item is a product listing. Ownership is bound at creation and never
// reassigned afterwards.
type Item struct {
	bun.BaseModel `bun:"table:items,alias:itm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Image         string     `bun:"image" json:"image,omitempty"`
	LargeImage    string     `bun:"large_image" json:"large_image,omitempty"`
	Price         int64      `bun:"price,notnull" json:"price"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// CartItem joins a user and an item with a quantity. At most one row exists
// per (user, item) pair; repeated adds increment quantity instead.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items,alias:crt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	ItemID        uuid.UUID  `bun:"item_id,notnull,type:uuid" json:"item_id,omitempty"`
	Quantity      int        `bun:"quantity,notnull,default:1" json:"quantity"`
	Item          *Item      `bun:"rel:belongs-to,join:item_id=id" json:"item,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
