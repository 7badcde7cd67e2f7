package model

import "time"

// Comment is a user comment on a product.
type Comment struct {
	ID        uint64    `db:"id" json:"_id"`
	ProductID uint64    `db:"product_id" json:"product"`
	OwnerID   uint64    `db:"owner_id" json:"owner"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CommentWithOwner is a comment joined with its author's summary.
type CommentWithOwner struct {
	ID        uint64      `db:"id" json:"_id"`
	ProductID uint64      `db:"product_id" json:"product"`
	Content   string      `db:"content" json:"content"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
	Owner     UserSummary `db:"owner" json:"owner"`
}
