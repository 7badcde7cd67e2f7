package model

import "time"

// Like targets either a product or a comment; exactly one of ProductID and
// CommentID is set.
type Like struct {
	ID        uint64    `db:"id" json:"_id"`
	OwnerID   uint64    `db:"owner_id" json:"likedBy"`
	ProductID *uint64   `db:"product_id" json:"product,omitempty"`
	CommentID *uint64   `db:"comment_id" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// LikeTarget selects the kind of object a like points at.
type LikeTarget string

const (
	LikeProduct LikeTarget = "product"
	LikeComment LikeTarget = "comment"
)

// ProductLikes is the like counter view of a product for the current user.
type ProductLikes struct {
	TotalLikes  int  `json:"totalLikes"`
	IsUserLiked bool `json:"isUserLiked"`
}

// LikedProduct is a product like joined with the product and its owner.
type LikedProduct struct {
	ID        uint64          `db:"id" json:"_id"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	Product   ProductListItem `db:"product" json:"product"`
}
