package model

import "time"

// Product is a listing in the `products` table.  Images and categories are
// stored in the product_images and product_categories tables and attached
// by the repository.
type Product struct {
	ID          uint64    `db:"id" json:"_id"`
	OwnerID     uint64    `db:"owner_id" json:"owner"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
	Gender      string    `db:"gender" json:"gender"`
	Images      []string  `db:"-" json:"image"`
	Categories  []uint64  `db:"-" json:"category"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ProductListItem is a product joined with its owner's summary, as returned
// by listing and detail endpoints.
type ProductListItem struct {
	ID          uint64      `db:"id" json:"_id"`
	Title       string      `db:"title" json:"title"`
	Description string      `db:"description" json:"description,omitempty"`
	Price       float64     `db:"price" json:"price"`
	Gender      string      `db:"gender" json:"gender"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	Owner       UserSummary `db:"owner" json:"owner"`
	Images      []string    `db:"-" json:"image"`
	Categories  []uint64    `db:"-" json:"category,omitempty"`
}

// ProductFilter carries the listing query parameters.
type ProductFilter struct {
	Page    int
	Limit   int
	Query   string
	SortBy  string
	SortAsc bool
	Gender  string
	OwnerID uint64
}

// ProductUpdate holds the optional fields of a product update; nil means
// "leave unchanged".
type ProductUpdate struct {
	Title       *string
	Description *string
	Gender      *string
	Price       *float64
}

// Empty reports whether no field is set.
func (u ProductUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Gender == nil && u.Price == nil
}
