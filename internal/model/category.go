package model

// Category groups products.  Titles are unique.
type Category struct {
	ID    uint64 `db:"id" json:"_id"`
	Title string `db:"title" json:"title"`
	Image string `db:"image" json:"image"`
}

// CategoryWithProducts is a category together with the products linked to it.
type CategoryWithProducts struct {
	Category
	Products []ProductListItem `json:"products"`
}
