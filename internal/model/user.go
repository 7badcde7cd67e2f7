package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Only the SHA-256 digest of the current refresh token is kept;
// a NULL digest means the user has no active session.
type User struct {
	ID               uint64    `db:"id" json:"_id"`
	FullName         string    `db:"full_name" json:"fullName"`
	Username         string    `db:"username" json:"username"`
	Email            string    `db:"email" json:"email"`
	PhoneNo          string    `db:"phone_no" json:"phoneNo"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Avatar           string    `db:"avatar" json:"avatar"`
	RefreshTokenHash *string   `db:"refresh_token_hash" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the projection embedded in product, comment, like and
// subscription listings.
type UserSummary struct {
	ID       uint64 `db:"id" json:"_id"`
	Username string `db:"username" json:"username"`
	FullName string `db:"full_name" json:"fullName"`
	Avatar   string `db:"avatar" json:"avatar"`
}

// CurrentUser is returned by the current-user endpoint: the user plus the
// products in their cart.
type CurrentUser struct {
	User
	Cart []uint64 `json:"cart"`
}

// AccountProfile is the public view of an account with follow statistics
// relative to the viewing user.
type AccountProfile struct {
	ID                uint64    `db:"id" json:"_id"`
	Username          string    `db:"username" json:"username"`
	FullName          string    `db:"full_name" json:"fullName"`
	Email             string    `db:"email" json:"email"`
	Avatar            string    `db:"avatar" json:"avatar"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	SubscribersCount  int       `db:"subscribers_count" json:"subscribersCount"`
	SubscribedToCount int       `db:"subscribed_to_count" json:"subscribedToCount"`
	IsSubscribed      bool      `db:"is_subscribed" json:"isSubscribed"`
	ProductsCount     int       `db:"products_count" json:"productsCount"`
}
