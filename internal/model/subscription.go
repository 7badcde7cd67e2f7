package model

import "time"

// Subscription records that Subscriber follows Account.
type Subscription struct {
	ID           uint64    `db:"id" json:"_id"`
	SubscriberID uint64    `db:"subscriber_id" json:"subscriber"`
	AccountID    uint64    `db:"account_id" json:"account"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// SubscriptionEntry is a subscription joined with the other side's summary:
// the followed account when listing who a user follows, the follower when
// listing an account's subscribers.
type SubscriptionEntry struct {
	ID        uint64      `db:"id" json:"_id"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	User      UserSummary `db:"user" json:"user"`
}
