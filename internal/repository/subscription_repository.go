package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/chobar-cart/internal/model"
)

// ErrSelfSubscription is returned when a user tries to follow themselves.
var ErrSelfSubscription = errors.New("cannot subscribe to own account")

type SubscriptionRepo struct{ db *sqlx.DB }

func NewSubscriptionRepo(db *sqlx.DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// Create makes subscriberID follow accountID.  Following twice returns
// ErrDuplicate; an unknown account returns ErrNotFound.
func (r *SubscriptionRepo) Create(ctx context.Context, subscriberID, accountID uint64) (*model.Subscription, error) {
	if subscriberID == accountID {
		return nil, ErrSelfSubscription
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO subscriptions (subscriber_id, account_id) VALUES (?,?)", subscriberID, accountID)
	if err != nil {
		switch {
		case isDuplicate(err):
			return nil, ErrDuplicate
		case isMissingReference(err):
			return nil, ErrNotFound
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	var s model.Subscription
	err = r.db.GetContext(ctx, &s,
		"SELECT id, subscriber_id, account_id, created_at FROM subscriptions WHERE id=?", id)
	return &s, err
}

// Delete stops subscriberID following accountID.  ErrNotFound when no such
// subscription exists.
func (r *SubscriptionRepo) Delete(ctx context.Context, subscriberID, accountID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE subscriber_id=? AND account_id=?", subscriberID, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const subscriptionEntrySelect = "SELECT s.id, s.created_at, " +
	"u.id AS `user.id`, u.username AS `user.username`, " +
	"u.full_name AS `user.full_name`, u.avatar AS `user.avatar` FROM subscriptions s "

// ListSubscribedTo returns the accounts subscriberID follows.
func (r *SubscriptionRepo) ListSubscribedTo(ctx context.Context, subscriberID uint64) ([]model.SubscriptionEntry, error) {
	out := []model.SubscriptionEntry{}
	err := r.db.SelectContext(ctx, &out, subscriptionEntrySelect+
		"JOIN users u ON u.id = s.account_id WHERE s.subscriber_id = ? ORDER BY s.created_at DESC, s.id DESC",
		subscriberID)
	return out, err
}

// ListSubscribers returns the users following accountID.
func (r *SubscriptionRepo) ListSubscribers(ctx context.Context, accountID uint64) ([]model.SubscriptionEntry, error) {
	out := []model.SubscriptionEntry{}
	err := r.db.SelectContext(ctx, &out, subscriptionEntrySelect+
		"JOIN users u ON u.id = s.subscriber_id WHERE s.account_id = ? ORDER BY s.created_at DESC, s.id DESC",
		accountID)
	return out, err
}
