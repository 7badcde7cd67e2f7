package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/chobar-cart/internal/model"
)

const userColumns = `id, full_name, username, email, phone_no, password_hash, avatar,
	refresh_token_hash, created_at, updated_at`

// UserRepo is the credential store.  It owns the users and cart_items
// tables and is the only place the stored refresh token is mutated.
type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u and sets its ID.  A unique key violation on username,
// email or phone returns ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (full_name, username, email, phone_no, password_hash, avatar)
		 VALUES (?,?,?,?,?,?)`,
		u.FullName, u.Username, u.Email, u.PhoneNo, u.PasswordHash, u.Avatar)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByLogin fetches a user whose email, username or phone number equals login.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	lower := strings.ToLower(login)
	return r.getOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR username=? OR phone_no=? LIMIT 1",
		lower, lower, login)
}

func (r *UserRepo) getOne(ctx context.Context, q string, args ...any) (*model.User, error) {
	var u model.User
	if err := r.db.GetContext(ctx, &u, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ExistsByIdentity reports whether any user already has the email, phone
// number or username.
func (r *UserRepo) ExistsByIdentity(ctx context.Context, email, phone, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email=? OR phone_no=? OR username=?)",
		strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(phone),
		strings.ToLower(strings.TrimSpace(username)))
	return exists, err
}

// UsernameTaken reports whether username is in use.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username=?)",
		strings.ToLower(strings.TrimSpace(username)))
	return exists, err
}

// SetRefreshToken overwrites the stored refresh token digest.  Used at login
// where any previous session is replaced.
func (r *UserRepo) SetRefreshToken(ctx context.Context, userID uint64, hash string) error {
	return r.execOne(ctx, "UPDATE users SET refresh_token_hash=? WHERE id=?", hash, userID)
}

// SwapRefreshToken replaces oldHash with newHash in a single conditional
// update.  When the stored digest is no longer oldHash (rotated, cleared or
// the user is gone) nothing changes and ErrRefreshTokenMismatch is returned.
// Of several concurrent swaps of the same oldHash at most one succeeds.
func (r *UserRepo) SwapRefreshToken(ctx context.Context, userID uint64, oldHash, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE id=? AND refresh_token_hash=?",
		newHash, userID, oldHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

// ClearRefreshToken ends the user's session.  Clearing an already empty
// token is not an error.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET refresh_token_hash=NULL WHERE id=?", userID)
	return err
}

// UpdatePassword stores a new password hash and drops the refresh token.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, hash string) error {
	return r.execOne(ctx,
		"UPDATE users SET password_hash=?, refresh_token_hash=NULL WHERE id=?", hash, userID)
}

// UpdateAccount changes the display name and email.
func (r *UserRepo) UpdateAccount(ctx context.Context, userID uint64, fullName, email string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET full_name=?, email=? WHERE id=?",
		strings.TrimSpace(fullName), strings.ToLower(strings.TrimSpace(email)), userID)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateAvatar stores a new avatar url and returns the previous one.
func (r *UserRepo) UpdateAvatar(ctx context.Context, userID uint64, url string) (string, error) {
	var prev string
	if err := r.db.GetContext(ctx, &prev, "SELECT avatar FROM users WHERE id=?", userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE users SET avatar=? WHERE id=?", url, userID); err != nil {
		return "", err
	}
	return prev, nil
}

// AddToCart puts a product in the user's cart.  Adding twice is a no-op;
// an unknown product returns ErrNotFound.
func (r *UserRepo) AddToCart(ctx context.Context, userID, productID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO cart_items (user_id, product_id)
		 SELECT ?, id FROM products WHERE id=?`, userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM products WHERE id=?)", productID); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// RemoveFromCart takes a product out of the cart.  Returns ErrNotFound when
// the product was not in it.
func (r *UserRepo) RemoveFromCart(ctx context.Context, userID, productID uint64) error {
	return r.execOne(ctx, "DELETE FROM cart_items WHERE user_id=? AND product_id=?", userID, productID)
}

// CartProductIDs lists the products in the user's cart, oldest first.
func (r *UserRepo) CartProductIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.db.SelectContext(ctx, &ids,
		"SELECT product_id FROM cart_items WHERE user_id=? ORDER BY added_at, product_id", userID)
	return ids, err
}

// Profile returns the public profile of username with subscription counts
// and whether viewerID follows it.
func (r *UserRepo) Profile(ctx context.Context, username string, viewerID uint64) (*model.AccountProfile, error) {
	const q = `SELECT u.id, u.username, u.full_name, u.email, u.avatar, u.created_at,
	       (SELECT COUNT(*) FROM subscriptions s WHERE s.account_id = u.id)    AS subscribers_count,
	       (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
	       EXISTS(SELECT 1 FROM subscriptions s
	              WHERE s.account_id = u.id AND s.subscriber_id = ?)           AS is_subscribed,
	       (SELECT COUNT(*) FROM products p WHERE p.owner_id = u.id)           AS products_count
	FROM users u WHERE u.username = ? LIMIT 1`
	var p model.AccountProfile
	if err := r.db.GetContext(ctx, &p, q, viewerID, strings.ToLower(strings.TrimSpace(username))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// execOne runs a statement that must touch a row; zero affected rows is
// reported as ErrNotFound.
func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
