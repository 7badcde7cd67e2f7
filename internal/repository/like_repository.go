package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/chobar-cart/internal/model"
)

type LikeRepo struct{ db *sqlx.DB }

func NewLikeRepo(db *sqlx.DB) *LikeRepo { return &LikeRepo{db: db} }

func targetColumn(t model.LikeTarget) (string, error) {
	switch t {
	case model.LikeProduct:
		return "product_id", nil
	case model.LikeComment:
		return "comment_id", nil
	}
	return "", fmt.Errorf("unknown like target %q", t)
}

// Toggle likes the target for ownerID, or removes the like when one exists.
// It returns the like and true after liking, nil and false after unliking.
// A missing target returns ErrNotFound.
func (r *LikeRepo) Toggle(ctx context.Context, ownerID uint64, t model.LikeTarget, targetID uint64) (*model.Like, bool, error) {
	col, err := targetColumn(t)
	if err != nil {
		return nil, false, err
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM likes WHERE owner_id=? AND "+col+"=?", ownerID, targetID)
	if err != nil {
		return nil, false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil, false, nil
	}

	res, err = r.db.ExecContext(ctx,
		"INSERT INTO likes (owner_id, "+col+") VALUES (?,?)", ownerID, targetID)
	switch {
	case isMissingReference(err):
		return nil, false, ErrNotFound
	case isDuplicate(err):
		// a concurrent toggle inserted it first
		l, gerr := r.get(ctx, "SELECT id, owner_id, product_id, comment_id, created_at FROM likes WHERE owner_id=? AND "+col+"=?", ownerID, targetID)
		return l, true, gerr
	case err != nil:
		return nil, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	l, err := r.get(ctx, "SELECT id, owner_id, product_id, comment_id, created_at FROM likes WHERE id=?", id)
	return l, true, err
}

func (r *LikeRepo) get(ctx context.Context, q string, args ...any) (*model.Like, error) {
	var l model.Like
	if err := r.db.GetContext(ctx, &l, q, args...); err != nil {
		return nil, err
	}
	return &l, nil
}

// ProductLikes counts a product's likes and reports whether userID is
// among them.
func (r *LikeRepo) ProductLikes(ctx context.Context, productID, userID uint64) (model.ProductLikes, error) {
	var out model.ProductLikes
	err := r.db.QueryRowxContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(owner_id = ?), 0) > 0 FROM likes WHERE product_id = ?",
		userID, productID).Scan(&out.TotalLikes, &out.IsUserLiked)
	return out, err
}

// UserLikedProducts returns the products userID liked, most recent like first.
func (r *LikeRepo) UserLikedProducts(ctx context.Context, userID uint64) ([]model.LikedProduct, error) {
	const q = "SELECT l.id, l.created_at, " +
		"p.id AS `product.id`, p.title AS `product.title`, p.description AS `product.description`, " +
		"p.price AS `product.price`, p.gender AS `product.gender`, p.created_at AS `product.created_at`, " +
		"u.id AS `product.owner.id`, u.username AS `product.owner.username`, " +
		"u.full_name AS `product.owner.full_name`, u.avatar AS `product.owner.avatar` " +
		"FROM likes l JOIN products p ON p.id = l.product_id JOIN users u ON u.id = p.owner_id " +
		"WHERE l.owner_id = ? ORDER BY l.created_at DESC, l.id DESC"
	out := []model.LikedProduct{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	products := make([]model.ProductListItem, len(out))
	for i := range out {
		products[i] = out[i].Product
	}
	if err := attachImages(ctx, r.db, products); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Product = products[i]
	}
	return out, nil
}

// DeleteOwn removes a like of the given kind made by ownerID.
func (r *LikeRepo) DeleteOwn(ctx context.Context, likeID, ownerID uint64, t model.LikeTarget) error {
	col, err := targetColumn(t)
	if err != nil {
		return err
	}
	if err := checkOwner(ctx, r.db, "likes", likeID, ownerID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM likes WHERE id=? AND "+col+" IS NOT NULL", likeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
