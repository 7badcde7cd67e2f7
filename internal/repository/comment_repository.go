package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/chobar-cart/internal/model"
)

const commentSelect = `SELECT c.id, c.product_id, c.content, c.created_at, c.updated_at,
	u.id AS ` + "`owner.id`" + `, u.username AS ` + "`owner.username`" + `,
	u.full_name AS ` + "`owner.full_name`" + `, u.avatar AS ` + "`owner.avatar`" + `
	FROM comments c JOIN users u ON u.id = c.owner_id`

type CommentRepo struct{ db *sqlx.DB }

func NewCommentRepo(db *sqlx.DB) *CommentRepo { return &CommentRepo{db: db} }

// Create adds a comment to a product.  Unknown products return ErrNotFound.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (product_id, owner_id, content) VALUES (?,?,?)",
		c.ProductID, c.OwnerID, c.Content)
	if err != nil {
		if isMissingReference(err) {
			return ErrNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.db.QueryRowxContext(ctx,
		"SELECT created_at, updated_at FROM comments WHERE id=?", c.ID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// ListByProduct returns one page of a product's comments, newest first.
func (r *CommentRepo) ListByProduct(ctx context.Context, productID uint64, page, limit int) ([]model.CommentWithOwner, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	out := []model.CommentWithOwner{}
	err := r.db.SelectContext(ctx, &out,
		commentSelect+" WHERE c.product_id = ? ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?",
		productID, limit, (page-1)*limit)
	return out, err
}

// GetByID fetches a comment with its author.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (*model.CommentWithOwner, error) {
	var c model.CommentWithOwner
	if err := r.db.GetContext(ctx, &c, commentSelect+" WHERE c.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Update replaces the content of a comment written by ownerID.
func (r *CommentRepo) Update(ctx context.Context, id, ownerID uint64, content string) (*model.CommentWithOwner, error) {
	if err := checkOwner(ctx, r.db, "comments", id, ownerID); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, "UPDATE comments SET content=? WHERE id=?", content, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a comment written by ownerID.
func (r *CommentRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := checkOwner(ctx, r.db, "comments", id, ownerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
	return err
}
