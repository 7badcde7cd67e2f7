package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/chobar-cart/internal/model"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// Create inserts a category.  Titles are unique; a clash returns ErrDuplicate.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	c.Title = strings.TrimSpace(c.Title)
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (title, image) VALUES (?,?)", c.Title, c.Image)
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
	c.ID = uint64(id)
	return nil
}

// List returns every category ordered by title.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	out := []model.Category{}
	err := r.db.SelectContext(ctx, &out, "SELECT id, title, image FROM categories ORDER BY title")
	return out, err
}

// GetByID fetches a category.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.Category, error) {
	var c model.Category
	if err := r.db.GetContext(ctx, &c, "SELECT id, title, image FROM categories WHERE id=?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// linkCategorySQL is a plain INSERT so an unknown category fails with 1452
// instead of being dropped as a warning.
const linkCategorySQL = `INSERT INTO product_categories (product_id, category_id) VALUES (?,?)
	ON DUPLICATE KEY UPDATE category_id = category_id`

// AddProduct links a product owned by ownerID to a category.  Linking twice
// is a no-op.
func (r *CategoryRepo) AddProduct(ctx context.Context, productID, categoryID, ownerID uint64) (*model.Category, error) {
	if err := checkOwner(ctx, r.db, "products", productID, ownerID); err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, linkCategorySQL, productID, categoryID); err != nil {
		if isMissingReference(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, categoryID)
}

// RemoveProduct unlinks a product owned by ownerID from a category.
func (r *CategoryRepo) RemoveProduct(ctx context.Context, productID, categoryID, ownerID uint64) (*model.Category, error) {
	if err := checkOwner(ctx, r.db, "products", productID, ownerID); err != nil {
		return nil, err
	}
	c, err := r.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM product_categories WHERE product_id=? AND category_id=?",
		productID, categoryID); err != nil {
		return nil, err
	}
	return c, nil
}

// GetWithProducts returns a category and its products, newest first.
func (r *CategoryRepo) GetWithProducts(ctx context.Context, id uint64) (*model.CategoryWithProducts, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items := []model.ProductListItem{}
	if err := r.db.SelectContext(ctx, &items,
		productSelect+` JOIN product_categories pc ON pc.product_id = p.id
		WHERE pc.category_id = ? ORDER BY p.created_at DESC, p.id DESC`, id); err != nil {
		return nil, err
	}
	if err := attachImages(ctx, r.db, items); err != nil {
		return nil, err
	}
	return &model.CategoryWithProducts{Category: *c, Products: items}, nil
}
