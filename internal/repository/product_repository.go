package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/chobar-cart/internal/model"
)

// mysqlNoReferencedRow is ER_NO_REFERENCED_ROW_2 (foreign key target missing).
const mysqlNoReferencedRow = 1452

// productSelect joins each product with its owner summary.  The dotted
// aliases let sqlx fill the nested Owner struct.
const productSelect = `SELECT p.id, p.title, p.description, p.price, p.gender, p.created_at,
	u.id AS ` + "`owner.id`" + `, u.username AS ` + "`owner.username`" + `,
	u.full_name AS ` + "`owner.full_name`" + `, u.avatar AS ` + "`owner.avatar`" + `
	FROM products p JOIN users u ON u.id = p.owner_id`

// sortColumns whitelists the sortBy values accepted by List.
var sortColumns = map[string]string{
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
	"price":     "p.price",
	"title":     "p.title",
}

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// Create inserts a product with its images and category links in one
// transaction.  An unknown category id returns ErrNotFound.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	res, err := tx.ExecContext(ctx,
		"INSERT INTO products (owner_id, title, description, price, gender) VALUES (?,?,?,?,?)",
		p.OwnerID, p.Title, p.Description, p.Price, p.Gender)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	for i, url := range p.Images {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO product_images (product_id, position, url) VALUES (?,?,?)",
			p.ID, i, url); err != nil {
			return err
		}
	}
	for _, c := range p.Categories {
		if _, err := tx.ExecContext(ctx,
			linkCategorySQL, p.ID, c); err != nil {
			if isMissingReference(err) {
				return fmt.Errorf("category %d: %w", c, ErrNotFound)
			}
			return err
		}
	}
	if err := tx.QueryRowxContext(ctx,
		"SELECT created_at, updated_at FROM products WHERE id=?", p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns one page of products matching f, newest first unless a
// whitelisted sort column is requested.  Query matches title or
// description with LIKE.
func (r *ProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.ProductListItem, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != 0 {
		where = append(where, "p.owner_id = ?")
		args = append(args, f.OwnerID)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + escapeLike(q) + "%"
		where = append(where, "(p.title LIKE ? OR p.description LIKE ?)")
		args = append(args, like, like)
	}
	if g := strings.TrimSpace(f.Gender); g != "" {
		where = append(where, "p.gender = ?")
		args = append(args, g)
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "p.created_at"
	}
	dir := "DESC"
	if f.SortAsc {
		dir = "ASC"
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 30
	}

	var sb strings.Builder
	sb.WriteString(productSelect)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, p.id DESC LIMIT ? OFFSET ?", col, dir)
	args = append(args, limit, (page-1)*limit)

	items := []model.ProductListItem{}
	if err := r.db.SelectContext(ctx, &items, sb.String(), args...); err != nil {
		return nil, err
	}
	if err := attachImages(ctx, r.db, items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID returns one product with owner, images and categories.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.ProductListItem, error) {
	var p model.ProductListItem
	if err := r.db.GetContext(ctx, &p, productSelect+" WHERE p.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items := []model.ProductListItem{p}
	if err := attachImages(ctx, r.db, items); err != nil {
		return nil, err
	}
	cats := []uint64{}
	if err := r.db.SelectContext(ctx, &cats,
		"SELECT category_id FROM product_categories WHERE product_id=? ORDER BY category_id", id); err != nil {
		return nil, err
	}
	items[0].Categories = cats
	return &items[0], nil
}

// Update applies the non-nil fields of u.  Only the owner may update.
func (r *ProductRepo) Update(ctx context.Context, id, ownerID uint64, u model.ProductUpdate) (*model.ProductListItem, error) {
	if err := checkOwner(ctx, r.db, "products", id, ownerID); err != nil {
		return nil, err
	}
	var (
		sets []string
		args []any
	)
	if u.Title != nil {
		sets, args = append(sets, "title=?"), append(args, *u.Title)
	}
	if u.Description != nil {
		sets, args = append(sets, "description=?"), append(args, *u.Description)
	}
	if u.Gender != nil {
		sets, args = append(sets, "gender=?"), append(args, *u.Gender)
	}
	if u.Price != nil {
		sets, args = append(sets, "price=?"), append(args, *u.Price)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx,
			"UPDATE products SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a product owned by ownerID and returns its image urls so
// the caller can remove them from storage.  Category links, cart entries,
// comments and likes go with it through ON DELETE CASCADE.
func (r *ProductRepo) Delete(ctx context.Context, id, ownerID uint64) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var owner uint64
	if err := tx.GetContext(ctx, &owner, "SELECT owner_id FROM products WHERE id=? FOR UPDATE", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if owner != ownerID {
		return nil, ErrForbidden
	}
	urls := []string{}
	if err := tx.SelectContext(ctx, &urls,
		"SELECT url FROM product_images WHERE product_id=? ORDER BY position", id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id=?", id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return urls, nil
}

type productImage struct {
	ProductID uint64 `db:"product_id"`
	URL       string `db:"url"`
}

// attachImages loads the images of every item with a single IN query.
func attachImages(ctx context.Context, db sqlx.QueryerContext, items []model.ProductListItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uint64, len(items))
	idx := make(map[uint64]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		idx[items[i].ID] = i
		items[i].Images = []string{}
	}
	q, args, err := sqlx.In(
		"SELECT product_id, url FROM product_images WHERE product_id IN (?) ORDER BY product_id, position", ids)
	if err != nil {
		return err
	}
	var imgs []productImage
	if err := sqlx.SelectContext(ctx, db, &imgs, sqlx.Rebind(sqlx.QUESTION, q), args...); err != nil {
		return err
	}
	for _, im := range imgs {
		if i, ok := idx[im.ProductID]; ok {
			items[i].Images = append(items[i].Images, im.URL)
		}
	}
	return nil
}

// checkOwner returns ErrNotFound when the row is missing and ErrForbidden
// when it belongs to someone else.  table is always a constant.
func checkOwner(ctx context.Context, db sqlx.QueryerContext, table string, id, ownerID uint64) error {
	var owner uint64
	if err := sqlx.GetContext(ctx, db, &owner, "SELECT owner_id FROM "+table+" WHERE id=?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	return nil
}

func isMissingReference(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferencedRow
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
