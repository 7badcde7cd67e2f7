package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/chobar-cart/internal/model"
)

var productCols = []string{"id", "title", "description", "price", "gender", "created_at",
	"owner.id", "owner.username", "owner.full_name", "owner.avatar"}

func TestProductRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO products").
		WithArgs(uint64(1), "Shoe", "Red shoe", 19.5, "women").
		WillReturnResult(sqlmock.NewResult(10, 1))
	for i, url := range []string{"a", "b", "c"} {
		mock.ExpectExec("INSERT INTO product_images").
			WithArgs(uint64(10), i, url).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("INSERT INTO product_categories").
		WithArgs(uint64(10), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM products").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	p := &model.Product{OwnerID: 1, Title: "Shoe", Description: "Red shoe", Price: 19.5, Gender: "women",
		Images: []string{"a", "b", "c"}, Categories: []uint64{2}}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, uint64(10), p.ID)
	assert.Equal(t, now, p.CreatedAt)
}

func TestProductRepo_Create_UnknownCategoryRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO products").WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_categories (product_id, category_id)")).
		WithArgs(uint64(10), uint64(99)).
		WillReturnError(&mysql.MySQLError{Number: 1452})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Product{OwnerID: 1, Categories: []uint64{99}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepo_List_FiltersAndImages(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.owner_id = ? AND (p.title LIKE ? OR p.description LIKE ?) AND p.gender = ? ORDER BY p.price ASC, p.id DESC LIMIT ? OFFSET ?")).
		WithArgs(uint64(4), `%50\%%`, `%50\%%`, "men", 5, 5).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(1, "Hat", "", 10.0, "men", now, 4, "eve", "Eve", "").
			AddRow(2, "Cap", "", 12.0, "men", now, 4, "eve", "Eve", ""))
	mock.ExpectQuery(regexp.QuoteMeta("FROM product_images WHERE product_id IN (?, ?)")).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "url"}).
			AddRow(1, "u1").AddRow(1, "u2").AddRow(2, "u3"))

	items, err := repo.List(context.Background(), model.ProductFilter{
		Page: 2, Limit: 5, Query: "50%", SortBy: "price", SortAsc: true, Gender: "men", OwnerID: 4,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"u1", "u2"}, items[0].Images)
	assert.Equal(t, []string{"u3"}, items[1].Images)
	assert.Equal(t, "eve", items[0].Owner.Username)
}

func TestProductRepo_List_UnknownSortFallsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?")).
		WithArgs(30, 0).
		WillReturnRows(sqlmock.NewRows(productCols))

	items, err := repo.List(context.Background(), model.ProductFilter{SortBy: "password_hash; DROP"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestProductRepo_Update_NotOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM products WHERE id=?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(9))

	title := "x"
	_, err := repo.Update(context.Background(), 3, 1, model.ProductUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestProductRepo_Delete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT owner_id FROM products WHERE id=? FOR UPDATE")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow(1))
	mock.ExpectQuery("SELECT url FROM product_images").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"url"}).AddRow("a").AddRow("b"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id=?")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	urls, err := repo.Delete(context.Background(), 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, urls)
}

func TestProductRepo_Delete_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProductRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT owner_id FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), 3, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\`, escapeLike(`a%b_c\`))
}
