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

var userCols = []string{"id", "full_name", "username", "email", "phone_no", "password_hash",
	"avatar", "refresh_token_hash", "created_at", "updated_at"}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("Alice", "alice", "alice@example.com", "555", "hash", "").
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := &model.User{FullName: "Alice", Username: " Alice", Email: "Alice@Example.com ", PhoneNo: "555", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.User{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()
	hash := "abc"

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(3, "Bob", "bob", "bob@example.com", "777", "h", "", hash, now, now))

	u, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	require.NotNil(t, u.RefreshTokenHash)
	assert.Equal(t, "abc", *u.RefreshTokenHash)
}

func TestUserRepo_GetByLogin_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE email=? OR username=? OR phone_no=?")).
		WithArgs("carol", "carol", "Carol").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByLogin(context.Background(), "Carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_SwapRefreshToken(t *testing.T) {
	const q = "UPDATE users SET refresh_token_hash=? WHERE id=? AND refresh_token_hash=?"

	t.Run("matching digest is replaced", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(q)).
			WithArgs("new", uint64(1), "old").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, NewUserRepo(db).SwapRefreshToken(context.Background(), 1, "old", "new"))
	})

	t.Run("stale digest is rejected", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta(q)).
			WithArgs("new", uint64(1), "stale").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewUserRepo(db).SwapRefreshToken(context.Background(), 1, "stale", "new")
		assert.ErrorIs(t, err, ErrRefreshTokenMismatch)
	})
}

func TestUserRepo_ClearRefreshToken_Idempotent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token_hash=NULL WHERE id=?")).
		WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.ClearRefreshToken(context.Background(), 5))
}

func TestUserRepo_UpdatePassword_DropsSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("SET password_hash=?, refresh_token_hash=NULL WHERE id=?")).
		WithArgs("newhash", uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdatePassword(context.Background(), 5, "newhash"))
}

func TestUserRepo_AddToCart_UnknownProduct(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT IGNORE INTO cart_items").
		WithArgs(uint64(1), uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM products WHERE id=?)")).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))

	assert.ErrorIs(t, repo.AddToCart(context.Background(), 1, 99), ErrNotFound)
}

func TestUserRepo_CartProductIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT product_id FROM cart_items").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}).AddRow(4).AddRow(9))

	ids, err := repo.CartProductIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 9}, ids)
}

func TestUserRepo_Profile(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM users u WHERE u.username").
		WithArgs(uint64(2), "dave").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "full_name", "email", "avatar", "created_at",
			"subscribers_count", "subscribed_to_count", "is_subscribed", "products_count"}).
			AddRow(8, "dave", "Dave", "d@example.com", "", now, 3, 1, true, 5))

	p, err := repo.Profile(context.Background(), "Dave", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, p.SubscribersCount)
	assert.True(t, p.IsSubscribed)
	assert.Equal(t, 5, p.ProductsCount)
}
