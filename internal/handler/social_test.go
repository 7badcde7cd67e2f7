package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/repository"
)

type fakeAccounts struct {
	cart       []uint64
	cartErr    error
	prevAvatar string
	avatar     string
	taken      bool
	updateErr  error
}

func (f *fakeAccounts) GetByID(_ context.Context, id uint64) (*model.User, error) {
	return &model.User{ID: id, Username: "tester", Avatar: f.avatar}, nil
}
func (f *fakeAccounts) UsernameTaken(context.Context, string) (bool, error) { return f.taken, nil }
func (f *fakeAccounts) UpdateAccount(context.Context, uint64, string, string) error {
	return f.updateErr
}
func (f *fakeAccounts) UpdateAvatar(_ context.Context, _ uint64, url string) (string, error) {
	f.avatar = url
	return f.prevAvatar, nil
}
func (f *fakeAccounts) AddToCart(_ context.Context, _, productID uint64) error {
	if f.cartErr != nil {
		return f.cartErr
	}
	f.cart = append(f.cart, productID)
	return nil
}
func (f *fakeAccounts) RemoveFromCart(_ context.Context, _, productID uint64) error {
	if f.cartErr != nil {
		return f.cartErr
	}
	for i, id := range f.cart {
		if id == productID {
			f.cart = append(f.cart[:i], f.cart[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}
func (f *fakeAccounts) CartProductIDs(context.Context, uint64) ([]uint64, error) {
	return append([]uint64{}, f.cart...), nil
}
func (f *fakeAccounts) Profile(_ context.Context, username string, _ uint64) (*model.AccountProfile, error) {
	if username != "tester" {
		return nil, repository.ErrNotFound
	}
	return &model.AccountProfile{ID: 7, Username: username, SubscribersCount: 2}, nil
}

func userServer(accounts *fakeAccounts, images *fakeImages) *echo.Echo {
	return cachedUserServer(accounts, images, nil)
}

func cachedUserServer(accounts *fakeAccounts, images *fakeImages, cache CachePurger) *echo.Echo {
	h := NewUserHandler(accounts, images, cache, quietLog())
	e := newEcho()
	g := e.Group("/api/v1/users")
	g.GET("/check-username/:username", h.CheckUsername)
	g.GET("/current-user", h.CurrentUser, asUser(7))
	g.PATCH("/update-account", h.UpdateAccount, asUser(7))
	g.PATCH("/update-avatar", h.UpdateAvatar, asUser(7))
	g.PATCH("/addto-cart/:productId", h.AddToCart, asUser(7))
	g.PATCH("/removefrom-cart/:productId", h.RemoveFromCart, asUser(7))
	g.GET("/get-account/:username", h.Account, asUser(7))
	return e
}

func TestCart_AddRemove(t *testing.T) {
	accounts := &fakeAccounts{}
	e := userServer(accounts, &fakeImages{})

	rec, env := do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/addto-cart/3", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cart":[3]}`, string(env.Data))

	rec, env = do(t, e, jsonReq(http.MethodGet, "/api/v1/users/current-user", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var cu struct {
		ID   uint64   `json:"_id"`
		Cart []uint64 `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cu))
	assert.Equal(t, uint64(7), cu.ID)
	assert.Equal(t, []uint64{3}, cu.Cart)

	rec, _ = do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/removefrom-cart/3", ""))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/removefrom-cart/3", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product not found", env.Message)
}

func TestCart_UnknownProduct(t *testing.T) {
	e := userServer(&fakeAccounts{cartErr: repository.ErrNotFound}, &fakeImages{})
	rec, _ := do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/addto-cart/99", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAccount(t *testing.T) {
	accounts := &fakeAccounts{}
	e := userServer(accounts, &fakeImages{})

	rec, env := do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/update-account", `{"fullName":"T"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", env.Message)

	rec, _ = do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/update-account", `{"fullName":"T","email":"t@example.com"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	accounts.updateErr = repository.ErrDuplicate
	rec, env = do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/update-account", `{"fullName":"T","email":"t@example.com"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email is already in use", env.Message)
}

func TestProfileChangesPurgeCache(t *testing.T) {
	accounts := &fakeAccounts{}
	cache := &countingPurger{}
	e := cachedUserServer(accounts, &fakeImages{}, cache)

	rec, _ := do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/update-account", `{"fullName":"T","email":"t@example.com"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, cache.n)

	req := multipartReq(t, "/api/v1/users/update-avatar", nil, map[string][]string{"avatar": {"new.png"}})
	req.Method = http.MethodPatch
	rec, _ = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, cache.n)

	accounts.updateErr = repository.ErrDuplicate
	rec, _ = do(t, e, jsonReq(http.MethodPatch, "/api/v1/users/update-account", `{"fullName":"T","email":"t@example.com"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, cache.n)
}

func TestUpdateAvatar_DeletesPrevious(t *testing.T) {
	accounts := &fakeAccounts{prevAvatar: "https://cdn.example/avatars/old.png"}
	images := &fakeImages{}
	e := userServer(accounts, images)

	req := multipartReq(t, "/api/v1/users/update-avatar", nil, map[string][]string{"avatar": {"new.png"}})
	req.Method = http.MethodPatch
	rec, _ := do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://cdn.example/avatars/new.png", accounts.avatar)
	assert.Equal(t, []string{"https://cdn.example/avatars/old.png"}, images.deleted)
}

func TestUpdateAvatar_UploadsDisabled(t *testing.T) {
	h := NewUserHandler(&fakeAccounts{}, nil, nil, quietLog())
	e := newEcho()
	e.PATCH("/update-avatar", h.UpdateAvatar, asUser(7))
	rec, _ := do(t, e, jsonReq(http.MethodPatch, "/update-avatar", ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAccountAndUsername(t *testing.T) {
	accounts := &fakeAccounts{}
	e := userServer(accounts, &fakeImages{})

	rec, env := do(t, e, jsonReq(http.MethodGet, "/api/v1/users/get-account/tester", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"subscribersCount":2`)

	rec, env = do(t, e, jsonReq(http.MethodGet, "/api/v1/users/get-account/ghost", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "account does not exist", env.Message)

	rec, env = do(t, e, jsonReq(http.MethodGet, "/api/v1/users/check-username/Tester", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available":true}`, string(env.Data))

	accounts.taken = true
	_, env = do(t, e, jsonReq(http.MethodGet, "/api/v1/users/check-username/tester", ""))
	assert.JSONEq(t, `{"available":false}`, string(env.Data))
}

type fakeSubs struct{ list []model.SubscriptionEntry }

func (f *fakeSubs) Create(_ context.Context, subscriber, account uint64) (*model.Subscription, error) {
	switch {
	case subscriber == account:
		return nil, repository.ErrSelfSubscription
	case account == 8:
		return nil, repository.ErrDuplicate
	case account == 404:
		return nil, repository.ErrNotFound
	}
	return &model.Subscription{ID: 1, SubscriberID: subscriber, AccountID: account}, nil
}
func (f *fakeSubs) Delete(_ context.Context, _, account uint64) error {
	if account != 8 {
		return repository.ErrNotFound
	}
	return nil
}
func (f *fakeSubs) ListSubscribedTo(context.Context, uint64) ([]model.SubscriptionEntry, error) {
	return f.list, nil
}
func (f *fakeSubs) ListSubscribers(context.Context, uint64) ([]model.SubscriptionEntry, error) {
	return f.list, nil
}

func TestSubscriptions(t *testing.T) {
	h := NewSubscriptionHandler(&fakeSubs{})
	e := newEcho()
	g := e.Group("/api/v1/subscriptions", asUser(7))
	g.POST("/subscribe/:accountId", h.Subscribe)
	g.DELETE("/subscribe/:accountId", h.Unsubscribe)
	g.GET("/get-subscribed-to/:subscriberId", h.SubscribedTo)
	g.GET("/get-subscribers/:accountId", h.Subscribers)

	cases := []struct {
		method, path string
		status       int
		msg          string
	}{
		{http.MethodPost, "/api/v1/subscriptions/subscribe/9", http.StatusOK, "Followed successfully"},
		{http.MethodPost, "/api/v1/subscriptions/subscribe/7", http.StatusBadRequest, "you cannot subscribe to your own account"},
		{http.MethodPost, "/api/v1/subscriptions/subscribe/8", http.StatusBadRequest, "already subscribed to this account"},
		{http.MethodPost, "/api/v1/subscriptions/subscribe/404", http.StatusBadRequest, "account not found"},
		{http.MethodDelete, "/api/v1/subscriptions/subscribe/8", http.StatusOK, "Unfollowed successfully"},
		{http.MethodDelete, "/api/v1/subscriptions/subscribe/9", http.StatusBadRequest, "subscriber not found"},
		{http.MethodGet, "/api/v1/subscriptions/get-subscribed-to/7", http.StatusBadRequest, "User has not subscribed to any account"},
		{http.MethodGet, "/api/v1/subscriptions/get-subscribers/7", http.StatusOK, "subscribers fetched successfully"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec, env := do(t, e, jsonReq(tc.method, tc.path, ""))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, env.Message)
		})
	}
}

type fakeComments struct {
	list    []model.CommentWithOwner
	created *model.Comment
}

func (f *fakeComments) Create(_ context.Context, c *model.Comment) error {
	if c.ProductID == 404 {
		return repository.ErrNotFound
	}
	c.ID = 11
	f.created = c
	return nil
}
func (f *fakeComments) ListByProduct(context.Context, uint64, int, int) ([]model.CommentWithOwner, error) {
	return f.list, nil
}
func (f *fakeComments) GetByID(_ context.Context, id uint64) (*model.CommentWithOwner, error) {
	return &model.CommentWithOwner{ID: id, Content: f.created.Content}, nil
}
func (f *fakeComments) Update(_ context.Context, id, _ uint64, content string) (*model.CommentWithOwner, error) {
	if id == 12 {
		return nil, repository.ErrForbidden
	}
	return &model.CommentWithOwner{ID: id, Content: content}, nil
}
func (f *fakeComments) Delete(context.Context, uint64, uint64) error { return nil }

func TestComments(t *testing.T) {
	store := &fakeComments{}
	h := NewCommentHandler(store)
	e := newEcho()
	g := e.Group("/api/v1/comments", asUser(7))
	g.POST("/:id", h.Create)
	g.GET("/:id", h.List)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	rec, env := do(t, e, jsonReq(http.MethodPost, "/api/v1/comments/5", `{"content":"  nice  "}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nice", store.created.Content)
	assert.Equal(t, uint64(7), store.created.OwnerID)
	assert.Contains(t, string(env.Data), `"content":"nice"`)

	rec, _ = do(t, e, jsonReq(http.MethodPost, "/api/v1/comments/5", `{"content":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, e, jsonReq(http.MethodPost, "/api/v1/comments/404", `{"content":"hi"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product not found", env.Message)

	rec, env = do(t, e, jsonReq(http.MethodGet, "/api/v1/comments/5", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "There are no comments under this product", env.Message)

	rec, env = do(t, e, jsonReq(http.MethodGet, "/api/v1/comments/5?page=9223372036854775807", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "page is too large", env.Message)

	rec, _ = do(t, e, jsonReq(http.MethodPatch, "/api/v1/comments/12", `{"content":"edit"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = do(t, e, jsonReq(http.MethodDelete, "/api/v1/comments/11", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeLikes struct{ liked map[uint64]bool }

func (f *fakeLikes) Toggle(_ context.Context, owner uint64, t model.LikeTarget, id uint64) (*model.Like, bool, error) {
	if id == 404 {
		return nil, false, repository.ErrNotFound
	}
	if f.liked[id] {
		delete(f.liked, id)
		return nil, false, nil
	}
	f.liked[id] = true
	return &model.Like{ID: 1, OwnerID: owner, ProductID: &id}, true, nil
}
func (f *fakeLikes) ProductLikes(context.Context, uint64, uint64) (model.ProductLikes, error) {
	return model.ProductLikes{TotalLikes: len(f.liked), IsUserLiked: len(f.liked) > 0}, nil
}
func (f *fakeLikes) UserLikedProducts(context.Context, uint64) ([]model.LikedProduct, error) {
	return nil, nil
}
func (f *fakeLikes) DeleteOwn(_ context.Context, likeID, _ uint64, _ model.LikeTarget) error {
	if likeID != 1 {
		return repository.ErrNotFound
	}
	return nil
}

func TestLikes(t *testing.T) {
	h := NewLikeHandler(&fakeLikes{liked: map[uint64]bool{}})
	e := newEcho()
	g := e.Group("/api/v1/likes", asUser(7))
	g.POST("/product/:productId", h.ToggleProduct)
	g.GET("/product/:productId", h.ProductLikes)
	g.POST("/comment/:commentId", h.ToggleComment)
	g.GET("/user-likes", h.UserLikes)
	g.DELETE("/delete-product-like/:likeId", h.DeleteProductLike)

	_, env := do(t, e, jsonReq(http.MethodPost, "/api/v1/likes/product/5", ""))
	assert.Equal(t, "Like submitted successfully", env.Message)

	_, env = do(t, e, jsonReq(http.MethodGet, "/api/v1/likes/product/5", ""))
	assert.JSONEq(t, `{"totalLikes":1,"isUserLiked":true}`, string(env.Data))

	_, env = do(t, e, jsonReq(http.MethodPost, "/api/v1/likes/product/5", ""))
	assert.Equal(t, "Like removed successfully", env.Message)

	rec, env := do(t, e, jsonReq(http.MethodPost, "/api/v1/likes/comment/404", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "comment not found", env.Message)

	rec, env = do(t, e, jsonReq(http.MethodGet, "/api/v1/likes/user-likes", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User did not like any product", env.Message)

	rec, _ = do(t, e, jsonReq(http.MethodDelete, "/api/v1/likes/delete-product-like/1", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, jsonReq(http.MethodDelete, "/api/v1/likes/delete-product-like/2", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeCategories struct{}

func (fakeCategories) Create(_ context.Context, c *model.Category) error {
	if c.Title == "shoes" {
		return repository.ErrDuplicate
	}
	c.ID = 3
	return nil
}
func (fakeCategories) List(context.Context) ([]model.Category, error) {
	return []model.Category{{ID: 3, Title: "shirts"}}, nil
}
func (fakeCategories) GetWithProducts(_ context.Context, id uint64) (*model.CategoryWithProducts, error) {
	if id != 3 {
		return nil, repository.ErrNotFound
	}
	return &model.CategoryWithProducts{Category: model.Category{ID: 3, Title: "shirts"}}, nil
}
func (fakeCategories) AddProduct(_ context.Context, productID, categoryID, _ uint64) (*model.Category, error) {
	if productID == 6 {
		return nil, repository.ErrForbidden
	}
	return &model.Category{ID: categoryID}, nil
}
func (fakeCategories) RemoveProduct(_ context.Context, _, categoryID, _ uint64) (*model.Category, error) {
	return &model.Category{ID: categoryID}, nil
}

func TestCategories(t *testing.T) {
	cache := &countingPurger{}
	h := NewCategoryHandler(fakeCategories{}, cache)
	e := newEcho()
	g := e.Group("/api/v1/category")
	g.GET("", h.List)
	g.GET("/:categoryId", h.Get)
	g.POST("/create", h.Create, asUser(7))
	g.PATCH("/add-product/:productId/:categoryId", h.AddProduct, asUser(7))
	g.PATCH("/remove-product/:productId/:categoryId", h.RemoveProduct, asUser(7))

	rec, _ := do(t, e, jsonReq(http.MethodPost, "/api/v1/category/create", `{"title":"shirts"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env := do(t, e, jsonReq(http.MethodPost, "/api/v1/category/create", `{"title":"shoes"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "category already exists", env.Message)

	rec, _ = do(t, e, jsonReq(http.MethodGet, "/api/v1/category", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, jsonReq(http.MethodGet, "/api/v1/category/4", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, jsonReq(http.MethodPatch, "/api/v1/category/add-product/5/3", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, jsonReq(http.MethodPatch, "/api/v1/category/add-product/6/3", ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = do(t, e, jsonReq(http.MethodPatch, "/api/v1/category/remove-product/5/3", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, cache.n)
}
