package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/middleware"
	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/repository"
	"github.com/iliyamo/chobar-cart/internal/response"
)

// AccountStore is the account and cart side of the user repository.
type AccountStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	UpdateAccount(ctx context.Context, userID uint64, fullName, email string) error
	UpdateAvatar(ctx context.Context, userID uint64, url string) (string, error)
	AddToCart(ctx context.Context, userID, productID uint64) error
	RemoveFromCart(ctx context.Context, userID, productID uint64) error
	CartProductIDs(ctx context.Context, userID uint64) ([]uint64, error)
	Profile(ctx context.Context, username string, viewerID uint64) (*model.AccountProfile, error)
}

// UserHandler serves account, avatar, cart and profile endpoints.  Cached
// product responses embed owner names and avatars, so profile changes purge
// Cache.
type UserHandler struct {
	Users  AccountStore
	Images ImageStorage
	Cache  CachePurger
	Log    *slog.Logger
}

func NewUserHandler(users AccountStore, images ImageStorage, cache CachePurger, log *slog.Logger) *UserHandler {
	return &UserHandler{Users: users, Images: images, Cache: cache, Log: log}
}

func (h *UserHandler) purge(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(ctx); err != nil {
		h.Log.Warn("response cache not purged", "err", err)
	}
}

// CurrentUser returns the caller with the product ids in their cart.
func (h *UserHandler) CurrentUser(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return response.Internal("authenticated route without user", errors.New("missing user"))
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cart, err := h.Users.CartProductIDs(ctx, u.ID)
	if err != nil {
		return response.Internal("could not load cart", err)
	}
	return response.JSON(c, http.StatusOK, model.CurrentUser{User: *u, Cart: cart}, "current user fetched successfully")
}

func (h *UserHandler) UpdateAccount(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req accountReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateAccount(ctx, id, req.FullName, req.Email); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return response.BadRequest("email is already in use")
		}
		return storeError(err, "user not found")
	}
	h.purge(ctx)
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "user not found")
	}
	return response.JSON(c, http.StatusOK, u, "Account details updated successfully")
}

// UpdateAvatar stores a new avatar image and removes the previous one.
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	if h.Images == nil {
		return errUploadsDisabled
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return response.BadRequest("avatar file is required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	url, err := h.Images.Upload(ctx, "avatars", fh)
	if err != nil {
		return storeError(err, "avatar file is required")
	}
	prev, err := h.Users.UpdateAvatar(ctx, id, url)
	if err != nil {
		_ = h.Images.Delete(ctx, url)
		return storeError(err, "user not found")
	}
	if prev != "" && prev != url {
		if err := h.Images.Delete(ctx, prev); err != nil {
			h.Log.Warn("old avatar not deleted", "user_id", id, "url", prev, "err", err)
		}
	}
	h.purge(ctx)
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "user not found")
	}
	return response.JSON(c, http.StatusOK, u, "Avatar image updated successfully")
}

func (h *UserHandler) AddToCart(c echo.Context) error {
	return h.changeCart(c, h.Users.AddToCart, "Product added to cart")
}

func (h *UserHandler) RemoveFromCart(c echo.Context) error {
	return h.changeCart(c, h.Users.RemoveFromCart, "Product removed from cart")
}

func (h *UserHandler) changeCart(c echo.Context, op func(context.Context, uint64, uint64) error, msg string) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	productID, err := parseID(c, "productId", "product")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := op(ctx, id, productID); err != nil {
		return storeError(err, "product not found")
	}
	cart, err := h.Users.CartProductIDs(ctx, id)
	if err != nil {
		return response.Internal("could not load cart", err)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"cart": cart}, msg)
}

// Account returns a public profile with subscription counts as seen by the
// caller.
func (h *UserHandler) Account(c echo.Context) error {
	viewer, err := userID(c)
	if err != nil {
		return err
	}
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return response.BadRequest("username is missing")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Users.Profile(ctx, username, viewer)
	if err != nil {
		return storeError(err, "account does not exist")
	}
	return response.JSON(c, http.StatusOK, p, "User account fetched successfully")
}

func (h *UserHandler) CheckUsername(c echo.Context) error {
	username := strings.ToLower(strings.TrimSpace(c.Param("username")))
	if username == "" {
		return response.BadRequest("username is missing")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	taken, err := h.Users.UsernameTaken(ctx, username)
	if err != nil {
		return response.Internal("could not check username", err)
	}
	msg := "username is available"
	if taken {
		msg = "username is already taken"
	}
	return response.JSON(c, http.StatusOK, echo.Map{"available": !taken}, msg)
}
