package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/response"
)

type LikeStore interface {
	Toggle(ctx context.Context, ownerID uint64, t model.LikeTarget, targetID uint64) (*model.Like, bool, error)
	ProductLikes(ctx context.Context, productID, userID uint64) (model.ProductLikes, error)
	UserLikedProducts(ctx context.Context, userID uint64) ([]model.LikedProduct, error)
	DeleteOwn(ctx context.Context, likeID, ownerID uint64, t model.LikeTarget) error
}

type LikeHandler struct {
	Likes LikeStore
}

func NewLikeHandler(likes LikeStore) *LikeHandler { return &LikeHandler{Likes: likes} }

func (h *LikeHandler) ToggleProduct(c echo.Context) error {
	return h.toggle(c, model.LikeProduct, "productId")
}

func (h *LikeHandler) ToggleComment(c echo.Context) error {
	return h.toggle(c, model.LikeComment, "commentId")
}

// toggle likes the target, or removes the caller's like when present.
func (h *LikeHandler) toggle(c echo.Context, t model.LikeTarget, param string) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	targetID, err := parseID(c, param, string(t))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	like, liked, err := h.Likes.Toggle(ctx, owner, t, targetID)
	if err != nil {
		return storeError(err, string(t)+" not found")
	}
	if !liked {
		return response.JSON(c, http.StatusOK, nil, "Like removed successfully")
	}
	return response.JSON(c, http.StatusOK, like, "Like submitted successfully")
}

func (h *LikeHandler) ProductLikes(c echo.Context) error {
	viewer, err := userID(c)
	if err != nil {
		return err
	}
	productID, err := parseID(c, "productId", "product")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pl, err := h.Likes.ProductLikes(ctx, productID, viewer)
	if err != nil {
		return response.Internal("could not count likes", err)
	}
	return response.JSON(c, http.StatusOK, pl, "product likes fetched successfully")
}

func (h *LikeHandler) UserLikes(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Likes.UserLikedProducts(ctx, id)
	if err != nil {
		return response.Internal("could not list liked products", err)
	}
	if len(list) == 0 {
		return response.BadRequest("User did not like any product")
	}
	return response.JSON(c, http.StatusOK, list, "liked products fetched successfully")
}

func (h *LikeHandler) DeleteProductLike(c echo.Context) error {
	return h.deleteLike(c, model.LikeProduct, "Unliked the product")
}

func (h *LikeHandler) DeleteCommentLike(c echo.Context) error {
	return h.deleteLike(c, model.LikeComment, "Unliked the comment")
}

func (h *LikeHandler) deleteLike(c echo.Context, t model.LikeTarget, msg string) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	likeID, err := parseID(c, "likeId", "like")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Likes.DeleteOwn(ctx, likeID, owner, t); err != nil {
		return storeError(err, "like not found")
	}
	return response.JSON(c, http.StatusOK, nil, msg)
}
