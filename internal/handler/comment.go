package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/response"
)

type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	ListByProduct(ctx context.Context, productID uint64, page, limit int) ([]model.CommentWithOwner, error)
	GetByID(ctx context.Context, id uint64) (*model.CommentWithOwner, error)
	Update(ctx context.Context, id, ownerID uint64, content string) (*model.CommentWithOwner, error)
	Delete(ctx context.Context, id, ownerID uint64) error
}

// CommentHandler serves /comments.  On POST and GET the :id is a product
// id, on PATCH and DELETE it is a comment id.
type CommentHandler struct {
	Comments CommentStore
}

func NewCommentHandler(comments CommentStore) *CommentHandler {
	return &CommentHandler{Comments: comments}
}

func (h *CommentHandler) Create(c echo.Context) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	productID, err := parseID(c, "id", "product")
	if err != nil {
		return err
	}
	var req commentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cm := &model.Comment{ProductID: productID, OwnerID: owner, Content: req.Content}
	if err := h.Comments.Create(ctx, cm); err != nil {
		return storeError(err, "product not found")
	}
	out, err := h.Comments.GetByID(ctx, cm.ID)
	if err != nil {
		return storeError(err, "comment not found")
	}
	return response.JSON(c, http.StatusOK, out, "comment created successfully")
}

func (h *CommentHandler) List(c echo.Context) error {
	productID, err := parseID(c, "id", "product")
	if err != nil {
		return err
	}
	page, err := queryPage(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Comments.ListByProduct(ctx, productID, page, min(queryInt(c, "limit", 10), maxListLimit))
	if err != nil {
		return response.Internal("could not list comments", err)
	}
	if len(list) == 0 {
		return response.BadRequest("There are no comments under this product")
	}
	return response.JSON(c, http.StatusOK, list, "comments fetched successfully")
}

func (h *CommentHandler) Update(c echo.Context) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}
	var req commentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Comments.Update(ctx, id, owner, req.Content)
	if err != nil {
		return storeError(err, "comment not found")
	}
	return response.JSON(c, http.StatusOK, out, "comment updated successfully")
}

func (h *CommentHandler) Delete(c echo.Context) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Comments.Delete(ctx, id, owner); err != nil {
		return storeError(err, "comment not found")
	}
	return response.JSON(c, http.StatusOK, nil, "comment deleted successfully")
}
