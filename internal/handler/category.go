package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/repository"
	"github.com/iliyamo/chobar-cart/internal/response"
)

type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	List(ctx context.Context) ([]model.Category, error)
	GetWithProducts(ctx context.Context, id uint64) (*model.CategoryWithProducts, error)
	AddProduct(ctx context.Context, productID, categoryID, ownerID uint64) (*model.Category, error)
	RemoveProduct(ctx context.Context, productID, categoryID, ownerID uint64) (*model.Category, error)
}

type CategoryHandler struct {
	Categories CategoryStore
	Cache      CachePurger
}

func NewCategoryHandler(categories CategoryStore, cache CachePurger) *CategoryHandler {
	return &CategoryHandler{Categories: categories, Cache: cache}
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat := &model.Category{Title: req.Title, Image: req.Image}
	if err := h.Categories.Create(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return response.BadRequest("category already exists")
		}
		return response.Internal("could not create category", err)
	}
	return response.JSON(c, http.StatusOK, cat, "category created successfully")
}

func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cats, err := h.Categories.List(ctx)
	if err != nil {
		return response.Internal("could not list categories", err)
	}
	return response.JSON(c, http.StatusOK, cats, "categories fetched successfully")
}

// Get returns a category with its products.
func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := parseID(c, "categoryId", "category")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat, err := h.Categories.GetWithProducts(ctx, id)
	if err != nil {
		return storeError(err, "invalid category id")
	}
	return response.JSON(c, http.StatusOK, cat, "category fetched successfully")
}

func (h *CategoryHandler) AddProduct(c echo.Context) error {
	return h.link(c, h.Categories.AddProduct, "product added to the category")
}

func (h *CategoryHandler) RemoveProduct(c echo.Context) error {
	return h.link(c, h.Categories.RemoveProduct, "product removed from the category")
}

type linkFunc func(ctx context.Context, productID, categoryID, ownerID uint64) (*model.Category, error)

func (h *CategoryHandler) link(c echo.Context, op linkFunc, msg string) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	productID, err := parseID(c, "productId", "product")
	if err != nil {
		return err
	}
	categoryID, err := parseID(c, "categoryId", "category")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat, err := op(ctx, productID, categoryID, owner)
	if err != nil {
		return storeError(err, "invalid category or product id")
	}
	if h.Cache != nil {
		_ = h.Cache.Purge(ctx)
	}
	return response.JSON(c, http.StatusOK, cat, msg)
}
