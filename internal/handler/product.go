package handler

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/response"
)

const (
	minProductImages = 3
	maxProductImages = 6
	maxListLimit     = 100
)

// ProductStore is the product repository.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	List(ctx context.Context, f model.ProductFilter) ([]model.ProductListItem, error)
	GetByID(ctx context.Context, id uint64) (*model.ProductListItem, error)
	Update(ctx context.Context, id, ownerID uint64, u model.ProductUpdate) (*model.ProductListItem, error)
	Delete(ctx context.Context, id, ownerID uint64) ([]string, error)
}

type ProductHandler struct {
	Products ProductStore
	Images   ImageStorage
	Cache    CachePurger // may be nil
	Log      *slog.Logger
}

func NewProductHandler(products ProductStore, images ImageStorage, cache CachePurger, log *slog.Logger) *ProductHandler {
	return &ProductHandler{Products: products, Images: images, Cache: cache, Log: log}
}

// Create takes a multipart form with 3 to 6 "product-images" files and at
// least one category.
func (h *ProductHandler) Create(c echo.Context) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	var form productForm
	if err := bind(c, &form); err != nil {
		return err
	}
	p, err := form.product(owner)
	if err != nil {
		return err
	}
	mf, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest("product images are required")
	}
	files := mf.File["product-images"]
	if len(files) < minProductImages || len(files) > maxProductImages {
		return response.BadRequest("a product needs between 3 and 6 images")
	}
	if h.Images == nil {
		return errUploadsDisabled
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	urls, err := h.uploadAll(ctx, files)
	if err != nil {
		return storeError(err, "product images are required")
	}
	p.Images = urls
	if err := h.Products.Create(ctx, p); err != nil {
		h.discard(urls)
		return storeError(err, "category not found")
	}
	h.purge(ctx)
	return response.JSON(c, http.StatusCreated, p, "Product created successfully")
}

// uploadAll uploads files concurrently and keeps their order.  On failure the
// images already stored are removed.
func (h *ProductHandler) uploadAll(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			url, err := h.Images.Upload(gctx, "products", fh)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.discard(urls)
		return nil, err
	}
	return urls, nil
}

// discard deletes uploaded images that no stored product references.
func (h *ProductHandler) discard(urls []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := h.Images.Delete(ctx, u); err != nil {
			h.Log.Warn("image not deleted", "url", u, "err", err)
		}
	}
}

func (h *ProductHandler) purge(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(ctx); err != nil {
		h.Log.Warn("response cache not purged", "err", err)
	}
}

// List pages through products.  Query params: page, limit, query, sortBy,
// sortType (asc|desc), gender, userId.
func (h *ProductHandler) List(c echo.Context) error {
	page, err := queryPage(c)
	if err != nil {
		return err
	}
	f := model.ProductFilter{
		Page:    page,
		Limit:   min(queryInt(c, "limit", 30), maxListLimit),
		Query:   strings.TrimSpace(c.QueryParam("query")),
		SortBy:  c.QueryParam("sortBy"),
		SortAsc: strings.EqualFold(c.QueryParam("sortType"), "asc"),
		Gender:  strings.ToLower(strings.TrimSpace(c.QueryParam("gender"))),
	}
	if v := c.QueryParam("userId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return response.BadRequest("invalid user id")
		}
		f.OwnerID = id
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Products.List(ctx, f)
	if err != nil {
		return response.Internal("could not list products", err)
	}
	if len(items) == 0 {
		return response.BadRequest("Product not found")
	}
	return response.JSON(c, http.StatusOK, items, "Products fetched successfully")
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c, "productId", "product")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return storeError(err, "Product not found")
	}
	return response.JSON(c, http.StatusOK, p, "Product fetched successfully")
}

// Update changes the supplied fields of a product the caller owns.
func (h *ProductHandler) Update(c echo.Context) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "productId", "product")
	if err != nil {
		return err
	}
	var req productPatch
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := req.update()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Update(ctx, id, owner, u)
	if err != nil {
		return storeError(err, "Product not found")
	}
	h.purge(ctx)
	return response.JSON(c, http.StatusOK, p, "Product updated successfully")
}

// Delete removes a product the caller owns along with its stored images.
func (h *ProductHandler) Delete(c echo.Context) error {
	owner, err := userID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "productId", "product")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	urls, err := h.Products.Delete(ctx, id, owner)
	if err != nil {
		return storeError(err, "Product not found")
	}
	if h.Images != nil {
		h.discard(urls)
	}
	h.purge(ctx)
	return response.JSON(c, http.StatusOK, nil, "product deleted successfully")
}
