package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/middleware"
	"github.com/iliyamo/chobar-cart/internal/repository"
	"github.com/iliyamo/chobar-cart/internal/response"
	"github.com/iliyamo/chobar-cart/internal/storage"
)

// ImageStorage uploads and deletes public images.
type ImageStorage interface {
	Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, url string) error
}

// CachePurger drops cached public responses after writes.
type CachePurger interface {
	Purge(ctx context.Context) error
}

var errUploadsDisabled = response.New(http.StatusServiceUnavailable, "image uploads are not configured")

// userID returns the id set by the auth gate.
func userID(c echo.Context) (uint64, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return 0, response.Internal("authenticated route without user", errors.New("missing user_id"))
	}
	return id, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name, label string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, response.BadRequest("invalid " + label + " id")
	}
	return n, nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// maxPage bounds the page query parameter so page*limit stays a sane OFFSET.
const maxPage = 10000

// queryPage reads the page query parameter.  Pages past maxPage are a 400.
func queryPage(c echo.Context) (int, error) {
	page := queryInt(c, "page", 1)
	if page > maxPage {
		return 0, response.BadRequest("page is too large")
	}
	return page, nil
}

// bind decodes the body into req; malformed bodies are a 400.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return response.BadRequest("invalid request body")
	}
	return nil
}

// storeError maps repository sentinels to responses.  notFound is the
// message for ErrNotFound.
func storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return response.BadRequest(notFound)
	case errors.Is(err, repository.ErrForbidden):
		return response.Forbidden("you are not allowed to modify this resource")
	case errors.Is(err, storage.ErrNotImage):
		return response.BadRequest(err.Error())
	}
	return response.Internal("something went wrong", err)
}

func blank(ss ...string) bool {
	for _, s := range ss {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}
