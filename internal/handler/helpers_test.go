package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/chobar-cart/internal/middleware"
	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/response"
	"github.com/iliyamo/chobar-cart/internal/service"
)

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = response.ErrorHandler(quietLog())
	return e
}

// staticAuth authenticates any non-empty bearer token as the given user.
type staticAuth struct{ id uint64 }

func (a staticAuth) Authenticate(_ context.Context, raw string) (*model.User, error) {
	if raw == "" {
		return nil, service.ErrMissingAccessToken
	}
	return &model.User{ID: a.id, Username: "tester", Email: "tester@example.com"}, nil
}

func asUser(id uint64) echo.MiddlewareFunc {
	return middleware.JWTAuth(staticAuth{id: id}, http.StatusBadRequest)
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func do(t *testing.T, e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer test")
	return req
}

// multipartReq builds a form with the given fields and files (field name to
// file names).
func multipartReq(t *testing.T, target string, fields map[string][]string, files map[string][]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer test")
	return req
}

// fakeImages records uploads and deletes.  Upload fails for file names
// starting with "bad".
type fakeImages struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func (f *fakeImages) Upload(_ context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if strings.HasPrefix(fh.Filename, "bad") {
		return "", io.ErrUnexpectedEOF
	}
	url := "https://cdn.example/" + folder + "/" + fh.Filename
	f.mu.Lock()
	f.uploaded = append(f.uploaded, url)
	f.mu.Unlock()
	return url, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, url)
	f.mu.Unlock()
	return nil
}

type countingPurger struct{ n int }

func (p *countingPurger) Purge(context.Context) error { p.n++; return nil }
