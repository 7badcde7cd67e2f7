package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/response"
	"github.com/iliyamo/chobar-cart/internal/service"
)

// AccessCookie is the cookie carrying the access token.
const AccessCookie = "accessToken"

// Authenticator resolves a raw access token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*model.User, error)
}

// JWTAuth is the auth gate.  The access token is taken from the accessToken
// cookie, falling back to an "Authorization: Bearer" header.  On success the
// user is stored under "user" and its id under "user_id"; on failure the
// request ends with failStatus.
func JWTAuth(auth Authenticator, failStatus int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := auth.Authenticate(c.Request().Context(), accessToken(c.Request()))
			if err != nil {
				if errors.Is(err, service.ErrMissingAccessToken) || errors.Is(err, service.ErrInvalidAccessToken) {
					return response.New(failStatus, err.Error())
				}
				return response.Internal("could not authenticate request", err)
			}
			c.Set(ctxUser, u)
			c.Set(ctxUserID, u.ID)
			return next(c)
		}
	}
}

func accessToken(r *http.Request) string {
	if ck, err := r.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := r.Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
