package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/utils"
)

const (
	ctxUser   = "user"
	ctxUserID = "user_id"
)

// CurrentUser returns the user attached by JWTAuth, or nil on public routes.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(ctxUser).(*model.User)
	return u
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// UserResolver names the caller of a request that has not passed JWTAuth
// yet.  Global middlewares run ahead of route gates and use it.
type UserResolver func(r *http.Request) (uint64, bool)

// AccessTokenUser resolves the caller from a valid access token, read the
// same way JWTAuth reads it.  The user is not loaded from the store.
func AccessTokenUser(secret string) UserResolver {
	return func(r *http.Request) (uint64, bool) {
		raw := accessToken(r)
		if raw == "" {
			return 0, false
		}
		claims, err := utils.ParseAccessToken(secret, raw)
		if err != nil || claims.UserID == 0 {
			return 0, false
		}
		return claims.UserID, true
	}
}

// rateKeyUser identifies the caller for rate limiting; "anon" when unknown.
func rateKeyUser(c echo.Context, resolve UserResolver) string {
	if id, ok := CurrentUserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	if resolve != nil {
		if id, ok := resolve(c.Request()); ok {
			return strconv.FormatUint(id, 10)
		}
	}
	return "anon"
}
