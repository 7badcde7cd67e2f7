package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/middleware"
	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/response"
	"github.com/iliyamo/chobar-cart/internal/service"
)

// RefreshCookie is the cookie carrying the refresh token.
const RefreshCookie = "refreshToken"

// Sessions is the session lifecycle the auth endpoints drive.
type Sessions interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, login, password string) (*model.User, service.TokenPair, error)
	Refresh(ctx context.Context, raw string) (*model.User, service.TokenPair, error)
	Logout(ctx context.Context, userID uint64) error
	ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error
	SendVerificationCode(ctx context.Context, email, username string) (string, error)
}

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool
	// FailStatus is the status used for authentication failures (400 or 401).
	FailStatus int
}

// AuthHandler serves register, login, refresh and logout.
type AuthHandler struct {
	Sessions Sessions
	Images   ImageStorage // nil when uploads are not configured
	Cookies  CookieConfig
}

func NewAuthHandler(s Sessions, images ImageStorage, cookies CookieConfig) *AuthHandler {
	if cookies.FailStatus == 0 {
		cookies.FailStatus = http.StatusBadRequest
	}
	return &AuthHandler{Sessions: s, Images: images, Cookies: cookies}
}

type loginResp struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register creates an account.  It accepts JSON or a multipart form with an
// optional "avatar" image and never starts a session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	in := req.input()
	if fh, err := c.FormFile("avatar"); err == nil {
		if h.Images == nil {
			return errUploadsDisabled
		}
		url, err := h.Images.Upload(ctx, "avatars", fh)
		if err != nil {
			return storeError(err, "avatar file is required")
		}
		in.Avatar = url
	}

	u, err := h.Sessions.Register(ctx, in)
	if err != nil {
		if in.Avatar != "" {
			_ = h.Images.Delete(ctx, in.Avatar)
		}
		return h.authError(err)
	}
	return response.JSON(c, http.StatusCreated, u, "User registered successfully")
}

// Login starts a session and sets both cookies.  Tokens are also returned in
// the body for clients that cannot use cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, pair, err := h.Sessions.Login(ctx, req.identifier(), req.Password)
	if err != nil {
		return h.authError(err)
	}
	h.setCookies(c, pair)
	return response.JSON(c, http.StatusOK,
		loginResp{User: u, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"user logged in successfully")
}

// RefreshToken rotates the session.  The token comes from the refreshToken
// cookie or, failing that, the request body.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	raw := ""
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		raw = ck.Value
	}
	if raw == "" {
		var req refreshReq
		if err := bind(c, &req); err != nil {
			return err
		}
		raw = req.RefreshToken
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, pair, err := h.Sessions.Refresh(ctx, raw)
	if err != nil {
		return h.authError(err)
	}
	h.setCookies(c, pair)
	return response.JSON(c, http.StatusOK, pair, "Access token refreshed")
}

// Logout clears the stored refresh token and both cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Logout(ctx, id); err != nil {
		return response.Internal("could not log out", err)
	}
	h.clearCookies(c)
	return response.JSON(c, http.StatusOK, nil, "User logged out")
}

// UpdatePassword changes the password and ends the current session.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req passwordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.ChangePassword(ctx, id, req.OldPassword, req.NewPassword); err != nil {
		return h.authError(err)
	}
	h.clearCookies(c)
	return response.JSON(c, http.StatusOK, nil, "Password changed successfully")
}

// TestEmail queues a verification code email.
func (h *AuthHandler) TestEmail(c echo.Context) error {
	var req emailReq
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Sessions.SendVerificationCode(ctx, req.Email, req.Username); err != nil {
		return h.authError(err)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"email": req.Email}, "verification code sent")
}

func (h *AuthHandler) setCookies(c echo.Context, pair service.TokenPair) {
	c.SetCookie(h.cookie(middleware.AccessCookie, pair.AccessToken, pair.AccessExp))
	c.SetCookie(h.cookie(RefreshCookie, pair.RefreshToken, pair.RefreshExp))
}

func (h *AuthHandler) clearCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessCookie, RefreshCookie} {
		ck := h.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) cookie(name, value string, exp time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	// the frontend lives on another site; browsers only send such cookies with SameSite=None
	if h.Cookies.Secure {
		ck.SameSite = http.SameSiteNoneMode
	}
	if d := time.Until(exp); d > 0 {
		ck.MaxAge = int(d.Seconds())
	}
	return ck
}

// authError maps session errors to responses.
func (h *AuthHandler) authError(err error) error {
	switch {
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvalidPassword):
		return response.BadRequest(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrMissingRefreshToken),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenUsed):
		return response.New(h.Cookies.FailStatus, err.Error())
	case errors.Is(err, service.ErrNotificationsDisabled):
		return response.New(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrTokenPersistence):
		return response.Internal(service.ErrTokenPersistence.Error(), err)
	}
	return response.Internal("something went wrong", err)
}
