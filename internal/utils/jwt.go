package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 digest of refresh tokens
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/chobar-cart/internal/model"
)

// ErrMalformedClaims is returned when a token verifies but carries no user id.
var ErrMalformedClaims = errors.New("token claims missing user id")

// AccessClaims is the payload of an access token: the user id plus a
// snapshot of the profile fields clients display without another request.
type AccessClaims struct {
	UserID   uint64 `json:"uid"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	PhoneNo  string `json:"phoneNo"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the user id.  The registered ID (jti) makes
// every issued refresh token distinct, even within the same second.
type RefreshClaims struct {
	UserID uint64 `json:"uid"`
	jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a signed long-lived token used to obtain a new
// token pair.  Only HashRefreshRaw(Raw) is persisted.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.
func NewAccessToken(secret string, u *model.User, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := AccessClaims{
		UserID:   u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Email:    u.Email,
		PhoneNo:  u.PhoneNo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 refresh JWT for userID.
func NewRefreshToken(secret string, userID uint64, ttl time.Duration) (RefreshToken, error) {
	now := time.Now().UTC()
	jti, err := NewULID(now)
	if err != nil {
		return RefreshToken{}, err
	}
	exp := now.Add(ttl)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry of an access token.
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(secret, raw, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrMalformedClaims
	}
	return claims, nil
}

// ParseRefreshToken verifies signature, algorithm and expiry of a refresh token.
func ParseRefreshToken(secret, raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(secret, raw, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrMalformedClaims
	}
	return claims, nil
}

func parse(secret, raw string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}
	if !tok.Valid {
		return jwt.ErrTokenSignatureInvalid
	}
	return nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string.  Storing only the hash prevents a leaked users table from being
// replayed against the refresh endpoint.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
