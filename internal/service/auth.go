// Package service holds the session logic: registration, login, refresh
// token rotation, logout and access token authentication.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/chobar-cart/internal/model"
	"github.com/iliyamo/chobar-cart/internal/queue"
	"github.com/iliyamo/chobar-cart/internal/repository"
	"github.com/iliyamo/chobar-cart/internal/utils"
)

// Errors returned by AuthService.  Their text is safe to show to clients.
var (
	ErrUserExists            = errors.New("user with email, phone no. or username already exists")
	ErrUserNotFound          = errors.New("user with email, username or phone no. not found")
	ErrInvalidCredentials    = errors.New("incorrect password")
	ErrInvalidPassword       = errors.New("invalid old password")
	ErrMissingRefreshToken   = errors.New("unauthorized request")
	ErrMissingAccessToken    = errors.New("unauthorized request")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrRefreshTokenUsed      = errors.New("refresh token expired or used")
	ErrInvalidAccessToken    = errors.New("invalid access token")
	ErrTokenPersistence      = errors.New("something went wrong while generating access and refresh token")
	ErrNotificationsDisabled = errors.New("email notifications are not configured")
)

// UserStore is the part of the credential store the session logic needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	ExistsByIdentity(ctx context.Context, email, phone, username string) (bool, error)
	SetRefreshToken(ctx context.Context, userID uint64, hash string) error
	SwapRefreshToken(ctx context.Context, userID uint64, oldHash, newHash string) error
	ClearRefreshToken(ctx context.Context, userID uint64) error
	UpdatePassword(ctx context.Context, userID uint64, hash string) error
}

// EmailPublisher queues outbound email.
type EmailPublisher interface {
	Publish(ctx context.Context, ev queue.EmailRequestedEvent) error
}

// TokenConfig carries the signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	AccessExp    time.Time `json:"-"`
	RefreshExp   time.Time `json:"-"`
}

// RegisterInput is a validated registration request.
type RegisterInput struct {
	FullName string
	Username string
	Email    string
	PhoneNo  string
	Password string
	Avatar   string
}

type AuthService struct {
	users UserStore
	pub   EmailPublisher // nil disables email events
	cfg   TokenConfig
	log   *slog.Logger
}

func NewAuthService(users UserStore, pub EmailPublisher, cfg TokenConfig, log *slog.Logger) *AuthService {
	return &AuthService{users: users, pub: pub, cfg: cfg, log: log}
}

// Register creates an account without starting a session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	exists, err := s.users.ExistsByIdentity(ctx, in.Email, in.PhoneNo, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check identity: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		FullName:     in.FullName,
		Username:     in.Username,
		Email:        in.Email,
		PhoneNo:      in.PhoneNo,
		PasswordHash: hash,
		Avatar:       in.Avatar,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	created, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	s.notify(queue.EmailRequestedEvent{Kind: queue.EmailWelcome, To: created.Email, Username: created.Username})
	return created, nil
}

// Login checks the password of the user identified by email, username or
// phone number and starts a new session, replacing any previous one.
func (s *AuthService) Login(ctx context.Context, login, password string) (*model.User, TokenPair, error) {
	u, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrUserNotFound
		}
		return nil, TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens signs a new pair for u and stores the refresh token,
// overwriting whatever was stored before.
func (s *AuthService) IssueTokens(ctx context.Context, u *model.User) (TokenPair, error) {
	pair, hash, err := s.sign(u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, hash); err != nil {
		s.log.Error("store refresh token", "user_id", u.ID, "err", err)
		return TokenPair{}, fmt.Errorf("%w: %v", ErrTokenPersistence, err)
	}
	return pair, nil
}

func (s *AuthService) sign(u *model.User) (TokenPair, string, error) {
	at, err := utils.NewAccessToken(s.cfg.AccessSecret, u, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, "", fmt.Errorf("%w: %v", ErrTokenPersistence, err)
	}
	rt, err := utils.NewRefreshToken(s.cfg.RefreshSecret, u.ID, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, "", fmt.Errorf("%w: %v", ErrTokenPersistence, err)
	}
	pair := TokenPair{AccessToken: at.Token, AccessExp: at.Exp, RefreshToken: rt.Raw, RefreshExp: rt.Exp}
	return pair, utils.HashRefreshRaw(rt.Raw), nil
}

// Refresh exchanges a refresh token for a new pair.  Only the most recently
// issued token is accepted; the swap of the stored token is conditional on
// it still being the presented one, so of two concurrent refreshes with the
// same token exactly one wins.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*model.User, TokenPair, error) {
	if raw == "" {
		return nil, TokenPair{}, ErrMissingRefreshToken
	}
	claims, err := utils.ParseRefreshToken(s.cfg.RefreshSecret, raw)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidRefreshToken
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidRefreshToken
		}
		return nil, TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	presented := utils.HashRefreshRaw(raw)
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != presented {
		return nil, TokenPair{}, ErrRefreshTokenUsed
	}

	pair, next, err := s.sign(u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.users.SwapRefreshToken(ctx, u.ID, presented, next); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			return nil, TokenPair{}, ErrRefreshTokenUsed
		}
		s.log.Error("rotate refresh token", "user_id", u.ID, "err", err)
		return nil, TokenPair{}, fmt.Errorf("%w: %v", ErrTokenPersistence, err)
	}
	u.RefreshTokenHash = &next
	return u, pair, nil
}

// Logout clears the stored refresh token.  Calling it twice is harmless.
func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	return s.users.ClearRefreshToken(ctx, userID)
}

// Authenticate resolves an access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.User, error) {
	if raw == "" {
		return nil, ErrMissingAccessToken
	}
	claims, err := utils.ParseAccessToken(s.cfg.AccessSecret, raw)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the password after checking the old one.  The
// stored refresh token is dropped, so the user has to log in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, oldPassword) {
		return ErrInvalidPassword
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// SendVerificationCode queues an email with a fresh six digit code and
// returns the code.
func (s *AuthService) SendVerificationCode(ctx context.Context, email, username string) (string, error) {
	if s.pub == nil {
		return "", ErrNotificationsDisabled
	}
	code, err := utils.VerificationCode()
	if err != nil {
		return "", err
	}
	ev := queue.EmailRequestedEvent{Kind: queue.EmailVerification, To: email, Username: username, Code: code}
	if err := s.pub.Publish(ctx, ev); err != nil {
		return "", fmt.Errorf("publish verification email: %w", err)
	}
	return code, nil
}

// notify publishes in the background; a broker outage never fails the request.
func (s *AuthService) notify(ev queue.EmailRequestedEvent) {
	if s.pub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.pub.Publish(ctx, ev); err != nil {
			s.log.Warn("email event not published", "kind", ev.Kind, "err", err)
		}
	}()
}
