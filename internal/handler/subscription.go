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

type SubscriptionStore interface {
	Create(ctx context.Context, subscriberID, accountID uint64) (*model.Subscription, error)
	Delete(ctx context.Context, subscriberID, accountID uint64) error
	ListSubscribedTo(ctx context.Context, subscriberID uint64) ([]model.SubscriptionEntry, error)
	ListSubscribers(ctx context.Context, accountID uint64) ([]model.SubscriptionEntry, error)
}

type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

func NewSubscriptionHandler(s SubscriptionStore) *SubscriptionHandler {
	return &SubscriptionHandler{Subscriptions: s}
}

// Subscribe makes the caller follow :accountId.
func (h *SubscriptionHandler) Subscribe(c echo.Context) error {
	subscriber, err := userID(c)
	if err != nil {
		return err
	}
	account, err := parseID(c, "accountId", "account")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sub, err := h.Subscriptions.Create(ctx, subscriber, account)
	switch {
	case errors.Is(err, repository.ErrSelfSubscription):
		return response.BadRequest("you cannot subscribe to your own account")
	case errors.Is(err, repository.ErrDuplicate):
		return response.BadRequest("already subscribed to this account")
	case err != nil:
		return storeError(err, "account not found")
	}
	return response.JSON(c, http.StatusOK, sub, "Followed successfully")
}

func (h *SubscriptionHandler) Unsubscribe(c echo.Context) error {
	subscriber, err := userID(c)
	if err != nil {
		return err
	}
	account, err := parseID(c, "accountId", "account")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Subscriptions.Delete(ctx, subscriber, account); err != nil {
		return storeError(err, "subscriber not found")
	}
	return response.JSON(c, http.StatusOK, nil, "Unfollowed successfully")
}

func (h *SubscriptionHandler) SubscribedTo(c echo.Context) error {
	id, err := parseID(c, "subscriberId", "subscriber")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Subscriptions.ListSubscribedTo(ctx, id)
	if err != nil {
		return response.Internal("could not list subscriptions", err)
	}
	if len(list) == 0 {
		return response.BadRequest("User has not subscribed to any account")
	}
	return response.JSON(c, http.StatusOK, list, "subscribed accounts fetched successfully")
}

func (h *SubscriptionHandler) Subscribers(c echo.Context) error {
	id, err := parseID(c, "accountId", "account")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Subscriptions.ListSubscribers(ctx, id)
	if err != nil {
		return response.Internal("could not list subscribers", err)
	}
	return response.JSON(c, http.StatusOK, list, "subscribers fetched successfully")
}
