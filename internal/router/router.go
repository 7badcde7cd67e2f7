// Package router wires handlers and middleware into echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/chobar-cart/internal/handler"
)

// Handlers groups everything the routes need.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Products      *handler.ProductHandler
	Categories    *handler.CategoryHandler
	Comments      *handler.CommentHandler
	Likes         *handler.LikeHandler
	Subscriptions *handler.SubscriptionHandler

	Ready   echo.HandlerFunc
	Metrics echo.HandlerFunc // nil leaves /metrics unregistered

	// AuthGate guards the starred routes; Cache wraps the public product reads.
	AuthGate echo.MiddlewareFunc
	Cache    echo.MiddlewareFunc
}

// Register mounts the probes and the /api/v1 surface.
func Register(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready)
	}
	if h.Metrics != nil {
		e.GET("/metrics", h.Metrics)
	}

	api := e.Group("/api/v1")
	gate := h.AuthGate
	cache := h.Cache
	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	users := api.Group("/users")
	users.POST("/register", h.Auth.Register)
	users.POST("/login", h.Auth.Login)
	users.POST("/refresh-token", h.Auth.RefreshToken)
	users.POST("/test-email", h.Auth.TestEmail)
	users.GET("/check-username/:username", h.Users.CheckUsername)
	users.POST("/logout", h.Auth.Logout, gate)
	users.PATCH("/update-password", h.Auth.UpdatePassword, gate)
	users.GET("/current-user", h.Users.CurrentUser, gate)
	users.PATCH("/update-account", h.Users.UpdateAccount, gate)
	users.PATCH("/update-avatar", h.Users.UpdateAvatar, gate)
	users.PATCH("/addto-cart/:productId", h.Users.AddToCart, gate)
	users.PATCH("/removefrom-cart/:productId", h.Users.RemoveFromCart, gate)
	users.GET("/get-account/:username", h.Users.Account, gate)

	cat := api.Group("/category")
	cat.GET("", h.Categories.List)
	cat.GET("/:categoryId", h.Categories.Get)
	cat.POST("/create", h.Categories.Create, gate)
	cat.PATCH("/add-product/:productId/:categoryId", h.Categories.AddProduct, gate)
	cat.PATCH("/remove-product/:productId/:categoryId", h.Categories.RemoveProduct, gate)

	prod := api.Group("/products")
	prod.GET("", h.Products.List, cache)
	prod.GET("/:productId", h.Products.Get, cache)
	prod.POST("/create-product", h.Products.Create, gate)
	prod.PATCH("/:productId", h.Products.Update, gate)
	prod.DELETE("/:productId", h.Products.Delete, gate)

	com := api.Group("/comments", gate)
	com.POST("/:id", h.Comments.Create)
	com.GET("/:id", h.Comments.List)
	com.PATCH("/:id", h.Comments.Update)
	com.DELETE("/:id", h.Comments.Delete)

	likes := api.Group("/likes", gate)
	likes.POST("/product/:productId", h.Likes.ToggleProduct)
	likes.GET("/product/:productId", h.Likes.ProductLikes)
	likes.POST("/comment/:commentId", h.Likes.ToggleComment)
	likes.GET("/user-likes", h.Likes.UserLikes)
	likes.DELETE("/delete-product-like/:likeId", h.Likes.DeleteProductLike)
	likes.DELETE("/delete-comment-like/:likeId", h.Likes.DeleteCommentLike)

	subs := api.Group("/subscriptions", gate)
	subs.POST("/subscribe/:accountId", h.Subscriptions.Subscribe)
	subs.DELETE("/subscribe/:accountId", h.Subscriptions.Unsubscribe)
	subs.GET("/get-subscribed-to/:subscriberId", h.Subscriptions.SubscribedTo)
	subs.GET("/get-subscribers/:accountId", h.Subscriptions.Subscribers)
}
