package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/handlers"
	"github.com/Skotchmaster/handmade_market/internal/service"
	"github.com/Skotchmaster/handmade_market/internal/session"
)

type Deps struct {
	DB              *gorm.DB
	AuthHandler     *handlers.AuthHandler
	CatalogHandler  *handlers.CatalogHandler
	CartHandler     *handlers.CartHandler
	CheckoutHandler *handlers.CheckoutHandler
	OrderHandler    *handlers.OrderHandler
	WishlistHandler *handlers.WishlistHandler
	SearchHandler   *handlers.SearchHandler
	TokenService    *service.TokenService
	SessionStore    session.Store
	SessionTTL      time.Duration
	SecureCookies   bool
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
	})

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)

	e.GET("/products", d.CatalogHandler.GetProducts)
	e.GET("/products/featured", d.CatalogHandler.GetFeatured)
	e.GET("/product/:id", d.CatalogHandler.GetProduct)
	e.GET("/search", d.SearchHandler.Search)

	// Cart and checkout ride on the browser session.
	sess := session.Middleware(d.SessionStore, d.SessionTTL, d.SecureCookies)

	e.GET("/cart", d.CartHandler.GetCart, sess)
	e.GET("/api/cart", d.CartHandler.GetCartState, sess)
	e.POST("/add_to_cart", d.CartHandler.AddToCart, sess)
	e.POST("/update_cart", d.CartHandler.UpdateCart, sess)
	e.GET("/remove_from_cart/:id", d.CartHandler.RemoveFromCart, sess)

	e.GET("/checkout", d.CheckoutHandler.Review, sess)

	auth := d.TokenService.RequireUser

	co := e.Group("/checkout", sess, auth)
	co.GET("/shipping", d.CheckoutHandler.GetShipping)
	co.POST("/shipping", d.CheckoutHandler.PostShipping)
	co.GET("/payment", d.CheckoutHandler.GetPayment)
	co.POST("/payment", d.CheckoutHandler.PostPayment)
	co.GET("/confirmation", d.CheckoutHandler.GetConfirmation)
	co.POST("/confirmation", d.CheckoutHandler.PostConfirmation)

	e.GET("/orders", d.OrderHandler.History, auth)
	e.GET("/order/:id", d.OrderHandler.Detail, auth)
	e.GET("/order/success/:id", d.OrderHandler.Success, auth)
	e.POST("/order/cancel/:id", d.OrderHandler.Cancel, auth)

	e.GET("/wishlist", d.WishlistHandler.List, auth)
	e.POST("/toggle_wishlist/:id", d.WishlistHandler.Toggle, auth)

	e.GET("/profile", d.AuthHandler.Profile, auth)
	e.PUT("/profile", d.AuthHandler.UpdateProfile, auth)
	e.POST("/profile/password", d.AuthHandler.ChangePassword, auth)
}
