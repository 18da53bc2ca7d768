package echoServer

import (
	"github.com/labstack/echo/v4"

	authctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/auth"
	bookctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/book"
	entctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/entitlement"
	offerctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/offer"
	reportctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/report"
	subctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/subscription"
	walletctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/wallet"
)

type C struct {
	Auth         *authctrl.Controller
	Book         *bookctrl.Controller
	Entitlement  *entctrl.Controller
	Offer        *offerctrl.Controller
	Subscription *subctrl.Controller
	Report       *reportctrl.Controller
	Wallet       *walletctrl.Controller
	JWTSecret    string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/auth/register", c.Auth.Register)
	pub.POST("/auth/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(JWT(c.JWTSecret))
	auth.Use(Claims())

	// Books & taxonomy
	auth.GET("/books", c.Book.List)
	auth.GET("/books/:id", c.Book.Detail)
	auth.GET("/authors", c.Book.ListAuthors)
	auth.GET("/categories", c.Book.ListCategories)
	auth.GET("/types", c.Book.ListTypes)

	// Entitlements
	auth.POST("/books/:id/buy", c.Entitlement.Buy)
	auth.POST("/books/:id/borrow", c.Entitlement.Borrow)
	auth.POST("/books/:id/return", c.Entitlement.Return)
	auth.GET("/books/:id/access", c.Entitlement.Access)

	// Offers
	auth.POST("/offers", c.Offer.Create)
	auth.GET("/offers/:id", c.Offer.Get)
	auth.POST("/offers/:id/accept", c.Offer.Accept)

	// Subscriptions
	auth.GET("/plans", c.Subscription.ListPlans)
	auth.POST("/plans/:id/subscribe", c.Subscription.Activate)
	auth.GET("/subscriptions/my", c.Subscription.My)

	// Account
	auth.GET("/users/me", c.Wallet.Me)
	auth.GET("/transactions/my", c.Report.MyTransactions)

	// Admin
	admin := e.Group("/v1/admin")
	admin.Use(JWT(c.JWTSecret))
	admin.Use(Claims())
	admin.Use(AdminOnly())

	admin.POST("/books", c.Book.Create)
	admin.PUT("/books/:id", c.Book.Update)
	admin.DELETE("/books/:id", c.Book.Delete)
	admin.POST("/authors", c.Book.CreateAuthor)
	admin.POST("/categories", c.Book.CreateCategory)
	admin.POST("/types", c.Book.CreateType)

	admin.POST("/plans", c.Subscription.CreatePlan)
	admin.PUT("/plans/:id", c.Subscription.UpdatePlan)
	admin.DELETE("/plans/:id", c.Subscription.DeletePlan)
	admin.DELETE("/subscriptions/:id", c.Subscription.Deactivate)

	admin.PUT("/offers/:id", c.Offer.Update)
	admin.DELETE("/offers/:id", c.Offer.Delete)

	admin.POST("/users/:id/credit", c.Wallet.Credit)
	admin.GET("/reports/revenue", c.Report.TotalRevenue)
	admin.GET("/reports/revenue/by-type", c.Report.RevenueByType)
	admin.GET("/reports/books/borrowed", c.Report.BorrowedBooks)
	admin.GET("/reports/books/sold", c.Report.SoldBooks)
	admin.GET("/reports/statistics", c.Report.LibraryStatistics)
}
