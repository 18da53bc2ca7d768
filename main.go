// Package main Digital Library API.
//
// @title           Digital Library API
// @version         1.0
// @description     Digital library backend: catalog, purchases, borrows, subscriptions, offers.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/r6mez/Digital-Library-API/app/echoServer"
	authctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/auth"
	bookctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/book"
	entctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/entitlement"
	offerctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/offer"
	reportctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/report"
	subctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/subscription"
	walletctrl "github.com/r6mez/Digital-Library-API/app/echoServer/controller/wallet"
	"github.com/r6mez/Digital-Library-API/app/echoServer/validation"
	"github.com/r6mez/Digital-Library-API/config"
	authrepo "github.com/r6mez/Digital-Library-API/repository/auth"
	catalogrepo "github.com/r6mez/Digital-Library-API/repository/catalog"
	entrepo "github.com/r6mez/Digital-Library-API/repository/entitlement"
	ledgerrepo "github.com/r6mez/Digital-Library-API/repository/ledger"
	mailerrepo "github.com/r6mez/Digital-Library-API/repository/mailer"
	offerrepo "github.com/r6mez/Digital-Library-API/repository/offer"
	authsvc "github.com/r6mez/Digital-Library-API/service/auth"
	catalogsvc "github.com/r6mez/Digital-Library-API/service/catalog"
	ledgersvc "github.com/r6mez/Digital-Library-API/service/ledger"
	"github.com/r6mez/Digital-Library-API/service/txn"
	walletsvc "github.com/r6mez/Digital-Library-API/service/wallet"
	"github.com/r6mez/Digital-Library-API/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, cfg.DatabaseURL); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	// repos
	ar := authrepo.New(db)
	cr := catalogrepo.New(db)
	er := entrepo.New(db)
	lr := ledgerrepo.New(db)
	or := offerrepo.New(db)
	mr := mailerrepo.NewSMTP(mailerrepo.Config{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	// services
	as := authsvc.New(ar, cfg.JWTSecret)
	cs := catalogsvc.New(cr)
	ts := txn.New(db, cr, er, lr, or, mr, log)
	ls := ledgersvc.New(lr, entrepo.NewStats(db))
	ws := walletsvc.New(db, er)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: cs, V: v, Log: log}
	entC := &entctrl.Controller{Svc: ts, V: v, Log: log}
	offerC := &offerctrl.Controller{Svc: ts, V: v, Log: log}
	subC := &subctrl.Controller{Catalog: cs, Txn: ts, V: v, Log: log}
	reportC := &reportctrl.Controller{Svc: ls, Log: log}
	walletC := &walletctrl.Controller{Svc: ws, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Book:         bookC,
		Entitlement:  entC,
		Offer:        offerC,
		Subscription: subC,
		Report:       reportC,
		Wallet:       walletC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
