package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/coldbreeze/storefront/internal/auth"
	"github.com/coldbreeze/storefront/internal/checkout"
	"github.com/coldbreeze/storefront/internal/config"
	"github.com/coldbreeze/storefront/internal/coupon"
	"github.com/coldbreeze/storefront/internal/httpserver"
	"github.com/coldbreeze/storefront/internal/logging"
	"github.com/coldbreeze/storefront/internal/middleware/csrf"
	"github.com/coldbreeze/storefront/internal/mykafka"
	"github.com/coldbreeze/storefront/internal/orders"
	"github.com/coldbreeze/storefront/internal/payment"
	"github.com/coldbreeze/storefront/internal/stock"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	stripeProvider, err := payment.NewStripeProvider(configuration.STRIPE_SECRET_KEY)
	if err != nil {
		log.Fatalf("stripe init failed: %v", err)
	}

	couponValidator := coupon.NewValidator(db)
	orderService := orders.NewService(db, stripeProvider, configuration.APP_URL)
	finalizer := checkout.NewFinalizer(db)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(logging.Middleware(logger))
	e.Use(csrf.Middleware(csrf.Config{
		SkipPaths: []string{"/webhooks/stripe"},
	}))

	deps := httpserver.Deps{
		JWTSecret: jwtSecret,
		AuthHandler: &httpserver.AuthHandler{
			DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Producer: prod,
		},
		CartHandler:     &httpserver.CartHandler{DB: db, Stock: stock.NewLedger(db), Producer: prod},
		CouponHandler:   &httpserver.CouponHandler{Validator: couponValidator},
		CheckoutHandler: &httpserver.CheckoutHandler{Finalizer: finalizer, Producer: prod},
		OrderHandler:    &httpserver.OrderHandler{Svc: orderService, Producer: prod},
		ShippingHandler: &httpserver.ShippingHandler{},
		WebhookHandler: &httpserver.WebhookHandler{
			Orders: orderService, WebhookSecret: configuration.STRIPE_WEBHOOK_SECRET,
		},
	}
	httpserver.Register(e, &deps, auth.RequireLogin(jwtSecret), auth.RequireAdmin(jwtSecret))

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
