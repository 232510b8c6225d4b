// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"inkvault/internal/api"
	"inkvault/internal/cart"
	"inkvault/internal/catalog"
	"inkvault/internal/checkout"
	"inkvault/internal/config"
	"inkvault/internal/entitlement"
	"inkvault/internal/ledger"
	"inkvault/internal/platform/database"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Info().Str("app", cfg.AppName).Msg("starting")

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer db.Close()

	shutdownTracing, err := initTracing(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize tracing")
	}
	defer shutdownTracing()

	lg := ledger.New(db.SQL)

	catalogSvc := catalog.NewService(db.SQL)
	cartSvc := cart.NewService(db.SQL, catalogSvc)
	entitlementSvc := entitlement.NewService(db.SQL, lg)
	payments := checkout.NewGuardedProcessor(checkout.DummyProcessor{}, cfg.PaymentTimeout)
	checkoutSvc := checkout.NewService(db.SQL, catalogSvc, cartSvc, entitlementSvc, lg, payments)

	searchLimiter := rate.NewLimiter(rate.Limit(cfg.SearchRPS), cfg.SearchBurst)

	catalogHandler := catalog.NewHandler(catalogSvc, searchLimiter)
	cartHandler := cart.NewHandler(cartSvc)
	checkoutHandler := checkout.NewHandler(checkoutSvc)
	entitlementHandler := entitlement.NewHandler(entitlementSvc, cfg.BooksDir)

	router := chi.NewRouter()
	router.Use(api.Recover)
	router.Use(api.SecurityHeaders)

	router.Get("/books", catalogHandler.HandleList)
	router.Get("/books/{id}", catalogHandler.HandleGet)
	router.Get("/search/books", catalogHandler.HandleSearch)

	router.Group(func(r chi.Router) {
		r.Use(api.RequireSubject)

		r.Get("/books/mine", entitlementHandler.HandleListOwned)
		r.Get("/books/read/{id}", entitlementHandler.HandleRead)
		r.Get("/books/{id}/ownership", entitlementHandler.HandleOwnership)

		r.Post("/cart/items", cartHandler.HandleAddItem)
		r.Get("/cart", cartHandler.HandleGetCart)
		r.Put("/cart/items/{id}", cartHandler.HandleUpdateItem)
		r.Delete("/cart/items/{id}", cartHandler.HandleRemoveItem)
		r.Delete("/cart", cartHandler.HandleClearCart)

		r.Post("/checkout", checkoutHandler.HandleCreateOrder)
		r.Get("/checkout/orders", checkoutHandler.HandleListOrders)
		r.Get("/checkout/orders/{order_number}", checkoutHandler.HandleGetOrder)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("stopped")
}

// initTracing installs an OTLP trace exporter when an endpoint is configured.
// Without one the no-op global tracer stays in place and spans cost nothing.
func initTracing(cfg config.Config) (func(), error) {
	if cfg.OTLPEndpoint == "" {
		return func() {}, nil
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("tracer provider shutdown failed")
		}
	}, nil
}
