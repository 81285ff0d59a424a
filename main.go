package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	intconfig "github.com/aw226929-cmd/iturnin-backend/internal/config"
	router "github.com/aw226929-cmd/iturnin-backend/internal/http"
	"github.com/aw226929-cmd/iturnin-backend/internal/repositories"
	"github.com/aw226929-cmd/iturnin-backend/internal/services"
	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

func main() {
	env, err := intconfig.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	gin.SetMode(env.Server.GinMode)

	logger, err := utils.InitLogger(env.Server.LogLevel, env.Server.GinMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, ledger, closeStore := openStores(env.Storage)
	defer closeStore()

	distance, err := services.NewDistanceProvider(env.Maps.APIKey, env.Maps.OriginAddress)
	if err != nil {
		logger.Fatal("distance provider", zap.Error(err))
	}
	if _, ok := distance.(services.ZeroDistance); ok {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, every distance is 0 miles")
	}
	if env.Stripe.WebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set, webhooks will be rejected")
	}

	prices := env.Pricing.Table()
	gateway := services.NewStripeGateway(env.Stripe.SecretKey, env.Stripe.WebhookSecret, env.Stripe.Currency, nil)
	docs := services.DocsService{Store: store, Prices: prices}

	var notifier services.Notifier = services.NoopNotifier{}
	if env.Mail.MailEnabled() {
		mail := services.NewEmailService(env.Mail.Host, env.Mail.Port, env.Mail.User, env.Mail.Password, env.Mail.From, env.Mail.AdminEmail)
		mail.Receipt = docs.BuildReceipt
		notifier = mail
	} else {
		logger.Warn("SMTP not configured, confirmation mails are disabled")
	}

	r := router.NewRouter(env, router.Services{
		Bookings: services.BookingService{
			Store:    store,
			Distance: distance,
			Payments: gateway,
			Prices:   prices,
		},
		Webhooks: services.WebhookService{
			Store:    store,
			Ledger:   ledger,
			Payments: gateway,
			Notifier: notifier,
		},
		Docs: docs,
	})

	srv := &http.Server{
		Addr:              env.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       env.Server.ReadTimeout,
		WriteTimeout:      env.Server.WriteTimeout,
		IdleTimeout:       env.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", env.Server.Addr()), zap.String("origin", env.Maps.OriginAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

// openStores uses MySQL when MYSQL_DSN is set and the JSON files otherwise.
func openStores(cfg intconfig.StorageConfig) (repositories.BookingStore, repositories.EventLedger, func()) {
	if cfg.MySQLDSN == "" {
		store, err := repositories.NewFileBookingStore(cfg.DataFile)
		if err != nil {
			zap.L().Fatal("booking file", zap.Error(err))
		}
		ledger, err := repositories.NewFileEventLedger(cfg.EventsFile)
		if err != nil {
			zap.L().Fatal("event ledger file", zap.Error(err))
		}
		zap.L().Info("using file store", zap.String("data_file", cfg.DataFile))
		return store, ledger, func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := intconfig.ConnectDB(ctx, cfg.MySQLDSN)
	if err != nil {
		zap.L().Fatal("mysql connect", zap.Error(err))
	}
	store := repositories.MySQLBookingStore{DB: db}
	ledger := repositories.MySQLEventLedger{DB: db}
	for _, ensure := range []func(context.Context) error{store.EnsureSchema, ledger.EnsureSchema} {
		if err := ensure(ctx); err != nil {
			zap.L().Fatal("mysql schema", zap.Error(err))
		}
	}
	zap.L().Info("using mysql store")
	return store, ledger, closeDB(db)
}

func closeDB(db *sqlx.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			zap.L().Warn("close mysql", zap.Error(err))
		}
	}
}
