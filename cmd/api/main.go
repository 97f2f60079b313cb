package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/seedshop-backend/api/controllers"
	"github.com/angelmondragon/seedshop-backend/api/routes"
	"github.com/angelmondragon/seedshop-backend/internal/about"
	"github.com/angelmondragon/seedshop-backend/internal/admin"
	"github.com/angelmondragon/seedshop-backend/internal/cart"
	"github.com/angelmondragon/seedshop-backend/internal/categories"
	"github.com/angelmondragon/seedshop-backend/internal/checkout"
	"github.com/angelmondragon/seedshop-backend/internal/orders"
	"github.com/angelmondragon/seedshop-backend/internal/payments"
	product "github.com/angelmondragon/seedshop-backend/internal/products"
	"github.com/angelmondragon/seedshop-backend/internal/users"
	stripewebhook "github.com/angelmondragon/seedshop-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/seedshop-backend/pkg/config"
	"github.com/angelmondragon/seedshop-backend/pkg/db"
	"github.com/angelmondragon/seedshop-backend/pkg/db/models"
	"github.com/angelmondragon/seedshop-backend/pkg/logger"
	"github.com/angelmondragon/seedshop-backend/pkg/metrics"
	"github.com/angelmondragon/seedshop-backend/pkg/outbox"
	"github.com/angelmondragon/seedshop-backend/pkg/redis"
	"github.com/angelmondragon/seedshop-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	// Postgres schemas are owned by the hosted project; sqlite is for local runs.
	if cfg.DB.IsSQLite() {
		if err := dbClient.AutoMigrate(ctx, models.All()...); err != nil {
			return err
		}
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}
	gateway, err := stripe.NewGateway(stripe.NewCheckoutSessionClient(stripeClient), stripeClient.Currency())
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	inventory := product.NewInventory()

	productService, err := product.NewService(product.NewRepository(conn), dbClient)
	if err != nil {
		return err
	}
	categoryService, err := categories.NewService(categories.NewRepository(conn))
	if err != nil {
		return err
	}
	aboutService, err := about.NewService(conn)
	if err != nil {
		return err
	}
	userService, err := users.NewService(users.NewRepository(conn), logg)
	if err != nil {
		return err
	}
	statsService, err := admin.NewStatsService(conn)
	if err != nil {
		return err
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Checkout.CartTTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartStore, product.NewRepository(conn))
	if err != nil {
		return err
	}

	orderRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(orderRepo, dbClient, outboxSvc, inventory, logg)
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Config: checkout.Config{
			FrontendURL:                cfg.App.FrontendURL,
			CompensateOnPaymentFailure: cfg.Checkout.CompensateOnPaymentFailure,
		},
		Tx:        dbClient,
		Carts:     cartService,
		Orders:    orderRepo,
		Canceller: orderService,
		Inventory: inventory,
		Outbox:    outboxSvc,
		Payments:  gateway,
		Logger:    logg,
		Metrics:   checkoutMetrics,
	})
	if err != nil {
		return err
	}

	paymentService, err := payments.NewService(gateway, orderService, logg, checkoutMetrics)
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:   orderService,
		Sessions: orderRepo,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookIdempotencyTTL, "stripe")
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			Pingers:        map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
			Store:          redisClient,
			Metrics:        registry,
			Products:       productService,
			Categories:     categoryService,
			About:          aboutService,
			Users:          userService,
			Cart:           cartService,
			Checkout:       checkoutService,
			Payments:       paymentService,
			Orders:         orderService,
			Stats:          statsService,
			StripeEvents:   stripeClient,
			StripeWebhooks: webhookService,
			WebhookGuard:   webhookGuard,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
