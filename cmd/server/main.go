package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aurelia-be/internal/cache"
	"aurelia-be/internal/config"
	"aurelia-be/internal/db"
	"aurelia-be/internal/graph"
	"aurelia-be/internal/handler"
	"aurelia-be/internal/inventory"
	"aurelia-be/internal/logger"
	"aurelia-be/internal/metrics"
	"aurelia-be/internal/middleware"
	"aurelia-be/internal/notification"
	"aurelia-be/internal/order"
	"aurelia-be/internal/payment"
	"aurelia-be/internal/product"
	"aurelia-be/internal/status"
	"aurelia-be/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var (
	initDBFunc      = db.InitDB
	newRedisFunc    = cache.NewRedisClient
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped with error", zap.Error(err))
	}
}

type app struct {
	handler    http.Handler
	dispatcher *notification.Dispatcher
	limiter    *middleware.RateLimiter
	redis      *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config, database *sql.DB) (*app, error) {
	log := logger.L()
	m := metrics.NewCheckoutMetrics()
	a := &app{}

	var locker inventory.Locker = inventory.NewLocalLocker()
	var idempotency order.IdempotencyStore
	if cfg.RedisURL != "" {
		client, err := newRedisFunc(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		locker = inventory.NewRedisLocker(client, cfg.LockTTL)
		idempotency = cache.NewIdempotencyStore(client)
		log.Info("using redis product locks and idempotency keys")
	} else {
		log.Warn("REDIS_URL not set, product locks are process-local")
	}

	sender := notification.NewLogSender()
	if cfg.SMTPHost != "" {
		s, err := notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			a.closeRedis()
			return nil, err
		}
		sender = s
	} else {
		log.Warn("SMTP_HOST not set, invoices are logged instead of sent")
	}

	a.dispatcher = notification.NewDispatcher(sender, notification.DispatcherConfig{
		Workers:   cfg.NotificationWorkers,
		QueueSize: cfg.NotificationQueueSize,
		Timeout:   cfg.NotificationTimeout,
		StoreName: cfg.StoreName,
	}, m)

	if cfg.PaymentKeySecret == "" {
		log.Warn("PAYMENT_KEY_SECRET not set, paid checkouts will be refused")
	}

	orderSvc := order.NewService(order.Deps{
		Repo:        order.NewRepository(database),
		Products:    product.NewRepository(database),
		Users:       user.NewRepository(database),
		Gate:        status.NewGate(status.NewRepository(database)),
		Verifier:    payment.NewVerifier(cfg.PaymentKeySecret),
		Locker:      locker,
		Notifier:    a.dispatcher,
		Idempotency: idempotency,
		Metrics:     m,

		ReconcileTimeout: cfg.ReconcileTimeout,
	})

	a.limiter = middleware.NewRateLimiter(cfg.InternalSecretKey,
		handler.PathOrders, handler.PathPaymentVerify, handler.PathGraphQL)
	a.handler = handler.NewRouter(
		handler.New(orderSvc, m, database, cfg.CheckoutTimeout),
		handler.RouterConfig{
			JWTSecret:      cfg.JWTSecret,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimiter:    a.limiter,
			GraphQL: graph.NewHandler(&graph.Resolver{
				Orders:          orderSvc,
				CheckoutTimeout: cfg.CheckoutTimeout,
			}),
		},
	)

	return a, nil
}

func (a *app) closeRedis() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		logger.L().Warn("failed to close redis client", zap.Error(err))
	}
}

func (a *app) shutdown(ctx context.Context, srv *http.Server) error {
	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	// In-flight checkouts have returned, so nothing new can be queued.
	if err := a.dispatcher.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	a.closeRedis()
	return errors.Join(errs...)
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.CheckoutTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, database)
	if err != nil {
		return err
	}

	limiterStop := make(chan struct{})
	defer close(limiterStop)
	go a.limiter.Run(limiterStop)

	srv := newHTTPServer(cfg, a.handler)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		serveErr <- startServerFunc(srv)
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.shutdown(shutdownCtx, srv); err != nil {
		log.Error("unclean shutdown", zap.Error(err))
		runErr = errors.Join(runErr, err)
	}

	log.Info("server exited")
	return runErr
}
