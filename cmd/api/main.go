package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/plant-shop/internal/api"
	"github.com/example/plant-shop/internal/auth"
	"github.com/example/plant-shop/internal/command"
	"github.com/example/plant-shop/internal/config"
	"github.com/example/plant-shop/internal/domain/cart"
	"github.com/example/plant-shop/internal/domain/catalog"
	"github.com/example/plant-shop/internal/domain/favorite"
	"github.com/example/plant-shop/internal/domain/user"
	"github.com/example/plant-shop/internal/events"
	"github.com/example/plant-shop/internal/infrastructure/kafka"
	"github.com/example/plant-shop/internal/infrastructure/store"
	"github.com/example/plant-shop/internal/logging"
	"github.com/example/plant-shop/internal/query"
	"github.com/example/plant-shop/internal/reconcile"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("PLANTSHOP_CONFIG"))
	if err != nil {
		log.Fatalf("[API] config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[API] config: %v", err)
	}

	logger, undo, err := logging.Init(cfg.Logger)
	if err != nil {
		log.Fatalf("[API] logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("api stopped", zap.Error(err))
		undo()
		os.Exit(1)
	}
	undo()
}

func run(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := store.Open(connectCtx, cfg.Store)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close(context.Background())

	// With a broker the sweeper consumes plant deletions; without one they
	// are reconciled in-process.
	var (
		publisher  events.Publisher
		dispatcher *events.Dispatcher
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		logger.Info("publishing events to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	} else {
		dispatcher = events.NewDispatcher()
		publisher = dispatcher
		logger.Info("no kafka brokers configured, dispatching events in-process")
	}

	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, time.Hour)
	ledger := cart.NewLedger(st, st, publisher)
	favorites := favorite.NewSet(st, st, publisher)
	catalogSvc := catalog.NewService(st, publisher)
	users := user.NewService(st, jwtService, cfg.Server.AdminEmails)

	if dispatcher != nil {
		dispatcher.Register(reconcile.NewReconciler(st, ledger, favorites).HandleEvent)
	}

	handlers := api.NewHandlers(
		command.NewHandler(ledger, favorites, catalogSvc, users),
		query.NewHandler(ledger, favorites, catalogSvc, users),
		cfg.Server.RequireAuth,
	)
	router := api.NewRouter(api.RouterConfig{
		Handlers:     handlers,
		AuthHandlers: api.NewAuthHandlers(handlers, users),
		JWTService:   jwtService,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.Store.Backend),
			zap.Bool("require_auth", cfg.Server.RequireAuth))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}
