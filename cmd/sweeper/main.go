package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/plant-shop/internal/config"
	"github.com/example/plant-shop/internal/domain/cart"
	"github.com/example/plant-shop/internal/domain/favorite"
	"github.com/example/plant-shop/internal/events"
	"github.com/example/plant-shop/internal/infrastructure/kafka"
	"github.com/example/plant-shop/internal/infrastructure/store"
	"github.com/example/plant-shop/internal/logging"
	"github.com/example/plant-shop/internal/reconcile"
	"go.uber.org/zap"
)

// The sweeper purges cart lines and favorites that point at deleted plants.
// It follows PlantDeleted events on Kafka and runs a full sweep on a schedule
// to catch anything removed behind the API's back.
func main() {
	cfg, err := config.Load(os.Getenv("PLANTSHOP_CONFIG"))
	if err != nil {
		log.Fatalf("[Sweeper] config: %v", err)
	}

	logger, undo, err := logging.Init(cfg.Logger)
	if err != nil {
		log.Fatalf("[Sweeper] logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("sweeper stopped", zap.Error(err))
		undo()
		os.Exit(1)
	}
	undo()
}

func run(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) error {
	if err := reconcile.ValidateSchedule(cfg.Sweeper.Schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", cfg.Sweeper.Schedule, err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := store.Open(connectCtx, cfg.Store)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close(context.Background())

	// Purges made here are not re-published.
	ledger := cart.NewLedger(st, st, events.Nop{})
	favorites := favorite.NewSet(st, st, events.Nop{})
	reconciler := reconcile.NewReconciler(st, ledger, favorites)

	sched, err := reconcile.NewScheduler(reconciler, cfg.Sweeper.Schedule)
	if err != nil {
		return err
	}
	sched.Start()
	logger.Info("sweep scheduled", zap.String("schedule", cfg.Sweeper.Schedule))

	done := make(chan struct{})
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		defer consumer.Close()
		go func() {
			defer close(done)
			logger.Info("consuming plant events",
				zap.Strings("brokers", cfg.Kafka.Brokers),
				zap.String("topic", cfg.Kafka.Topic),
				zap.String("group", cfg.Kafka.GroupID))
			if err := consumer.Consume(ctx, reconciler.HandleEvent); err != nil && ctx.Err() == nil {
				logger.Error("consumer stopped", zap.Error(err))
			}
		}()
	} else {
		close(done)
		logger.Info("no kafka brokers configured, running scheduled sweeps only")
	}

	<-ctx.Done()
	logger.Info("shutting down")
	<-sched.Stop().Done()
	<-done
	return nil
}
