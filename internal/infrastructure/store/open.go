package store

import (
	"context"
	"fmt"

	"github.com/example/plant-shop/internal/config"
	"go.uber.org/zap"
)

// Open connects the configured backend and prepares its indexes or schema.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "mongo":
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		st := NewMongoStore(client, cfg.MongoDB)
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
		zap.L().Info("connected to mongo", zap.String("database", cfg.MongoDB))
		return st, nil
	case "postgres":
		db, err := ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		st := NewPostgresStore(db)
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close(ctx)
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		zap.L().Info("connected to postgres")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
