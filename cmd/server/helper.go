package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/hoops-valuation/internal/config"
	"github.com/yourorg/hoops-valuation/internal/tabstate"
)

// openTabState builds the configured tab state backend. The returned func
// releases its connections.
func openTabState(ctx context.Context, cfg config.Config) (*tabstate.Store, func(), error) {
	noop := func() {}

	switch cfg.TabStateBackend {
	case config.BackendMemory, "":
		return tabstate.New(tabstate.NewMemoryStore()), noop, nil

	case config.BackendFile:
		logrus.WithField("dir", cfg.TabStateDir).Info("Tab state stored in JSON files")
		return tabstate.New(tabstate.NewFileStore(cfg.TabStateDir)), noop, nil

	case config.BackendRedis:
		client, err := tabstate.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		logrus.Info("Tab state stored in Redis")
		return tabstate.New(tabstate.NewRedisStore(client, tabstate.DefaultRedisTTL)), func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, noop, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		db, err := tabstate.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := tabstate.Migrate(db); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("migrating tab state schema: %w", err)
		}
		logrus.Info("Tab state stored in Postgres")
		return tabstate.New(tabstate.NewPostgresStore(db)), func() { _ = db.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown TABSTATE_BACKEND %q", cfg.TabStateBackend)
}
