package db

import (
	"context"
	"fmt"

	"github.com/bishop254/vts-backend/internal/config"
	log "github.com/sirupsen/logrus"
)

// Store bundles the collections of one storage backend.
type Store struct {
	Vehicles  VehicleCollection
	Locations LocationCollection
	Users     UserCollection

	close func(ctx context.Context) error
}

// Open connects to the configured backend and prepares its indexes or schema.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	switch cfg.Backend {
	case "mongo":
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store, err := NewMongoStore(ctx, client.Database(cfg.MongoDB))
		if err != nil {
			client.Disconnect(ctx)
			return nil, err
		}
		store.close = client.Disconnect
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		return store, nil
	case "postgres":
		pool, err := ConnectPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("Connected to PostgreSQL")
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
