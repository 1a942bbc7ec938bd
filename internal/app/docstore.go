package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/telegrasper/internal/core/errors"
	"github.com/lueurxax/telegrasper/internal/core/ports"
	"github.com/lueurxax/telegrasper/internal/platform/config"
	"github.com/lueurxax/telegrasper/internal/storage/mongodb"
	"github.com/lueurxax/telegrasper/internal/storage/postgres"
)

// DocStore is a document store that can set up its own schema.
type DocStore interface {
	ports.DocumentStore
	Migrate(ctx context.Context) error
}

// OpenDocStore connects the backend selected by DOCSTORE_DRIVER.
func OpenDocStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (DocStore, func(), error) {
	switch cfg.DocStoreDriver {
	case config.DocStoreMongo:
		store, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("document store: %w", err)
		}

		return store, func() { _ = store.Close(context.Background()) }, nil
	case config.DocStorePostgres:
		db, err := postgres.New(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("document store: %w", err)
		}

		return db, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown DOCSTORE_DRIVER %q", coreerrors.ErrInvalidConfig, cfg.DocStoreDriver)
	}
}
