package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/vietddude/notifier/internal/core/checkpoint"
	"github.com/vietddude/notifier/internal/core/config"
	badgerstore "github.com/vietddude/notifier/internal/infra/storage/badger"
	"github.com/vietddude/notifier/internal/infra/storage/postgres"
)

// openCheckpoints opens the persistent checkpoint store the daemon is configured with.
func openCheckpoints(ctx context.Context, cfg *config.AppConfig) (checkpoint.Store, io.Closer, error) {
	switch cfg.Checkpoint.Backend {
	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return postgres.NewCheckpointRepo(db), db, nil
	case config.BackendBadger:
		repo, err := badgerstore.Open(badgerstore.Config{Path: cfg.Checkpoint.BadgerPath})
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("checkpoint backend %q is not persistent", cfg.Checkpoint.Backend)
	}
}
