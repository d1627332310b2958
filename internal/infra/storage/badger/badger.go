// Package badger is an embedded checkpoint store for single-node deployments without Postgres.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/storage"
)

const keyPrefix = "checkpoint/"

// Config holds embedded store settings.
type Config struct {
	Path       string        `yaml:"path"`
	InMemory   bool          `yaml:"in_memory"`
	GCInterval time.Duration `yaml:"gc_interval"`
}

// CheckpointRepo implements storage.CheckpointRepository on BadgerDB.
type CheckpointRepo struct {
	db     *badgerdb.DB
	log    *slog.Logger
	stopGC chan struct{}
	now    func() time.Time
}

var _ storage.CheckpointRepository = (*CheckpointRepo)(nil)

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any)   { l.logger.Error(fmt.Sprintf(format, args...)) }
func (l *badgerLogger) Warningf(format string, args ...any) { l.logger.Warn(fmt.Sprintf(format, args...)) }
func (l *badgerLogger) Infof(format string, args ...any)    { l.logger.Debug(fmt.Sprintf(format, args...)) }
func (l *badgerLogger) Debugf(format string, args ...any)   { l.logger.Debug(fmt.Sprintf(format, args...)) }

// Open opens the store at cfg.Path, or in memory.
func Open(cfg Config) (*CheckpointRepo, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent checkpoint store")
	}

	logger := slog.Default().With("component", "badger")

	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create checkpoint directory %s: %w", cfg.Path, err)
		}
		opts = badgerdb.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(&badgerLogger{logger: logger})

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	r := &CheckpointRepo{db: db, log: logger, stopGC: make(chan struct{}), now: time.Now}
	if !cfg.InMemory {
		interval := cfg.GCInterval
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go r.runGC(interval)
	}
	return r, nil
}

func (r *CheckpointRepo) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopGC:
			return
		case <-ticker.C:
			// ErrNoRewrite means nothing to collect
			if err := r.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				r.log.Warn("value log gc failed", "error", err)
			}
		}
	}
}

type record struct {
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func key(producer string, chainID domain.ChainID) []byte {
	return []byte(keyPrefix + producer + "/" + string(chainID))
}

func parseKey(k string) (string, domain.ChainID) {
	rest := strings.TrimPrefix(k, keyPrefix)
	i := strings.LastIndex(rest, "/")
	if i < 0 {
		return rest, domain.NoChain
	}
	return rest[:i], domain.ChainID(rest[i+1:])
}

// Get retrieves a checkpoint by producer and chain.
func (r *CheckpointRepo) Get(
	ctx context.Context,
	producer string,
	chainID domain.ChainID,
) (*domain.Checkpoint, error) {
	var cp *domain.Checkpoint
	err := r.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(producer, chainID))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var rec record
			if err := sonic.Unmarshal(val, &rec); err != nil {
				return err
			}
			cp = &domain.Checkpoint{
				ProducerName: producer,
				ChainID:      chainID,
				State:        rec.State,
				UpdatedAt:    rec.UpdatedAt,
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return cp, nil
}

// Upsert inserts or replaces a checkpoint.
func (r *CheckpointRepo) Upsert(
	ctx context.Context,
	producer string,
	chainID domain.ChainID,
	state json.RawMessage,
) error {
	val, err := sonic.Marshal(record{State: state, UpdatedAt: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := r.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key(producer, chainID), val)
	}); err != nil {
		return fmt.Errorf("failed to upsert checkpoint: %w", err)
	}
	return nil
}

// List returns every checkpoint in key order.
func (r *CheckpointRepo) List(ctx context.Context) ([]*domain.Checkpoint, error) {
	var result []*domain.Checkpoint
	err := r.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			producer, chainID := parseKey(string(item.Key()))
			err := item.Value(func(val []byte) error {
				var rec record
				if err := sonic.Unmarshal(val, &rec); err != nil {
					return err
				}
				result = append(result, &domain.Checkpoint{
					ProducerName: producer,
					ChainID:      chainID,
					State:        rec.State,
					UpdatedAt:    rec.UpdatedAt,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return result, nil
}

// Close stops background GC and closes the database.
func (r *CheckpointRepo) Close() error {
	select {
	case <-r.stopGC:
	default:
		close(r.stopGC)
	}
	return r.db.Close()
}
