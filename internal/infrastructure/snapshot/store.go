// Package snapshot persists activity snapshots in an embedded badger store.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/config"
)

var activityKey = []byte("activity/snapshot")

// Store keeps the latest activity snapshot.
type Store struct {
	db *badger.DB
}

// Open opens the store at path. An empty path keeps everything in memory.
func Open(path string, logger logrus.FieldLogger) (*Store, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	// logrus already speaks Errorf/Warningf/Infof/Debugf
	opts.Logger = logger.WithField("component", "badger")
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore opens the store configured under activity.snapshot_path.
func NewStore(cfg *config.Config, logger logrus.FieldLogger) (*Store, func(), error) {
	s, err := Open(cfg.Activity.SnapshotPath, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, func() {
		if err := s.Close(); err != nil {
			logger.WithError(err).Warn("close snapshot store")
		}
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, snap entity.ActivitySnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode activity snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(activityKey, raw)
	})
}

// Load returns false when nothing has been saved yet.
func (s *Store) Load(ctx context.Context) (entity.ActivitySnapshot, bool, error) {
	var snap entity.ActivitySnapshot
	if err := ctx.Err(); err != nil {
		return snap, false, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(activityKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entity.ActivitySnapshot{}, false, nil
	}
	if err != nil {
		return entity.ActivitySnapshot{}, false, fmt.Errorf("load activity snapshot: %w", err)
	}
	return snap, true, nil
}
