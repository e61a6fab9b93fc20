package activity

import (
	"context"

	"github.com/eslsoft/wordindex/internal/entity"
)

// SnapshotStore persists tracker snapshots between runs.
type SnapshotStore interface {
	Save(ctx context.Context, snap entity.ActivitySnapshot) error
	Load(ctx context.Context) (entity.ActivitySnapshot, bool, error)
}

// SaveTo writes the current registers to store.
func (t *Tracker) SaveTo(ctx context.Context, store SnapshotStore) error {
	return store.Save(ctx, t.Snapshot())
}

// LoadFrom restores the registers from store. It reports whether a snapshot
// was found.
func (t *Tracker) LoadFrom(ctx context.Context, store SnapshotStore) (bool, error) {
	snap, ok, err := store.Load(ctx)
	if err != nil || !ok {
		return false, err
	}
	t.Restore(snap)
	return true, nil
}
