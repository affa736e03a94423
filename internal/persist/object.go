package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"interview-backend/internal/candidates"
	"interview-backend/internal/shared/storage/object"
)

// Object stores the snapshot as a JSON object in an object store (local dir or S3).
type Object struct {
	Store object.ObjectStore
	Key   string
}

// NewObject returns a persister writing to snapshots/root.json.
func NewObject(store object.ObjectStore) *Object {
	return &Object{Store: store, Key: "snapshots/" + RootKey + ".json"}
}

func (o *Object) Name() string { return "object" }

func (o *Object) Load(ctx context.Context) (candidates.Snapshot, bool, error) {
	rc, err := o.Store.Open(ctx, o.Key)
	if errors.Is(err, object.ErrNotFound) {
		return candidates.EmptySnapshot(), false, nil
	}
	if err != nil {
		return candidates.Snapshot{}, false, fmt.Errorf("open %s: %w", o.Key, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return candidates.Snapshot{}, false, fmt.Errorf("read %s: %w", o.Key, err)
	}
	snap, err := decode(body)
	if err != nil {
		return candidates.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (o *Object) Save(ctx context.Context, snap candidates.Snapshot) error {
	body, err := encode(snap)
	if err != nil {
		return err
	}
	if _, err := o.Store.Put(ctx, o.Key, "application/json", bytes.NewReader(body)); err != nil {
		return fmt.Errorf("put %s: %w", o.Key, err)
	}
	return nil
}

var _ Persister = (*Object)(nil)
