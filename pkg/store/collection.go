package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"careerplan/pkg/kv"
)

// Storage keys of the persisted collections.
const (
	GoalsKey   = "careerGoals"
	RoadmapKey = "roadmap"
)

var (
	// ErrOwnerRequired is returned by List when no owner is given. It marks a
	// failed read, as opposed to an owner that legitimately has no records.
	ErrOwnerRequired = errors.New("owner id required")
	// ErrCorrupt indicates the stored collection could not be parsed.
	ErrCorrupt = errors.New("stored collection is corrupt")
)

// loadCollection reads every record of all owners. An unset key is an empty
// collection; a stored JSON null is corrupt.
func loadCollection[T any](ctx context.Context, store kv.Store, key string) ([]T, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: %s: null collection", ErrCorrupt, key)
	}
	return items, nil
}

func saveCollection[T any](ctx context.Context, store kv.Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
