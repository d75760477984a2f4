package store

import (
	"context"
	"strings"

	"careerplan/pkg/domain"
	"careerplan/pkg/kv"
)

// RoadmapStore keeps the roadmap items of all owners as one serialized list under RoadmapKey.
type RoadmapStore struct {
	kv kv.Store
}

// NewRoadmapStore builds a roadmap store over the given key-value store.
func NewRoadmapStore(store kv.Store) *RoadmapStore {
	return &RoadmapStore{kv: store}
}

// List returns the owner's roadmap items in stored order.
func (s *RoadmapStore) List(ctx context.Context, ownerID string) ([]domain.RoadmapItem, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}
	all, err := loadCollection[domain.RoadmapItem](ctx, s.kv, RoadmapKey)
	if err != nil {
		return nil, err
	}
	res := make([]domain.RoadmapItem, 0, len(all))
	for _, item := range all {
		if item.OwnerID == ownerID {
			res = append(res, item)
		}
	}
	return res, nil
}

// ReplaceForOwner drops every stored item of ownerID and appends items in
// their place. Items missing from the new list are deleted. Each item is
// stamped with ownerID regardless of the owner it carried.
func (s *RoadmapStore) ReplaceForOwner(ctx context.Context, ownerID string, items []domain.RoadmapItem) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}
	all, err := loadCollection[domain.RoadmapItem](ctx, s.kv, RoadmapKey)
	if err != nil {
		return err
	}
	kept := make([]domain.RoadmapItem, 0, len(all)+len(items))
	for _, item := range all {
		if item.OwnerID != ownerID {
			kept = append(kept, item)
		}
	}
	for _, item := range items {
		item.OwnerID = ownerID
		kept = append(kept, item)
	}
	if err := saveCollection(ctx, s.kv, RoadmapKey, kept); err != nil {
		return err
	}
	return nil
}
