package store

import (
	"context"
	"strings"

	"careerplan/pkg/domain"
	"careerplan/pkg/kv"
)

// GoalStore keeps the goals of all owners as one serialized list under GoalsKey.
//
// Concurrent upserts are not serialized: the last writer wins.
type GoalStore struct {
	kv kv.Store
}

// NewGoalStore builds a goal store over the given key-value store.
func NewGoalStore(store kv.Store) *GoalStore {
	return &GoalStore{kv: store}
}

// List returns the owner's goals in stored order.
func (s *GoalStore) List(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}
	all, err := loadCollection[domain.Goal](ctx, s.kv, GoalsKey)
	if err != nil {
		return nil, err
	}
	res := make([]domain.Goal, 0, len(all))
	for _, g := range all {
		if g.OwnerID == ownerID {
			res = append(res, g)
		}
	}
	return res, nil
}

// Upsert replaces the entry with the same (id, owner) in place, or appends
// the goal, then writes the whole collection back.
func (s *GoalStore) Upsert(ctx context.Context, ownerID string, goal domain.Goal) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}
	all, err := loadCollection[domain.Goal](ctx, s.kv, GoalsKey)
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == goal.ID && all[i].OwnerID == ownerID {
			all[i] = goal
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, goal)
	}
	if err := saveCollection(ctx, s.kv, GoalsKey, all); err != nil {
		return err
	}
	return nil
}
