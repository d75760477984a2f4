package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"careerplan/pkg/domain"
	"careerplan/pkg/kv"
)

// flakyKV wraps a store and fails writes on demand.
type flakyKV struct {
	kv.Store
	failSet bool
	failGet bool
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("read failed")
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func sampleGoal(id, owner string, year int) domain.Goal {
	return domain.Goal{
		ID:              id,
		OwnerID:         owner,
		Year:            year,
		CurrentSalary:   50000000,
		TargetSalary:    80000000,
		TechStack:       []string{"Go", "Postgres"},
		PortfolioCount:  2,
		NetworkingGoals: "meetups, conference talk",
		LearningGoals:   "distributed systems",
		CreatedAt:       "2024-01-01T00:00:00.000Z",
		UpdatedAt:       "2024-01-01T00:00:00.000Z",
	}
}

func TestGoalStoreListEmptyStore(t *testing.T) {
	s := NewGoalStore(kv.NewMemoryStore())
	goals, err := s.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if goals == nil || len(goals) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", goals)
	}
}

func TestGoalStoreListWithoutOwnerIsFailure(t *testing.T) {
	s := NewGoalStore(kv.NewMemoryStore())
	goals, err := s.List(context.Background(), "")
	if !errors.Is(err, ErrOwnerRequired) {
		t.Fatalf("expected ErrOwnerRequired, got %v", err)
	}
	if goals != nil {
		t.Fatalf("failure must not look like an empty success")
	}
}

func TestGoalStoreUpsertThenList(t *testing.T) {
	ctx := context.Background()
	s := NewGoalStore(kv.NewMemoryStore())
	g1 := sampleGoal("g1", "u1", 2024)
	if err := s.Upsert(ctx, "u1", g1); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	goals, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(goals) != 1 || !reflect.DeepEqual(goals[0], g1) {
		t.Fatalf("expected exactly the saved goal, got %#v", goals)
	}

	g2 := sampleGoal("g2", "u1", 2025)
	if err := s.Upsert(ctx, "u1", g2); err != nil {
		t.Fatalf("upsert second: %v", err)
	}
	goals, _ = s.List(ctx, "u1")
	if len(goals) != 2 || goals[0].ID != "g1" || goals[1].ID != "g2" {
		t.Fatalf("expected append in order, got %#v", goals)
	}
}

func TestGoalStoreUpsertReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	s := NewGoalStore(kv.NewMemoryStore())
	for _, g := range []domain.Goal{sampleGoal("g1", "u1", 2024), sampleGoal("g2", "u1", 2025)} {
		if err := s.Upsert(ctx, "u1", g); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	updated := sampleGoal("g1", "u1", 2024)
	updated.TargetSalary = 90000000
	updated.TechStack = []string{"Rust"}
	updated.UpdatedAt = "2024-06-01T00:00:00.000Z"
	if err := s.Upsert(ctx, "u1", updated); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	goals, _ := s.List(ctx, "u1")
	if len(goals) != 2 {
		t.Fatalf("expected no duplicate, got %d goals", len(goals))
	}
	if !reflect.DeepEqual(goals[0], updated) {
		t.Fatalf("expected first position replaced, got %#v", goals[0])
	}
}

func TestGoalStoreOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewGoalStore(kv.NewMemoryStore())
	_ = s.Upsert(ctx, "u1", sampleGoal("g1", "u1", 2024))
	_ = s.Upsert(ctx, "u2", sampleGoal("g1", "u2", 2023))

	for _, owner := range []string{"u1", "u2"} {
		goals, err := s.List(ctx, owner)
		if err != nil {
			t.Fatalf("list %s: %v", owner, err)
		}
		if len(goals) != 1 {
			t.Fatalf("expected one goal for %s, got %d", owner, len(goals))
		}
		for _, g := range goals {
			if g.OwnerID != owner {
				t.Fatalf("list(%s) leaked goal of %s", owner, g.OwnerID)
			}
		}
	}

	// same id under another owner is a separate record
	changed := sampleGoal("g1", "u2", 2030)
	_ = s.Upsert(ctx, "u2", changed)
	u1, _ := s.List(ctx, "u1")
	if u1[0].Year != 2024 {
		t.Fatalf("upsert for u2 must not touch u1, got year %d", u1[0].Year)
	}
}

func TestGoalStoreCorruptBlob(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	_ = mem.Set(ctx, GoalsKey, "{broken")
	s := NewGoalStore(mem)

	if _, err := s.List(ctx, "u1"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt from list, got %v", err)
	}
	if err := s.Upsert(ctx, "u1", sampleGoal("g1", "u1", 2024)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt from upsert, got %v", err)
	}
	if raw, _, _ := mem.Get(ctx, GoalsKey); raw != "{broken" {
		t.Fatalf("failed upsert must not overwrite stored data, got %q", raw)
	}
}

func TestGoalStoreNullBlobIsCorrupt(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	_ = mem.Set(ctx, GoalsKey, "null")
	s := NewGoalStore(mem)

	if _, err := s.List(ctx, "u1"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for null collection, got %v", err)
	}
	if err := s.Upsert(ctx, "u1", sampleGoal("g1", "u1", 2024)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt from upsert, got %v", err)
	}

	_ = mem.Set(ctx, GoalsKey, "[]")
	goals, err := s.List(ctx, "u1")
	if err != nil || goals == nil || len(goals) != 0 {
		t.Fatalf("expected empty success for [], got %#v err=%v", goals, err)
	}
}

func TestGoalStoreStorageFailures(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyKV{Store: kv.NewMemoryStore(), failSet: true}
	s := NewGoalStore(flaky)
	if err := s.Upsert(ctx, "u1", sampleGoal("g1", "u1", 2024)); err == nil {
		t.Fatalf("expected write failure")
	}
	flaky.failSet = false
	flaky.failGet = true
	if _, err := s.List(ctx, "u1"); err == nil {
		t.Fatalf("expected read failure")
	}
}

func TestGoalStoreFailuresLeaveLoggingToCaller(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx := context.Background()
	flaky := &flakyKV{Store: kv.NewMemoryStore(), failSet: true}
	s := NewGoalStore(flaky)
	if err := s.Upsert(ctx, "u1", sampleGoal("g1", "u1", 2024)); err == nil {
		t.Fatalf("expected write failure")
	}
	flaky.failGet = true
	if _, err := s.List(ctx, "u1"); err == nil {
		t.Fatalf("expected read failure")
	}
	if buf.Len() != 0 {
		t.Fatalf("store must return errors without logging, got %s", buf.String())
	}
}

func TestGoalStoreMissingSideIncomeDefaultsToZero(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	_ = mem.Set(ctx, GoalsKey, `[{"id":"g1","userId":"u1","year":2024,"currentSalary":1,"targetSalary":2,"techStack":[],"portfolioCount":0,"networkingGoals":"","learningGoals":"","createdAt":"","updatedAt":""}]`)
	goals, err := NewGoalStore(mem).List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if goals[0].SideIncomeTarget != 0 {
		t.Fatalf("expected zero side income, got %d", goals[0].SideIncomeTarget)
	}
}
