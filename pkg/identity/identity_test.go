package identity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"careerplan/internal/util"
	"careerplan/pkg/domain"
	"careerplan/pkg/kv"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("storage unavailable")
}

func (failingKV) RemoveMany(context.Context, ...string) error {
	return errors.New("storage unavailable")
}

func TestLookupReadsStoredUserID(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	lookup := NewLookup(store)

	if _, ok := lookup.CurrentUserID(ctx); ok {
		t.Fatalf("expected absent identity on empty store")
	}
	if err := store.Set(ctx, KeyUserID, "u1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	id, ok := lookup.CurrentUserID(ctx)
	if !ok || id != "u1" {
		t.Fatalf("expected u1, got %q ok=%v", id, ok)
	}

	// every call re-reads the store
	if err := store.Set(ctx, KeyUserID, "u2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if id, _ := lookup.CurrentUserID(ctx); id != "u2" {
		t.Fatalf("expected fresh read u2, got %q", id)
	}
}

func TestLookupTreatsEmptyAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	_ = store.Set(ctx, KeyUserID, "  ")
	if _, ok := NewLookup(store).CurrentUserID(ctx); ok {
		t.Fatalf("expected blank id to be absent")
	}
}

func TestLookupMapsErrorsToAbsent(t *testing.T) {
	if id, ok := NewLookup(failingKV{}).CurrentUserID(context.Background()); ok || id != "" {
		t.Fatalf("expected absent identity on storage failure, got %q ok=%v", id, ok)
	}
}

func TestLookupLogsThroughRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("request_id", "req-7")
	ctx := util.ContextWithLogger(context.Background(), logger)

	if _, ok := NewLookup(failingKV{}).CurrentUserID(ctx); ok {
		t.Fatalf("expected absent identity on storage failure")
	}
	if !strings.Contains(buf.String(), `"request_id":"req-7"`) {
		t.Fatalf("expected request-scoped log line, got %s", buf.String())
	}
}

func TestStatic(t *testing.T) {
	if _, ok := Static("").CurrentUserID(context.Background()); ok {
		t.Fatalf("empty static identity should be absent")
	}
	if id, ok := Static("u1").CurrentUserID(context.Background()); !ok || id != "u1" {
		t.Fatalf("unexpected static identity %q ok=%v", id, ok)
	}
}

func TestSessionsSignInAndOut(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	sessions := NewSessions(store)

	if _, ok := sessions.Current(ctx); ok {
		t.Fatalf("expected no session")
	}
	if err := sessions.SignIn(ctx, domain.Session{UserID: "u1", Email: "u1@example.com"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	got, ok := sessions.Current(ctx)
	if !ok {
		t.Fatalf("expected session after sign in")
	}
	if got.Name != DefaultDisplayName {
		t.Fatalf("expected fallback name, got %q", got.Name)
	}
	if id, _ := NewLookup(store).CurrentUserID(ctx); id != "u1" {
		t.Fatalf("sign in should set the user id, got %q", id)
	}

	if err := sessions.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	for _, k := range []string{KeyUserID, KeyUserEmail, KeyUserName} {
		if _, ok, _ := store.Get(ctx, k); ok {
			t.Fatalf("expected %s removed after sign out", k)
		}
	}
}

func TestSessionsRequireEmail(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	_ = store.Set(ctx, KeyUserID, "u1")
	if _, ok := NewSessions(store).Current(ctx); ok {
		t.Fatalf("session without email should not be shown")
	}
	if err := NewSessions(store).SignIn(ctx, domain.Session{UserID: "u1"}); err == nil {
		t.Fatalf("expected sign in to require an email")
	}
}

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"alice": "A",
		"김철수":   "김",
		"":      "U",
	}
	for in, want := range cases {
		if got := Initials(in); got != want {
			t.Fatalf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}
