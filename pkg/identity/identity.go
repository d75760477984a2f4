package identity

import (
	"context"
	"strings"

	"careerplan/internal/util"
	"careerplan/pkg/kv"
)

// Keys written by the session collaborator.
const (
	KeyUserID    = "userId"
	KeyUserEmail = "userEmail"
	KeyUserName  = "userName"
)

// Resolver resolves the current user id. ok is false when nobody is signed in.
type Resolver interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// Lookup reads the stored user id on every call; nothing is cached.
type Lookup struct {
	kv kv.Store
}

// NewLookup builds a lookup over the given store.
func NewLookup(store kv.Store) *Lookup {
	return &Lookup{kv: store}
}

// CurrentUserID never fails: read errors are logged and reported as absent.
func (l *Lookup) CurrentUserID(ctx context.Context) (string, bool) {
	id, ok, err := l.kv.Get(ctx, KeyUserID)
	if err != nil {
		util.LoggerFromContext(ctx).Error("failed to get user id", "err", err)
		return "", false
	}
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// Static is a fixed identity, mostly for tests.
type Static string

// CurrentUserID returns the fixed id; the empty Static is absent.
func (s Static) CurrentUserID(context.Context) (string, bool) {
	return string(s), s != ""
}
