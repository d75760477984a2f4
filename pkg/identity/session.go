package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"careerplan/internal/util"
	"careerplan/pkg/domain"
	"careerplan/pkg/kv"
)

// DefaultDisplayName is shown when no user name is stored.
const DefaultDisplayName = "User"

// Sessions reads and writes the session keys shown by the header.
type Sessions struct {
	kv kv.Store
}

// NewSessions builds a session accessor over the given store.
func NewSessions(store kv.Store) *Sessions {
	return &Sessions{kv: store}
}

// Current returns the signed-in user. A user is only shown when both
// id and email are stored.
func (s *Sessions) Current(ctx context.Context) (domain.Session, bool) {
	logger := util.LoggerFromContext(ctx)
	id, err := s.get(ctx, KeyUserID)
	if err != nil {
		logger.Error("failed to load user data", "err", err)
		return domain.Session{}, false
	}
	email, err := s.get(ctx, KeyUserEmail)
	if err != nil {
		logger.Error("failed to load user data", "err", err)
		return domain.Session{}, false
	}
	if id == "" || email == "" {
		return domain.Session{}, false
	}
	name, err := s.get(ctx, KeyUserName)
	if err != nil {
		logger.Warn("failed to load user name", "err", err)
	}
	if name == "" {
		name = DefaultDisplayName
	}
	return domain.Session{UserID: id, Email: email, Name: name}, true
}

// SignIn stores the session keys.
func (s *Sessions) SignIn(ctx context.Context, sess domain.Session) error {
	sess.UserID = strings.TrimSpace(sess.UserID)
	sess.Email = strings.TrimSpace(sess.Email)
	if sess.UserID == "" || sess.Email == "" {
		return errors.New("user id and email required")
	}
	if err := s.kv.Set(ctx, KeyUserID, sess.UserID); err != nil {
		return fmt.Errorf("store user id: %w", err)
	}
	if err := s.kv.Set(ctx, KeyUserEmail, sess.Email); err != nil {
		return fmt.Errorf("store user email: %w", err)
	}
	if name := strings.TrimSpace(sess.Name); name != "" {
		if err := s.kv.Set(ctx, KeyUserName, name); err != nil {
			return fmt.Errorf("store user name: %w", err)
		}
	} else if err := s.kv.RemoveMany(ctx, KeyUserName); err != nil {
		return fmt.Errorf("clear user name: %w", err)
	}
	return nil
}

// SignOut removes all session keys in one call.
func (s *Sessions) SignOut(ctx context.Context) error {
	if err := s.kv.RemoveMany(ctx, KeyUserID, KeyUserEmail, KeyUserName); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Sessions) get(ctx context.Context, key string) (string, error) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil || !ok {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// Initials returns the upper-cased first letter of name.
func Initials(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		r, _ = utf8.DecodeRuneInString(DefaultDisplayName)
	}
	return string(unicode.ToUpper(r))
}
