package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"careerplan/pkg/identity"
	"careerplan/pkg/kv"
	"careerplan/pkg/screen"
	"careerplan/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	StorageBackend string
	DataDir        string
	RedisAddr      string
	RedisPassword  string
	RedisPrefix    string
	DatabaseURL    string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3UseSSL       bool
	// KV overrides the configured backend; used by tests.
	KV    kv.Store
	Now   func() time.Time
	NewID func(prefix string) string
}

// App wires the key-value backend to the career stores and the session keys.
type App struct {
	kv       kv.Store
	goals    *store.GoalStore
	roadmap  *store.RoadmapStore
	identity *identity.Lookup
	sessions *identity.Sessions
	now      func() time.Time
	newID    func(string) string
}

// New constructs the application over the configured storage backend.
func New(cfg Config) (*App, error) {
	backing := cfg.KV
	if backing == nil {
		var err error
		backing, err = openBackend(cfg)
		if err != nil {
			return nil, err
		}
	}
	return &App{
		kv:       backing,
		goals:    store.NewGoalStore(backing),
		roadmap:  store.NewRoadmapStore(backing),
		identity: identity.NewLookup(backing),
		sessions: identity.NewSessions(backing),
		now:      cfg.Now,
		newID:    cfg.NewID,
	}, nil
}

func openBackend(cfg Config) (kv.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "", "memory":
		return kv.NewMemoryStore(), nil
	case "file":
		s, err := kv.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("init file store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		return s, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("database URL required for postgres backend")
		}
		s, err := kv.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return s, nil
	case "s3":
		s, err := kv.NewObjectStore(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, "careerplan", cfg.S3UseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// NewScreen builds an unloaded career screen. Screens hold per-request state
// and must not be shared between requests.
func (a *App) NewScreen() *screen.Screen {
	return screen.New(screen.Config{
		Identity: a.identity,
		Goals:    a.goals,
		Roadmap:  a.roadmap,
		Now:      a.now,
		NewID:    a.newID,
	})
}

func (a *App) Sessions() *identity.Sessions { return a.sessions }

// Close releases the backend connection when it holds one.
func (a *App) Close() error {
	if c, ok := a.kv.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
