// Package screen assembles the career screen: the latest goal, the roadmap
// and the two editors that modify them.
package screen

import (
	"context"
	"time"

	"careerplan/internal/util"
	"careerplan/pkg/domain"
	"careerplan/pkg/editor"
	"careerplan/pkg/identity"
)

// FallbackOwnerID is read when nobody is signed in.
const FallbackOwnerID = "default"

// GoalRepository lists and saves goals.
type GoalRepository interface {
	List(ctx context.Context, ownerID string) ([]domain.Goal, error)
	editor.GoalSaver
}

// RoadmapRepository lists and replaces roadmaps.
type RoadmapRepository interface {
	List(ctx context.Context, ownerID string) ([]domain.RoadmapItem, error)
	editor.RoadmapSaver
}

// Config wires a Screen.
type Config struct {
	Identity identity.Resolver
	Goals    GoalRepository
	Roadmap  RoadmapRepository
	Now      func() time.Time
	NewID    func(prefix string) string
}

// Screen holds the loaded state of one career screen. It is not safe for
// concurrent use.
type Screen struct {
	identity identity.Resolver
	goals    GoalRepository
	roadmap  RoadmapRepository

	goal  *domain.Goal
	items []domain.RoadmapItem
	view  View

	goalEditor    *editor.GoalEditor
	roadmapEditor *editor.RoadmapEditor
}

// New builds an unloaded screen. Call Load before reading the view.
func New(cfg Config) *Screen {
	s := &Screen{
		identity: cfg.Identity,
		goals:    cfg.Goals,
		roadmap:  cfg.Roadmap,
		items:    []domain.RoadmapItem{},
	}
	s.view = render(FallbackOwnerID, nil, nil)
	s.goalEditor = editor.NewGoalEditor(editor.GoalEditorConfig{
		Goals:    cfg.Goals,
		Identity: cfg.Identity,
		OnSave: func(ctx context.Context, _ editor.GoalForm) error {
			s.Load(ctx)
			return nil
		},
		Now:   cfg.Now,
		NewID: cfg.NewID,
	})
	s.roadmapEditor = editor.NewRoadmapEditor(editor.RoadmapEditorConfig{
		Roadmap:  cfg.Roadmap,
		Identity: cfg.Identity,
		OnSave: func(ctx context.Context, _ []domain.RoadmapItem) error {
			s.Load(ctx)
			return nil
		},
		Now:   cfg.Now,
		NewID: cfg.NewID,
	})
	return s
}

// Load reads identity, goals and roadmap in that order and rebuilds the view.
// Fetch failures are logged; a failed goal fetch shows no goal and a failed
// roadmap fetch shows an empty roadmap.
func (s *Screen) Load(ctx context.Context) View {
	logger := util.LoggerFromContext(ctx)
	ownerID, ok := s.identity.CurrentUserID(ctx)
	if !ok {
		ownerID = FallbackOwnerID
	}

	s.goal = nil
	goals, err := s.goals.List(ctx, ownerID)
	if err != nil {
		logger.Error("failed to load career goals", "owner_id", ownerID, "err", err)
	} else if g, found := latest(goals); found {
		s.goal = &g
	}

	s.items = []domain.RoadmapItem{}
	items, err := s.roadmap.List(ctx, ownerID)
	if err != nil {
		logger.Error("failed to load roadmap", "owner_id", ownerID, "err", err)
	} else {
		s.items = items
	}

	s.view = render(ownerID, s.goal, s.items)
	return s.view
}

// View returns the view built by the last Load.
func (s *Screen) View() View { return s.view }

// OpenGoalEditor opens the goal editor in edit mode for the loaded goal, or
// in create mode when there is none.
func (s *Screen) OpenGoalEditor() *editor.GoalEditor {
	if s.goal != nil {
		s.goalEditor.Open(editor.ModeEdit, s.goal)
	} else {
		s.goalEditor.Open(editor.ModeCreate, nil)
	}
	return s.goalEditor
}

// OpenRoadmapEditor opens the roadmap editor on a snapshot of the loaded roadmap.
func (s *Screen) OpenRoadmapEditor() *editor.RoadmapEditor {
	s.roadmapEditor.Open(s.items)
	return s.roadmapEditor
}

func (s *Screen) GoalEditor() *editor.GoalEditor { return s.goalEditor }

func (s *Screen) RoadmapEditor() *editor.RoadmapEditor { return s.roadmapEditor }
