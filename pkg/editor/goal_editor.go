package editor

import (
	"context"
	"fmt"
	"time"

	"careerplan/internal/util"
	"careerplan/pkg/domain"
	"careerplan/pkg/identity"
)

// Mode selects whether the goal editor creates a goal or edits one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// GoalForm is the editable part of a goal.
type GoalForm struct {
	Year             int      `json:"year"`
	CurrentSalary    int64    `json:"currentSalary" validate:"required"`
	TargetSalary     int64    `json:"targetSalary" validate:"required"`
	SideIncomeTarget int64    `json:"sideIncomeTarget"`
	TechStack        []string `json:"techStack"`
	PortfolioCount   int      `json:"portfolioCount"`
	NetworkingGoals  string   `json:"networkingGoals"`
	LearningGoals    string   `json:"learningGoals"`
}

// GoalSaver persists a goal for an owner.
type GoalSaver interface {
	Upsert(ctx context.Context, ownerID string, goal domain.Goal) error
}

// GoalEditorConfig wires the goal editor.
type GoalEditorConfig struct {
	Goals    GoalSaver
	Identity identity.Resolver
	// OnSave runs after a successful store write, before the editor closes.
	OnSave func(ctx context.Context, form GoalForm) error
	Now    func() time.Time
	NewID  func(prefix string) string
}

// GoalEditor is the create/edit goal dialog.
type GoalEditor struct {
	goals    GoalSaver
	identity identity.Resolver
	onSave   func(context.Context, GoalForm) error
	now      func() time.Time
	newID    func(string) string

	open    bool
	mode    Mode
	initial *domain.Goal
	form    GoalForm
	tech    tagInput
}

// NewGoalEditor builds a closed goal editor.
func NewGoalEditor(cfg GoalEditorConfig) *GoalEditor {
	return &GoalEditor{
		goals:    cfg.Goals,
		identity: cfg.Identity,
		onSave:   cfg.OnSave,
		now:      defaultClock(cfg.Now),
		newID:    defaultIDs(cfg.NewID),
	}
}

// Open seeds the working copy. Edit mode with an existing goal copies its
// fields; anything else starts from zeros and the current year.
func (e *GoalEditor) Open(mode Mode, existing *domain.Goal) {
	e.open = true
	e.tech = tagInput{}
	if mode == ModeEdit && existing != nil {
		g := *existing
		e.mode = ModeEdit
		e.initial = &g
		e.form = GoalForm{
			Year:             g.Year,
			CurrentSalary:    g.CurrentSalary,
			TargetSalary:     g.TargetSalary,
			SideIncomeTarget: g.SideIncomeTarget,
			TechStack:        cloneStrings(g.TechStack),
			PortfolioCount:   g.PortfolioCount,
			NetworkingGoals:  g.NetworkingGoals,
			LearningGoals:    g.LearningGoals,
		}
		return
	}
	e.mode = ModeCreate
	e.initial = nil
	e.form = GoalForm{Year: e.now().Year(), TechStack: []string{}}
}

// Close discards the working copy.
func (e *GoalEditor) Close() {
	e.open = false
	e.initial = nil
	e.form = GoalForm{}
	e.tech = tagInput{}
}

func (e *GoalEditor) IsOpen() bool { return e.open }

func (e *GoalEditor) Mode() Mode { return e.mode }

// Form returns a copy of the working form.
func (e *GoalEditor) Form() GoalForm {
	f := e.form
	f.TechStack = cloneStrings(e.form.TechStack)
	return f
}

// Update applies field edits to the working copy only.
func (e *GoalEditor) Update(fn func(*GoalForm)) error {
	if !e.open {
		return ErrNotOpen
	}
	fn(&e.form)
	return nil
}

// SetTechInput sets the pending tech-stack text.
func (e *GoalEditor) SetTechInput(v string) { e.tech.pending = v }

func (e *GoalEditor) TechInput() string { return e.tech.pending }

// AddTech appends the pending text to the tech stack.
func (e *GoalEditor) AddTech() bool {
	if !e.open {
		return false
	}
	var added bool
	e.form.TechStack, added = e.tech.commit(e.form.TechStack)
	return added
}

// RemoveTech deletes the tech stack entry at index i.
func (e *GoalEditor) RemoveTech(i int) bool {
	if !e.open {
		return false
	}
	var removed bool
	e.form.TechStack, removed = removeAt(e.form.TechStack, i)
	return removed
}

// Save validates the form, persists it for the current user and closes the
// editor. On any error the editor stays open with the working copy intact.
func (e *GoalEditor) Save(ctx context.Context) error {
	if !e.open {
		return ErrNotOpen
	}
	logger := util.LoggerFromContext(ctx)
	if err := validateForm(e.form, "salary information is required"); err != nil {
		return err
	}
	ownerID, ok := e.identity.CurrentUserID(ctx)
	if !ok {
		return ErrNoIdentity
	}

	now := domain.Timestamp(e.now())
	goal := domain.Goal{
		OwnerID:          ownerID,
		Year:             e.form.Year,
		CurrentSalary:    e.form.CurrentSalary,
		TargetSalary:     e.form.TargetSalary,
		SideIncomeTarget: e.form.SideIncomeTarget,
		TechStack:        cloneStrings(e.form.TechStack),
		PortfolioCount:   e.form.PortfolioCount,
		NetworkingGoals:  e.form.NetworkingGoals,
		LearningGoals:    e.form.LearningGoals,
		UpdatedAt:        now,
	}
	if e.initial != nil {
		goal.ID = e.initial.ID
		goal.CreatedAt = e.initial.CreatedAt
	}
	if goal.ID == "" {
		goal.ID = e.newID("goal")
	}
	if goal.CreatedAt == "" {
		goal.CreatedAt = now
	}

	if err := e.goals.Upsert(ctx, ownerID, goal); err != nil {
		logger.Error("failed to save career goal", "owner_id", ownerID, "goal_id", goal.ID, "err", err)
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if e.onSave != nil {
		if err := e.onSave(ctx, e.Form()); err != nil {
			logger.Error("career goal save callback failed", "goal_id", goal.ID, "err", err)
			return fmt.Errorf("%w: %w", ErrSaveFailed, err)
		}
	}
	logger.Info("career goal saved", "owner_id", ownerID, "goal_id", goal.ID, "mode", string(e.mode))
	e.Close()
	return nil
}
