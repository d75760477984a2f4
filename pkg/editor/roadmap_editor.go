package editor

import (
	"context"
	"fmt"
	"time"

	"careerplan/internal/util"
	"careerplan/pkg/domain"
	"careerplan/pkg/identity"
)

// RoadmapState is the screen the roadmap editor is showing.
type RoadmapState string

const (
	RoadmapClosed   RoadmapState = "closed"
	RoadmapList     RoadmapState = "list"
	RoadmapItemForm RoadmapState = "item-form"
)

const noIndex = -1

// RoadmapForm is the editable part of one roadmap item.
type RoadmapForm struct {
	Title       string               `json:"title" validate:"required"`
	Description string               `json:"description" validate:"required"`
	Year        int                  `json:"year"`
	Quarter     int                  `json:"quarter" validate:"omitempty,min=1,max=4"`
	Status      domain.RoadmapStatus `json:"status" validate:"omitempty,oneof=planned in-progress completed"`
	Skills      []string             `json:"skills"`
}

// RoadmapSaver replaces an owner's whole roadmap.
type RoadmapSaver interface {
	ReplaceForOwner(ctx context.Context, ownerID string, items []domain.RoadmapItem) error
}

// RoadmapEditorConfig wires the roadmap editor.
type RoadmapEditorConfig struct {
	Roadmap  RoadmapSaver
	Identity identity.Resolver
	// OnSave receives the saved list, stamped with the owner.
	OnSave func(ctx context.Context, items []domain.RoadmapItem) error
	Now    func() time.Time
	NewID  func(prefix string) string
}

// RoadmapEditor edits a working copy of the roadmap list and commits the
// whole list on Save.
type RoadmapEditor struct {
	roadmap  RoadmapSaver
	identity identity.Resolver
	onSave   func(context.Context, []domain.RoadmapItem) error
	now      func() time.Time
	newID    func(string) string

	state         RoadmapState
	items         []domain.RoadmapItem
	editing       int
	pendingDelete int
	form          RoadmapForm
	skills        tagInput
}

// NewRoadmapEditor builds a closed roadmap editor.
func NewRoadmapEditor(cfg RoadmapEditorConfig) *RoadmapEditor {
	return &RoadmapEditor{
		roadmap:       cfg.Roadmap,
		identity:      cfg.Identity,
		onSave:        cfg.OnSave,
		now:           defaultClock(cfg.Now),
		newID:         defaultIDs(cfg.NewID),
		state:         RoadmapClosed,
		editing:       noIndex,
		pendingDelete: noIndex,
	}
}

// Open reloads the working list from initial and shows the list.
func (e *RoadmapEditor) Open(initial []domain.RoadmapItem) {
	e.items = make([]domain.RoadmapItem, 0, len(initial))
	for _, item := range initial {
		item.Skills = cloneStrings(item.Skills)
		e.items = append(e.items, item)
	}
	e.state = RoadmapList
	e.editing = noIndex
	e.pendingDelete = noIndex
	e.resetForm()
}

// Close discards the working list.
func (e *RoadmapEditor) Close() {
	e.state = RoadmapClosed
	e.items = nil
	e.editing = noIndex
	e.pendingDelete = noIndex
	e.resetForm()
}

func (e *RoadmapEditor) State() RoadmapState { return e.state }

// Items returns a copy of the working list.
func (e *RoadmapEditor) Items() []domain.RoadmapItem {
	out := make([]domain.RoadmapItem, len(e.items))
	for i, item := range e.items {
		item.Skills = cloneStrings(item.Skills)
		out[i] = item
	}
	return out
}

// Editing returns the index being edited; ok is false for a new item or outside the form.
func (e *RoadmapEditor) Editing() (int, bool) {
	return e.editing, e.state == RoadmapItemForm && e.editing != noIndex
}

// Form returns a copy of the item form buffer.
func (e *RoadmapEditor) Form() RoadmapForm {
	f := e.form
	f.Skills = cloneStrings(e.form.Skills)
	return f
}

// AddItem opens an empty item form.
func (e *RoadmapEditor) AddItem() error {
	if err := e.requireList(); err != nil {
		return err
	}
	e.editing = noIndex
	e.resetForm()
	e.state = RoadmapItemForm
	return nil
}

// EditItem opens the item form seeded from the item at index i.
func (e *RoadmapEditor) EditItem(i int) error {
	if err := e.requireList(); err != nil {
		return err
	}
	if i < 0 || i >= len(e.items) {
		return fmt.Errorf("%w: no roadmap item at index %d", ErrInvalidState, i)
	}
	item := e.items[i]
	e.editing = i
	e.form = RoadmapForm{
		Title:       item.Title,
		Description: item.Description,
		Year:        item.Year,
		Quarter:     item.Quarter,
		Status:      item.Status,
		Skills:      cloneStrings(item.Skills),
	}
	e.skills = tagInput{}
	e.state = RoadmapItemForm
	return nil
}

// Update edits the form buffer; the working list is untouched until SaveItem.
func (e *RoadmapEditor) Update(fn func(*RoadmapForm)) error {
	if err := e.requireForm(); err != nil {
		return err
	}
	fn(&e.form)
	return nil
}

// SetSkillInput sets the pending skill text.
func (e *RoadmapEditor) SetSkillInput(v string) { e.skills.pending = v }

func (e *RoadmapEditor) SkillInput() string { return e.skills.pending }

// AddSkill appends the pending text to the form's skills.
func (e *RoadmapEditor) AddSkill() bool {
	if e.state != RoadmapItemForm {
		return false
	}
	var added bool
	e.form.Skills, added = e.skills.commit(e.form.Skills)
	return added
}

// RemoveSkill deletes the form's skill at index i.
func (e *RoadmapEditor) RemoveSkill(i int) bool {
	if e.state != RoadmapItemForm {
		return false
	}
	var removed bool
	e.form.Skills, removed = removeAt(e.form.Skills, i)
	return removed
}

// SaveItem validates the form and writes it into the working list, replacing
// the edited entry or appending a new one, then returns to the list.
func (e *RoadmapEditor) SaveItem() error {
	if err := e.requireForm(); err != nil {
		return err
	}
	if err := validateForm(e.form, "title and description are required"); err != nil {
		return err
	}
	now := e.now()
	item := domain.RoadmapItem{
		Title:       e.form.Title,
		Description: e.form.Description,
		Year:        e.form.Year,
		Quarter:     e.form.Quarter,
		Status:      e.form.Status,
		Skills:      cloneStrings(e.form.Skills),
		UpdatedAt:   domain.Timestamp(now),
	}
	if item.Year == 0 {
		item.Year = now.Year()
	}
	if item.Quarter == 0 {
		item.Quarter = 1
	}
	if item.Status == "" {
		item.Status = domain.StatusPlanned
	}

	if e.editing != noIndex {
		prev := e.items[e.editing]
		item.ID = prev.ID
		item.OwnerID = prev.OwnerID
		item.CreatedAt = prev.CreatedAt
		e.items[e.editing] = item
	} else {
		item.ID = e.newID("roadmap")
		item.CreatedAt = item.UpdatedAt
		e.items = append(e.items, item)
	}
	e.backToList()
	return nil
}

// CancelItem drops the form buffer and returns to the list unchanged.
func (e *RoadmapEditor) CancelItem() error {
	if err := e.requireForm(); err != nil {
		return err
	}
	e.backToList()
	return nil
}

// RequestDelete asks for confirmation to delete the item at index i.
func (e *RoadmapEditor) RequestDelete(i int) error {
	if err := e.requireList(); err != nil {
		return err
	}
	if i < 0 || i >= len(e.items) {
		return fmt.Errorf("%w: no roadmap item at index %d", ErrInvalidState, i)
	}
	e.pendingDelete = i
	return nil
}

// PendingDelete returns the index awaiting confirmation.
func (e *RoadmapEditor) PendingDelete() (int, bool) {
	return e.pendingDelete, e.pendingDelete != noIndex
}

// ConfirmDelete removes the pending item from the working list. Nothing is
// written to the store until Save.
func (e *RoadmapEditor) ConfirmDelete() error {
	if e.state != RoadmapList || e.pendingDelete == noIndex {
		return ErrInvalidState
	}
	i := e.pendingDelete
	e.items = append(e.items[:i:i], e.items[i+1:]...)
	e.pendingDelete = noIndex
	return nil
}

// CancelDelete dismisses the confirmation.
func (e *RoadmapEditor) CancelDelete() {
	e.pendingDelete = noIndex
}

// MoveItem moves the item at index from to index to, shifting the items
// between them.
func (e *RoadmapEditor) MoveItem(from, to int) error {
	if err := e.requireList(); err != nil {
		return err
	}
	if from < 0 || from >= len(e.items) || to < 0 || to >= len(e.items) {
		return fmt.Errorf("%w: cannot move roadmap item %d to %d", ErrInvalidState, from, to)
	}
	item := e.items[from]
	if from < to {
		copy(e.items[from:to], e.items[from+1:to+1])
	} else {
		copy(e.items[to+1:from+1], e.items[to:from])
	}
	e.items[to] = item
	return nil
}

// Save stamps every working item with the current user and replaces that
// user's stored roadmap with the working list. Only available from the list.
func (e *RoadmapEditor) Save(ctx context.Context) error {
	if err := e.requireList(); err != nil {
		return err
	}
	logger := util.LoggerFromContext(ctx)
	ownerID, ok := e.identity.CurrentUserID(ctx)
	if !ok {
		return ErrNoIdentity
	}
	items := e.Items()
	for i := range items {
		items[i].OwnerID = ownerID
	}
	if err := e.roadmap.ReplaceForOwner(ctx, ownerID, items); err != nil {
		logger.Error("failed to save roadmap", "owner_id", ownerID, "err", err)
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	if e.onSave != nil {
		if err := e.onSave(ctx, items); err != nil {
			logger.Error("roadmap save callback failed", "owner_id", ownerID, "err", err)
			return fmt.Errorf("%w: %w", ErrSaveFailed, err)
		}
	}
	logger.Info("roadmap saved", "owner_id", ownerID, "items", len(items))
	e.Close()
	return nil
}

func (e *RoadmapEditor) requireList() error {
	switch e.state {
	case RoadmapClosed:
		return ErrNotOpen
	case RoadmapList:
		if e.pendingDelete != noIndex {
			return fmt.Errorf("%w: delete confirmation pending", ErrInvalidState)
		}
		return nil
	default:
		return fmt.Errorf("%w: item form is open", ErrInvalidState)
	}
}

func (e *RoadmapEditor) requireForm() error {
	switch e.state {
	case RoadmapClosed:
		return ErrNotOpen
	case RoadmapItemForm:
		return nil
	default:
		return fmt.Errorf("%w: no item form is open", ErrInvalidState)
	}
}

func (e *RoadmapEditor) backToList() {
	e.state = RoadmapList
	e.editing = noIndex
	e.resetForm()
}

func (e *RoadmapEditor) resetForm() {
	e.form = RoadmapForm{
		Year:    e.now().Year(),
		Quarter: 1,
		Status:  domain.StatusPlanned,
		Skills:  []string{},
	}
	e.skills = tagInput{}
}
