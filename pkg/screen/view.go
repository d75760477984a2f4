package screen

import (
	"math"
	"strconv"
	"strings"

	"careerplan/pkg/domain"
)

// PortfolioTarget is the portfolio count the progress bar measures against.
const PortfolioTarget = 5

// View is the rendered career screen.
type View struct {
	OwnerID string         `json:"ownerId"`
	Empty   bool           `json:"empty"`
	Goal    *GoalSummary   `json:"goal,omitempty"`
	Roadmap []RoadmapEntry `json:"roadmap"`
}

// GoalSummary is the latest goal with its derived progress values.
type GoalSummary struct {
	Goal domain.Goal `json:"record"`
	// SalaryProgress is current/target*100 without any guard; a zero target
	// yields Inf or NaN.
	SalaryProgress Percent `json:"salaryProgress"`
	// SalaryProgressBar is SalaryProgress clamped to [0,100] when finite.
	SalaryProgressBar    Percent  `json:"salaryProgressBar"`
	PortfolioProgress    Percent  `json:"portfolioProgress"`
	PortfolioProgressBar Percent  `json:"portfolioProgressBar"`
	NetworkingGoals      []string `json:"networkingGoals"`
	LearningGoals        []string `json:"learningGoals"`
}

// RoadmapEntry is a roadmap item with its status badge.
type RoadmapEntry struct {
	Item  domain.RoadmapItem `json:"item"`
	Badge StatusBadge        `json:"badge"`
}

// StatusBadge holds the presentation of a roadmap status.
type StatusBadge struct {
	Label      string `json:"label"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
	Icon       string `json:"icon"`
	IconColor  string `json:"iconColor"`
}

// Percent is a progress value. Non-finite values encode as JSON strings.
type Percent float64

func (p Percent) MarshalJSON() ([]byte, error) {
	f := float64(p)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// Bar clamps a finite value to [0,100]; NaN and infinities pass through.
func (p Percent) Bar() Percent {
	f := float64(p)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return p
	}
	return Percent(math.Min(math.Max(f, 0), 100))
}

var badges = map[domain.RoadmapStatus]StatusBadge{
	domain.StatusCompleted:  {Label: "Completed", Background: "#D1FAE5", Foreground: "#065F46", Icon: "checkmark-circle", IconColor: "#10B981"},
	domain.StatusInProgress: {Label: "In progress", Background: "#DBEAFE", Foreground: "#1E40AF", Icon: "target", IconColor: "#3B82F6"},
	domain.StatusPlanned:    {Label: "Planned", Background: "#FEF3C7", Foreground: "#92400E", Icon: "calendar-outline", IconColor: "#F59E0B"},
}

// unknown statuses keep the planned label but get neutral colors
var unknownBadge = StatusBadge{Label: "Planned", Background: "#F3F4F6", Foreground: "#374151", Icon: "calendar-outline", IconColor: "#6B7280"}

// BadgeFor returns the badge of a status.
func BadgeFor(status domain.RoadmapStatus) StatusBadge {
	if b, ok := badges[status]; ok {
		return b
	}
	return unknownBadge
}

func summarize(g domain.Goal) *GoalSummary {
	salary := Percent(float64(g.CurrentSalary) / float64(g.TargetSalary) * 100)
	portfolio := Percent(float64(g.PortfolioCount) * 100 / PortfolioTarget)
	return &GoalSummary{
		Goal:                 g,
		SalaryProgress:       salary,
		SalaryProgressBar:    salary.Bar(),
		PortfolioProgress:    portfolio,
		PortfolioProgressBar: portfolio.Bar(),
		NetworkingGoals:      splitGoals(g.NetworkingGoals),
		LearningGoals:        splitGoals(g.LearningGoals),
	}
}

func splitGoals(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ", ")
}

// latest returns the goal with the greatest year; the first one wins ties.
func latest(goals []domain.Goal) (domain.Goal, bool) {
	if len(goals) == 0 {
		return domain.Goal{}, false
	}
	best := goals[0]
	for _, g := range goals[1:] {
		if g.Year > best.Year {
			best = g
		}
	}
	return best, true
}

func render(ownerID string, goal *domain.Goal, items []domain.RoadmapItem) View {
	v := View{OwnerID: ownerID, Roadmap: make([]RoadmapEntry, 0, len(items))}
	if goal != nil {
		v.Goal = summarize(*goal)
	}
	for _, item := range items {
		v.Roadmap = append(v.Roadmap, RoadmapEntry{Item: item, Badge: BadgeFor(item.Status)})
	}
	v.Empty = goal == nil && len(items) == 0
	return v
}
