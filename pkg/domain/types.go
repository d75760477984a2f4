package domain

import "time"

// TimestampLayout is the sortable UTC layout used for createdAt/updatedAt.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp formats t in TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type RoadmapStatus string

const (
	StatusPlanned    RoadmapStatus = "planned"
	StatusInProgress RoadmapStatus = "in-progress"
	StatusCompleted  RoadmapStatus = "completed"
)

// Valid reports whether s is one of the known roadmap statuses.
func (s RoadmapStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Goal is one yearly salary/skill goal of a user.
type Goal struct {
	ID               string   `json:"id"`
	OwnerID          string   `json:"userId"`
	Year             int      `json:"year"`
	CurrentSalary    int64    `json:"currentSalary"`
	TargetSalary     int64    `json:"targetSalary"`
	SideIncomeTarget int64    `json:"sideIncomeTarget,omitempty"`
	TechStack        []string `json:"techStack"`
	PortfolioCount   int      `json:"portfolioCount"`
	NetworkingGoals  string   `json:"networkingGoals"`
	LearningGoals    string   `json:"learningGoals"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

// RoadmapItem is one milestone of a user's roadmap.
type RoadmapItem struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"userId"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Year        int           `json:"year"`
	Quarter     int           `json:"quarter"`
	Status      RoadmapStatus `json:"status"`
	Skills      []string      `json:"skills"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

// Session is the signed-in user as shown by the header.
type Session struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
