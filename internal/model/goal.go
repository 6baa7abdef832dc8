package model

import (
	"strings"
	"time"
)

// Goal is a long-term objective broken down into steps.
type Goal struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	UserID      string    `gorm:"index;not null" json:"user_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description *string   `json:"description,omitempty"`
	Deadline    *string   `json:"deadline,omitempty"` // YYYY-MM-DD
	Progress    int       `gorm:"not null;default:0" json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
}

// Done reports whether the goal reached full progress.
func (g Goal) Done() bool {
	return g.Progress >= 100
}

// GoalStep is one actionable item of a goal.
type GoalStep struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	GoalID      string    `gorm:"index;not null" json:"goal_id"`
	Goal        *Goal     `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"not null" json:"title"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

type GoalPatch struct {
	Title       *string
	Description *string
	Deadline    *string
	Progress    *int
}

func (p GoalPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ValidationError{Field: "title", Reason: "is required"}
	}
	if p.Deadline != nil && *p.Deadline != "" {
		if err := validateDate("deadline", *p.Deadline); err != nil {
			return err
		}
	}
	if p.Progress != nil {
		return validateProgress(*p.Progress)
	}
	return nil
}

func (p GoalPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Title != nil {
		fields["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Deadline != nil {
		fields["deadline"] = nullableDate(*p.Deadline)
	}
	if p.Progress != nil {
		fields["progress"] = *p.Progress
	}
	return fields
}

func (p GoalPatch) Apply(g *Goal) {
	if p.Title != nil {
		g.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		g.Description = cloneString(p.Description)
	}
	if p.Deadline != nil {
		g.Deadline = nullableDatePtr(*p.Deadline)
	}
	if p.Progress != nil {
		g.Progress = *p.Progress
	}
}

// Validate checks a goal before insert.
func (g *Goal) Validate() error {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return ValidationError{Field: "title", Reason: "is required"}
	}
	if g.Deadline != nil {
		if *g.Deadline == "" {
			g.Deadline = nil
		} else if err := validateDate("deadline", *g.Deadline); err != nil {
			return err
		}
	}
	return validateProgress(g.Progress)
}

type GoalStepPatch struct {
	Title       *string
	IsCompleted *bool
}

func (p GoalStepPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ValidationError{Field: "title", Reason: "is required"}
	}
	return nil
}

func (p GoalStepPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Title != nil {
		fields["title"] = strings.TrimSpace(*p.Title)
	}
	if p.IsCompleted != nil {
		fields["is_completed"] = *p.IsCompleted
	}
	return fields
}

func (p GoalStepPatch) Apply(s *GoalStep) {
	if p.Title != nil {
		s.Title = strings.TrimSpace(*p.Title)
	}
	if p.IsCompleted != nil {
		s.IsCompleted = *p.IsCompleted
	}
}

func (s *GoalStep) Validate() error {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		return ValidationError{Field: "title", Reason: "is required"}
	}
	if s.GoalID == "" {
		return ValidationError{Field: "goal_id", Reason: "is required"}
	}
	return nil
}

func validateProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return ValidationError{Field: "progress", Reason: "must be between 0 and 100"}
	}
	return nil
}
