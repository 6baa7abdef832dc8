package model

import (
	"fmt"
	"strings"
	"time"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyCustom Frequency = "custom"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	default:
		return false
	}
}

func ParseFrequency(input string) (Frequency, error) {
	f := Frequency(strings.TrimSpace(strings.ToLower(input)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid frequency: %q", input)
	}
	return f, nil
}

// Habit is a recurring activity with a completion streak.
type Habit struct {
	ID            string    `gorm:"primaryKey;type:text" json:"id"`
	UserID        string    `gorm:"index;not null" json:"user_id"`
	Name          string    `gorm:"not null" json:"name"`
	Description   *string   `json:"description,omitempty"`
	Frequency     Frequency `gorm:"default:daily" json:"frequency"`
	Streak        int       `gorm:"not null;default:0" json:"streak"`
	LastCompleted *string   `json:"last_completed,omitempty"` // YYYY-MM-DD
	CreatedAt     time.Time `json:"created_at"`
}

// CompletedOn reports whether the habit was last completed on date.
func (h Habit) CompletedOn(date string) bool {
	return h.LastCompleted != nil && *h.LastCompleted == date
}

// HabitPatch is a partial habit update. Nil fields are left untouched.
type HabitPatch struct {
	Name          *string
	Description   *string
	Frequency     *Frequency
	Streak        *int
	LastCompleted *string
}

func (p HabitPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ValidationError{Field: "name", Reason: "is required"}
	}
	if p.Frequency != nil && !p.Frequency.IsValid() {
		return ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown value %q", *p.Frequency)}
	}
	if p.Streak != nil && *p.Streak < 0 {
		return ValidationError{Field: "streak", Reason: "must not be negative"}
	}
	if p.LastCompleted != nil && *p.LastCompleted != "" {
		return validateDate("last_completed", *p.LastCompleted)
	}
	return nil
}

func (p HabitPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Name != nil {
		fields["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Frequency != nil {
		fields["frequency"] = *p.Frequency
	}
	if p.Streak != nil {
		fields["streak"] = *p.Streak
	}
	if p.LastCompleted != nil {
		fields["last_completed"] = nullableDate(*p.LastCompleted)
	}
	return fields
}

func (p HabitPatch) Apply(h *Habit) {
	if p.Name != nil {
		h.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		h.Description = cloneString(p.Description)
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.Streak != nil {
		h.Streak = *p.Streak
	}
	if p.LastCompleted != nil {
		h.LastCompleted = nullableDatePtr(*p.LastCompleted)
	}
}

// Validate checks a habit before insert and fills defaults.
func (h *Habit) Validate() error {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return ValidationError{Field: "name", Reason: "is required"}
	}
	if h.Frequency == "" {
		h.Frequency = FrequencyDaily
	}
	if !h.Frequency.IsValid() {
		return ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown value %q", h.Frequency)}
	}
	if h.Streak < 0 {
		return ValidationError{Field: "streak", Reason: "must not be negative"}
	}
	return nil
}
