package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func ParsePriority(input string) (Priority, error) {
	p := Priority(strings.TrimSpace(strings.ToLower(input)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority: %q", input)
	}
	return p, nil
}

type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

func ParseTaskStatus(input string) (TaskStatus, error) {
	s := TaskStatus(strings.TrimSpace(strings.ToLower(input)))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid status: %q", input)
	}
	return s, nil
}

// Next returns the status a one-click toggle moves to.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case StatusNotStarted:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusNotStarted
	}
}

// Task represents a single to-do item.
type Task struct {
	ID          string         `gorm:"primaryKey;type:text" json:"id"`
	UserID      string         `gorm:"index;not null" json:"user_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description *string        `json:"description,omitempty"`
	DueDate     *string        `json:"due_date,omitempty"` // YYYY-MM-DD
	Priority    Priority       `gorm:"default:medium" json:"priority"`
	Status      TaskStatus     `gorm:"default:not_started" json:"status"`
	Tags        pq.StringArray `gorm:"type:text" json:"tags,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *string
	Priority    *Priority
	Status      *TaskStatus
	Tags        []string
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ValidationError{Field: "title", Reason: "is required"}
	}
	if p.DueDate != nil && *p.DueDate != "" {
		if err := validateDate("due_date", *p.DueDate); err != nil {
			return err
		}
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", *p.Priority)}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", *p.Status)}
	}
	return nil
}

// Fields returns the column map sent to the backend.
func (p TaskPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.Title != nil {
		fields["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.DueDate != nil {
		fields["due_date"] = nullableDate(*p.DueDate)
	}
	if p.Priority != nil {
		fields["priority"] = *p.Priority
	}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.Tags != nil {
		fields["tags"] = pq.StringArray(p.Tags)
	}
	return fields
}

// Apply merges the submitted fields into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = cloneString(p.Description)
	}
	if p.DueDate != nil {
		t.DueDate = nullableDatePtr(*p.DueDate)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Tags != nil {
		t.Tags = append(pq.StringArray(nil), p.Tags...)
	}
}

// Validate checks a task before insert and fills defaults.
func (t *Task) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return ValidationError{Field: "title", Reason: "is required"}
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.IsValid() {
		return ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", t.Priority)}
	}
	if t.Status == "" {
		t.Status = StatusNotStarted
	}
	if !t.Status.IsValid() {
		return ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", t.Status)}
	}
	if t.DueDate != nil {
		if *t.DueDate == "" {
			t.DueDate = nil
		} else if err := validateDate("due_date", *t.DueDate); err != nil {
			return err
		}
	}
	return nil
}
