package store

import (
	"context"
	"time"

	"lifeplanner/internal/model"
)

func habitRowID(h *model.Habit) string { return h.ID }

// CreateHabit inserts a habit with a zero streak.
func (s *Store) CreateHabit(ctx context.Context, habit model.Habit) (model.Habit, error) {
	habit.Streak = 0
	return insertRow(ctx, s, "create habit", s.backend.Habits(), habit, &s.habits, habitRowID)
}

// UpdateHabit edits a habit's name, description or frequency. The streak
// and last completion date only change through CompleteHabit.
func (s *Store) UpdateHabit(ctx context.Context, id string, p model.HabitPatch) error {
	if _, err := s.session(); err != nil {
		return err
	}
	if p.Streak != nil {
		return s.failed("update habit", model.ValidationError{Field: "streak", Reason: "changes only by completing the habit"})
	}
	if p.LastCompleted != nil {
		return s.failed("update habit", model.ValidationError{Field: "last_completed", Reason: "changes only by completing the habit"})
	}
	return s.updateHabit(ctx, id, p)
}

func (s *Store) updateHabit(ctx context.Context, id string, p model.HabitPatch) error {
	return updateRow[model.Habit](ctx, s, "update habit", s.backend.Habits(), id, p, &s.habits, habitRowID)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	return deleteRow(ctx, s, "delete habit", s.backend.Habits(), id, &s.habits, habitRowID)
}

// CompleteHabit marks the habit done today. Completing twice on the same
// date leaves the streak alone and issues no remote call.
func (s *Store) CompleteHabit(ctx context.Context, id string) (model.Habit, error) {
	if _, err := s.session(); err != nil {
		return model.Habit{}, err
	}
	habit, ok := s.habit(id)
	if !ok {
		return model.Habit{}, ErrNotFound
	}

	now := s.now()
	today := model.FormatDate(now)
	if habit.CompletedOn(today) {
		return habit, nil
	}

	streak := s.streak(habit, now)
	p := model.HabitPatch{Streak: &streak, LastCompleted: &today}
	if err := s.updateHabit(ctx, id, p); err != nil {
		return model.Habit{}, err
	}
	p.Apply(&habit)
	return habit, nil
}

func (s *Store) habit(id string) (model.Habit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.habits {
		if h.ID == id {
			return h, true
		}
	}
	return model.Habit{}, false
}

// StreakPolicy computes the streak after completing h at now. It is only
// called when h was not already completed on now's date.
type StreakPolicy func(h model.Habit, now time.Time) int

// NaiveStreak adds one per completion day regardless of gaps.
func NaiveStreak(h model.Habit, _ time.Time) int {
	return h.Streak + 1
}

// ConsecutiveStreak adds one only when the previous completion was
// yesterday and restarts at one otherwise.
func ConsecutiveStreak(h model.Habit, now time.Time) int {
	if h.CompletedOn(model.FormatDate(now.AddDate(0, 0, -1))) {
		return h.Streak + 1
	}
	return 1
}
