package store

import (
	"strings"
	"time"

	"lifeplanner/internal/model"
)

// Summary is the dashboard view over the mirror.
type Summary struct {
	TodayTasks          []model.Task
	OverdueTasks        []model.Task
	TotalTasks          int
	CompletedTasks      int
	TotalStreak         int
	BestStreak          int
	ActiveHabits        int
	HabitsDoneToday     int
	AverageGoalProgress float64
	CompletedGoals      int
}

// Summary derives dashboard figures for the date of now.
func (s *Store) Summary(now time.Time) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	today := model.FormatDate(now)
	sum := Summary{TotalTasks: len(s.tasks)}

	for _, t := range s.tasks {
		if t.Status == model.StatusCompleted {
			sum.CompletedTasks++
		}
		if t.DueDate == nil {
			continue
		}
		switch {
		case *t.DueDate == today:
			sum.TodayTasks = append(sum.TodayTasks, t)
		case *t.DueDate < today && t.Status != model.StatusCompleted:
			sum.OverdueTasks = append(sum.OverdueTasks, t)
		}
	}

	for _, h := range s.habits {
		sum.TotalStreak += h.Streak
		if h.Streak > sum.BestStreak {
			sum.BestStreak = h.Streak
		}
		if h.Streak > 0 {
			sum.ActiveHabits++
		}
		if h.CompletedOn(today) {
			sum.HabitsDoneToday++
		}
	}

	if len(s.goals) > 0 {
		total := 0
		for _, g := range s.goals {
			total += g.Progress
			if g.Done() {
				sum.CompletedGoals++
			}
		}
		sum.AverageGoalProgress = float64(total) / float64(len(s.goals))
	}

	return sum
}

// TaskFilter narrows the task list. Zero fields match everything.
type TaskFilter struct {
	Search   string
	Status   model.TaskStatus
	Priority model.Priority
}

func (f TaskFilter) match(t model.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), term) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), term)
}

// FilterTasks returns the mirrored tasks matching f.
func (s *Store) FilterTasks(f TaskFilter) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Task
	for _, t := range s.tasks {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}

// StreakTier buckets a streak for display.
type StreakTier int

const (
	TierNone StreakTier = iota
	TierStarted
	TierMomentum
	TierAmazing
	TierIncredible
)

func TierFor(streak int) StreakTier {
	switch {
	case streak >= 30:
		return TierIncredible
	case streak >= 14:
		return TierAmazing
	case streak >= 7:
		return TierMomentum
	case streak > 0:
		return TierStarted
	default:
		return TierNone
	}
}

func (t StreakTier) Message() string {
	switch t {
	case TierIncredible:
		return "🏆 Incredible dedication!"
	case TierAmazing:
		return "🌟 Amazing streak!"
	case TierMomentum:
		return "🔥 Great momentum!"
	case TierStarted:
		return "💪 Keep it up!"
	default:
		return ""
	}
}
