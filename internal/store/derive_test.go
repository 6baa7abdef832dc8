package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lifeplanner/internal/model"
)

func storeWith(tasks []model.Task, habits []model.Habit, goals []model.Goal) *Store {
	s := New(newFakeBackend())
	s.tasks, s.habits, s.goals = tasks, habits, goals
	return s
}

func TestSummary(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	s := storeWith(
		[]model.Task{
			{ID: "1", Title: "Today", DueDate: model.Ptr("2025-03-10"), Status: model.StatusNotStarted},
			{ID: "2", Title: "Late", DueDate: model.Ptr("2025-03-01"), Status: model.StatusInProgress},
			{ID: "3", Title: "Late but done", DueDate: model.Ptr("2025-03-01"), Status: model.StatusCompleted},
			{ID: "4", Title: "Someday", Status: model.StatusCompleted},
		},
		[]model.Habit{
			{ID: "h1", Streak: 3, LastCompleted: model.Ptr("2025-03-10")},
			{ID: "h2", Streak: 12, LastCompleted: model.Ptr("2025-03-09")},
			{ID: "h3"},
		},
		[]model.Goal{
			{ID: "g1", Progress: 100},
			{ID: "g2", Progress: 50},
		},
	)

	sum := s.Summary(now)
	assert.Equal(t, 4, sum.TotalTasks)
	assert.Equal(t, 2, sum.CompletedTasks)
	if assert.Len(t, sum.TodayTasks, 1) {
		assert.Equal(t, "1", sum.TodayTasks[0].ID)
	}
	if assert.Len(t, sum.OverdueTasks, 1) {
		assert.Equal(t, "2", sum.OverdueTasks[0].ID)
	}
	assert.Equal(t, 15, sum.TotalStreak)
	assert.Equal(t, 12, sum.BestStreak)
	assert.Equal(t, 2, sum.ActiveHabits)
	assert.Equal(t, 1, sum.HabitsDoneToday)
	assert.InDelta(t, 75.0, sum.AverageGoalProgress, 0.001)
	assert.Equal(t, 1, sum.CompletedGoals)
}

func TestSummaryEmpty(t *testing.T) {
	sum := New(newFakeBackend()).Summary(time.Now())
	assert.Zero(t, sum.TotalTasks)
	assert.Zero(t, sum.AverageGoalProgress)
}

func TestFilterTasks(t *testing.T) {
	s := storeWith([]model.Task{
		{ID: "1", Title: "Buy milk", Priority: model.PriorityLow, Status: model.StatusNotStarted},
		{ID: "2", Title: "Report", Description: model.Ptr("quarterly MILK numbers"), Priority: model.PriorityHigh, Status: model.StatusInProgress},
		{ID: "3", Title: "Gym", Priority: model.PriorityHigh, Status: model.StatusCompleted},
	}, nil, nil)

	ids := func(tasks []model.Task) []string {
		var out []string
		for _, t := range tasks {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(s.FilterTasks(TaskFilter{})))
	assert.Equal(t, []string{"1", "2"}, ids(s.FilterTasks(TaskFilter{Search: " milk"})))
	assert.Equal(t, []string{"2", "3"}, ids(s.FilterTasks(TaskFilter{Priority: model.PriorityHigh})))
	assert.Equal(t, []string{"3"}, ids(s.FilterTasks(TaskFilter{Priority: model.PriorityHigh, Status: model.StatusCompleted})))
	assert.Empty(t, s.FilterTasks(TaskFilter{Search: "yoga"}))
}

func TestStreakTiers(t *testing.T) {
	tests := []struct {
		streak int
		tier   StreakTier
	}{
		{0, TierNone},
		{1, TierStarted},
		{6, TierStarted},
		{7, TierMomentum},
		{14, TierAmazing},
		{29, TierAmazing},
		{30, TierIncredible},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.tier, TierFor(tt.streak), "streak %d", tt.streak)
	}
	assert.Empty(t, TierNone.Message())
	assert.Equal(t, "🔥 Great momentum!", TierMomentum.Message())
}
