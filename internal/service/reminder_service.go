package service

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"lifeplanner/internal/model"
	"lifeplanner/internal/store"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct{}

func NewReminderService() *ReminderService {
	return &ReminderService{}
}

// DailySummary renders the daily report for a store snapshot as Telegram
// HTML.
func (s *ReminderService) DailySummary(snap store.Snapshot, now time.Time) string {
	today := model.FormatDate(now)

	var pending []model.Task
	for _, task := range snap.Tasks {
		if task.Status != model.StatusCompleted {
			pending = append(pending, task)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		a, b := pending[i].DueDate, pending[j].DueDate
		switch {
		case a == nil && b == nil:
			return priorityRank(pending[i].Priority) > priorityRank(pending[j].Priority)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	builder.WriteString("🔥 <b>Open tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing open\n")
	} else {
		for _, task := range pending {
			builder.WriteString(formatTask(task, today))
		}
	}

	builder.WriteString("\n♻️ <b>Habits</b>\n")
	if len(snap.Habits) == 0 {
		builder.WriteString("— no habits yet\n")
	} else {
		for _, habit := range snap.Habits {
			builder.WriteString(formatHabit(habit, today))
		}
	}

	builder.WriteString("\n🎯 <b>Goals</b>\n")
	if len(snap.Goals) == 0 {
		builder.WriteString("— no goals yet\n")
	} else {
		for _, goal := range snap.Goals {
			builder.WriteString(formatGoal(goal, snap.GoalSteps))
		}
	}

	return strings.TrimSpace(builder.String())
}

func formatTask(task model.Task, today string) string {
	var sb strings.Builder

	icon := "🟢"
	if task.DueDate != nil {
		switch {
		case *task.DueDate < today:
			icon = "⚠️"
		case *task.DueDate == today:
			icon = "⏳"
		}
	}

	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("%s %s", icon, title))
	if task.Priority == model.PriorityHigh {
		sb.WriteString(" <b>(high)</b>")
	}
	if len(task.Tags) > 0 {
		sb.WriteString(fmt.Sprintf(" <i>#%s</i>", html.EscapeString(strings.Join(task.Tags, " #"))))
	}

	if task.DueDate != nil {
		if *task.DueDate < today {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s — <b>overdue</b>", *task.DueDate))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s", *task.DueDate))
		}
	}

	if task.Description != nil && strings.TrimSpace(*task.Description) != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(*task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatHabit(habit model.Habit, today string) string {
	mark := "⬜"
	if habit.CompletedOn(today) {
		mark = "✅"
	}
	line := fmt.Sprintf("%s %s · 🔥 %d", mark, html.EscapeString(habit.Name), habit.Streak)
	if msg := store.TierFor(habit.Streak).Message(); msg != "" {
		line += " " + msg
	}
	return line + "\n"
}

func formatGoal(goal model.Goal, steps []model.GoalStep) string {
	done, total := 0, 0
	for _, step := range steps {
		if step.GoalID != goal.ID {
			continue
		}
		total++
		if step.IsCompleted {
			done++
		}
	}
	line := fmt.Sprintf("%s %s · %d%%", ProgressBar(goal.Progress), html.EscapeString(goal.Title), goal.Progress)
	if total > 0 {
		line += fmt.Sprintf(" · steps %d/%d", done, total)
	}
	if goal.Deadline != nil {
		line += fmt.Sprintf("\n   📆 by %s", *goal.Deadline)
	}
	return line + "\n"
}

func ProgressBar(progress int) string {
	filled := progress / 20
	if filled > 5 {
		filled = 5
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 5-filled)
}

func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 2
	case model.PriorityMedium:
		return 1
	default:
		return 0
	}
}
