package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lifeplanner/internal/model"
	"lifeplanner/internal/service"
	"lifeplanner/internal/store"
)

func statusIcon(s model.TaskStatus) string {
	switch s {
	case model.StatusInProgress:
		return "🔄"
	case model.StatusCompleted:
		return "✅"
	default:
		return "⬜"
	}
}

func statusLabel(s model.TaskStatus) string {
	switch s {
	case model.StatusInProgress:
		return "in progress"
	case model.StatusCompleted:
		return "completed"
	default:
		return "not started"
	}
}

func (b *Bot) sendTaskList(cs *chatSession, chatID int64) error {
	return b.sendTasks(cs, chatID, cs.store.Tasks(), "📋 <b>Your tasks</b>")
}

// sendFilteredTasks lists the tasks matching f, numbered by their position
// in the full list so /status and /deltask keep working.
func (b *Bot) sendFilteredTasks(cs *chatSession, chatID int64, f store.TaskFilter) error {
	return b.sendTasks(cs, chatID, cs.store.FilterTasks(f), "🔎 <b>Matching tasks</b>")
}

func (b *Bot) sendTasks(cs *chatSession, chatID int64, tasks []model.Task, header string) error {
	if cs.store.Status() != store.Authenticated {
		return b.sendText(chatID, "Please /signin first.")
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No tasks here. Add one with /newtask.")
	}

	index := make(map[string]int)
	for i, t := range cs.store.Tasks() {
		index[t.ID] = i + 1
	}

	today := model.FormatDate(time.Now())
	var builder strings.Builder
	builder.WriteString(header + "\n")
	builder.WriteString("Tap a task to move it to the next status.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		n := index[task.ID]
		builder.WriteString(fmt.Sprintf("%d. %s %s", n, statusIcon(task.Status), escape(task.Title)))
		if task.Priority == model.PriorityHigh {
			builder.WriteString(" <b>(high)</b>")
		}
		if task.DueDate != nil {
			due := *task.DueDate
			if due < today && task.Status != model.StatusCompleted {
				builder.WriteString(fmt.Sprintf(" · ⚠️ %s", due))
			} else {
				builder.WriteString(fmt.Sprintf(" · ⏰ %s", due))
			}
		}
		builder.WriteByte('\n')

		label := fmt.Sprintf("%s %d · %s", statusIcon(task.Status.Next()), n, shortTitle(task.Title, 24))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbTaskPrefix+task.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendHabitList(cs *chatSession, chatID int64) error {
	if cs.store.Status() != store.Authenticated {
		return b.sendText(chatID, "Please /signin first.")
	}
	habits := cs.store.Habits()
	if len(habits) == 0 {
		return b.sendText(chatID, "No habits yet. Start one with /newhabit.")
	}

	today := model.FormatDate(time.Now())
	var builder strings.Builder
	builder.WriteString("🔥 <b>Your habits</b>\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, habit := range habits {
		mark := "⬜"
		if habit.CompletedOn(today) {
			mark = "✅"
		}
		builder.WriteString(fmt.Sprintf("%d. %s %s · %s · 🔥 %d\n", i+1, mark, escape(habit.Name), habit.Frequency, habit.Streak))
		if habit.CompletedOn(today) {
			continue
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ %s", shortTitle(habit.Name, 24)), cbHabitPrefix+habit.ID),
		))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendGoalList(cs *chatSession, chatID int64) error {
	if cs.store.Status() != store.Authenticated {
		return b.sendText(chatID, "Please /signin first.")
	}
	goals := cs.store.Goals()
	if len(goals) == 0 {
		return b.sendText(chatID, "No goals yet. Set one with /newgoal.")
	}

	var builder strings.Builder
	builder.WriteString("🎯 <b>Your goals</b>\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for i, goal := range goals {
		builder.WriteString(fmt.Sprintf("%d. %s %s · %d%%\n", i+1, service.ProgressBar(goal.Progress), escape(goal.Title), goal.Progress))
		if goal.Deadline != nil {
			builder.WriteString(fmt.Sprintf("   📆 by %s\n", *goal.Deadline))
		}
		for _, step := range cs.store.StepsForGoal(goal.ID) {
			mark := "▫️"
			if step.IsCompleted {
				mark = "☑️"
			}
			builder.WriteString(fmt.Sprintf("   %s %s\n", mark, escape(step.Title)))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %d · %s", mark, i+1, shortTitle(step.Title, 24)), cbStepPrefix+step.ID),
			))
		}
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendVisionBoard(cs *chatSession, chatID int64) error {
	if cs.store.Status() != store.Authenticated {
		return b.sendText(chatID, "Please /signin first.")
	}
	items := cs.store.VisionItems()
	if len(items) == 0 {
		return b.sendText(chatID, "Your vision board is empty. Pin a /quote or an /image.")
	}

	var builder strings.Builder
	builder.WriteString("🌈 <b>Vision board</b>\n\n")
	for i, item := range items {
		builder.WriteString(fmt.Sprintf("%d. ", i+1))
		if item.Quote != nil {
			builder.WriteString(fmt.Sprintf("<i>“%s”</i>", escape(*item.Quote)))
		}
		if item.ImageURL != nil {
			if item.Quote != nil {
				builder.WriteString(" ")
			}
			builder.WriteString(fmt.Sprintf("<a href=\"%s\">🖼 image</a>", escape(*item.ImageURL)))
		}
		builder.WriteByte('\n')
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}
