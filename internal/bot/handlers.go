package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lifeplanner/internal/model"
	"lifeplanner/internal/service"
	"lifeplanner/internal/store"
)

type taskDraft struct {
	Title       string
	Description string
	DueDate     string
	Priority    model.Priority
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	cs, err := b.session(ctx, msg.Chat.ID)
	if err != nil {
		return err
	}

	if cs.conversation != nil && !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		cs.conversation = nil
		return b.sendText(msg.Chat.ID, "⏪ Task creation cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, cs, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Info("command", zap.Int64("chat", msg.Chat.ID), zap.String("command", msg.Command()))
		return b.handleCommand(ctx, cs, msg)
	}

	if cs.conversation != nil {
		return b.handleConversation(ctx, cs, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /newtask or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, cs *chatSession, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(cs, msg)
	case "help":
		return b.sendText(chatID, helpText)
	case "signup":
		return b.handleSignUp(ctx, cs, msg, args)
	case "verify":
		return b.handleVerify(ctx, chatID, args)
	case "signin":
		return b.handleSignIn(ctx, cs, msg, args)
	case "signout":
		return b.handleSignOut(ctx, cs, chatID)
	case "tasks":
		return b.sendTaskList(cs, chatID)
	case "newtask":
		cs.conversation = &conversationState{stage: stageTitle}
		return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
	case "find":
		return b.sendFilteredTasks(cs, chatID, parseTaskFilter(args))
	case "status":
		return b.handleAdvanceTask(ctx, cs, chatID, args)
	case "deltask":
		return b.handleDeleteTask(ctx, cs, chatID, args)
	case "habits":
		return b.sendHabitList(cs, chatID)
	case "newhabit":
		return b.handleNewHabit(ctx, cs, chatID, args)
	case "done":
		return b.handleCompleteHabit(ctx, cs, chatID, args)
	case "delhabit":
		return b.handleDeleteHabit(ctx, cs, chatID, args)
	case "goals":
		return b.sendGoalList(cs, chatID)
	case "newgoal":
		return b.handleNewGoal(ctx, cs, chatID, args)
	case "step":
		return b.handleNewStep(ctx, cs, chatID, args)
	case "progress":
		return b.handleProgress(ctx, cs, chatID, args)
	case "delgoal":
		return b.handleDeleteGoal(ctx, cs, chatID, args)
	case "vision":
		return b.sendVisionBoard(cs, chatID)
	case "quote":
		return b.handleNewVision(ctx, cs, chatID, model.VisionItem{Quote: &args})
	case "image":
		return b.handleNewVision(ctx, cs, chatID, model.VisionItem{ImageURL: &args})
	case "delvision":
		return b.handleDeleteVision(ctx, cs, chatID, args)
	case "profile":
		return b.handleProfile(ctx, cs, chatID, args)
	case "report":
		return b.handleReport(cs, chatID)
	case "timer":
		return b.handleTimer(cs, chatID, args)
	case "cancel":
		cs.conversation = nil
		return b.sendText(chatID, "⏪ Input cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, cs *chatSession, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		cs.conversation = &conversationState{stage: stageTitle}
		return true, b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
	case menuLabelTasks:
		return true, b.sendTaskList(cs, msg.Chat.ID)
	case menuLabelHabits:
		return true, b.sendHabitList(cs, msg.Chat.ID)
	case menuLabelGoals:
		return true, b.sendGoalList(cs, msg.Chat.ID)
	case menuLabelTimer:
		return true, b.handleTimer(cs, msg.Chat.ID, "")
	case menuLabelReport:
		return true, b.handleReport(cs, msg.Chat.ID)
	default:
		return false, nil
	}
}

func (b *Bot) handleStart(cs *chatSession, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if id := cs.store.Identity(); id != nil && id.DisplayName != "" {
		name = id.DisplayName
	}
	if name == "" {
		name = "friend"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your tasks, habits, goals and vision board.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleSignUp(ctx context.Context, cs *chatSession, msg *tgbotapi.Message, args string) error {
	b.deleteMessage(msg)
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /signup email password [name]")
	}
	name := strings.Join(fields[2:], " ")
	if err := cs.store.SignUp(ctx, fields[0], fields[1], name); err != nil {
		return b.sendError(msg.Chat.ID, "sign up", err)
	}
	return b.sendText(msg.Chat.ID, "📬 Account created. Follow the confirmation link (or send /verify &lt;token&gt;), then /signin.")
}

func (b *Bot) handleVerify(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		return b.sendText(chatID, "Usage: /verify token")
	}
	if err := b.server.Verify(ctx, args); err != nil {
		return b.sendError(chatID, "verify", err)
	}
	return b.sendText(chatID, "✅ Email confirmed. You can /signin now.")
}

func (b *Bot) handleSignIn(ctx context.Context, cs *chatSession, msg *tgbotapi.Message, args string) error {
	b.deleteMessage(msg)
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: /signin email password")
	}
	if err := cs.store.SignIn(ctx, fields[0], fields[1]); err != nil {
		return b.sendError(msg.Chat.ID, "sign in", err)
	}
	if err := b.chats.Save(ctx, msg.Chat.ID, cs.client.Token()); err != nil {
		b.log.Warn("save chat link", zap.Int64("chat", msg.Chat.ID), zap.Error(err))
	}
	snap := cs.store.Snapshot()
	text := fmt.Sprintf("🔓 Signed in as %s.\n%d tasks · %d habits · %d goals · %d board items",
		escape(snap.Identity.Email), len(snap.Tasks), len(snap.Habits), len(snap.Goals), len(snap.VisionItems))
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleSignOut(ctx context.Context, cs *chatSession, chatID int64) error {
	cs.runner.Reset()
	cs.conversation = nil
	if err := cs.store.SignOut(ctx); err != nil {
		b.log.Warn("sign out", zap.Int64("chat", chatID), zap.Error(err))
	}
	if err := b.chats.Delete(ctx, chatID); err != nil {
		b.log.Warn("delete chat link", zap.Int64("chat", chatID), zap.Error(err))
	}
	return b.sendText(chatID, "👋 Signed out.")
}

// deleteMessage removes a message carrying credentials from the chat.
func (b *Bot) deleteMessage(msg *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.Debug("delete credentials message", zap.Error(err))
	}
}

func (b *Bot) handleConversation(ctx context.Context, cs *chatSession, msg *tgbotapi.Message) error {
	state := cs.conversation
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The title cannot be empty.", cancelKeyboard())
		}
		state.task.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(chatID, "✏️ Add a short description (or Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.task.Description = text
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(chatID, "⏰ Due date as <code>2025-11-30</code> (or Skip).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			if _, err := time.Parse(model.DateLayout, text); err != nil {
				return b.sendWithReplyMarkup(chatID, "Cannot read that date. Use <code>2025-11-30</code> or Skip.", skipKeyboard())
			}
			state.task.DueDate = text
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(chatID, "🚦 Priority?", priorityKeyboard())
	case stagePriority:
		priority := model.PriorityMedium
		if !isSkipInput(text) {
			p, err := model.ParsePriority(text)
			if err != nil {
				return b.sendWithReplyMarkup(chatID, "Pick low, medium or high.", priorityKeyboard())
			}
			priority = p
		}
		state.task.Priority = priority
		cs.conversation = nil
		return b.finishTaskCreation(ctx, cs, chatID, state.task)
	default:
		cs.conversation = nil
		return b.sendText(chatID, "Dialog reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, cs *chatSession, chatID int64, draft taskDraft) error {
	task := model.Task{
		Title:    draft.Title,
		Priority: draft.Priority,
		Status:   model.StatusNotStarted,
	}
	if draft.Description != "" {
		task.Description = &draft.Description
	}
	if draft.DueDate != "" {
		task.DueDate = &draft.DueDate
	}

	created, err := cs.store.CreateTask(ctx, task)
	if err != nil {
		return b.sendError(chatID, "save the task", err)
	}
	b.log.Info("task created", zap.Int64("chat", chatID), zap.String("task", created.ID))

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(created.Title)))
	if created.Description != nil {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(*created.Description)))
	}
	if created.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", *created.DueDate))
	}
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", created.Priority))
	if err := b.sendText(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(cs, chatID)
}

func (b *Bot) handleAdvanceTask(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	task, err := pick(cs.store.Tasks(), args)
	if err != nil {
		return b.sendText(chatID, "Usage: /status &lt;n&gt; (number from /tasks)")
	}
	next, err := cs.store.AdvanceTask(ctx, task.ID)
	if err != nil {
		return b.sendError(chatID, "update the task", err)
	}
	return b.sendText(chatID, fmt.Sprintf("%s «%s» is now %s.", statusIcon(next), escape(task.Title), statusLabel(next)))
}

func (b *Bot) handleDeleteTask(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	task, err := pick(cs.store.Tasks(), args)
	if err != nil {
		return b.sendText(chatID, "Usage: /deltask &lt;n&gt;")
	}
	if err := cs.store.DeleteTask(ctx, task.ID); err != nil {
		return b.sendError(chatID, "delete the task", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(task.Title)))
}

func (b *Bot) handleNewHabit(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	habit, ok := parseHabitArgs(args)
	if !ok {
		return b.sendText(chatID, "Usage: /newhabit name [daily|weekly|custom]")
	}
	created, err := cs.store.CreateHabit(ctx, habit)
	if err != nil {
		return b.sendError(chatID, "save the habit", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🌱 Habit «%s» added (%s).", escape(created.Name), created.Frequency))
}

func (b *Bot) handleCompleteHabit(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	habit, err := pick(cs.store.Habits(), args)
	if err != nil {
		return b.sendText(chatID, "Usage: /done &lt;n&gt; (number from /habits)")
	}
	return b.completeHabit(ctx, cs, chatID, habit.ID)
}

func (b *Bot) completeHabit(ctx context.Context, cs *chatSession, chatID int64, id string) error {
	habit, err := cs.store.CompleteHabit(ctx, id)
	if err != nil {
		return b.sendError(chatID, "complete the habit", err)
	}
	text := fmt.Sprintf("✅ «%s» done today · 🔥 %d", escape(habit.Name), habit.Streak)
	if msg := store.TierFor(habit.Streak).Message(); msg != "" {
		text += "\n" + msg
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleDeleteHabit(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	habit, err := pick(cs.store.Habits(), args)
	if err != nil {
		return b.sendText(chatID, "Usage: /delhabit &lt;n&gt;")
	}
	if err := cs.store.DeleteHabit(ctx, habit.ID); err != nil {
		return b.sendError(chatID, "delete the habit", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Habit «%s» deleted.", escape(habit.Name)))
}

func (b *Bot) handleNewGoal(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	goal, ok := parseGoalArgs(args)
	if !ok {
		return b.sendText(chatID, "Usage: /newgoal title [YYYY-MM-DD]")
	}
	created, err := cs.store.CreateGoal(ctx, goal)
	if err != nil {
		return b.sendError(chatID, "save the goal", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🎯 Goal «%s» added. Break it down with /step.", escape(created.Title)))
}

func (b *Bot) handleNewStep(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	index, title, _ := strings.Cut(args, " ")
	goal, err := pick(cs.store.Goals(), index)
	if err != nil || strings.TrimSpace(title) == "" {
		return b.sendText(chatID, "Usage: /step &lt;goal n&gt; title")
	}
	if _, err := cs.store.CreateGoalStep(ctx, goal.ID, title); err != nil {
		return b.sendError(chatID, "add the step", err)
	}
	return b.sendGoalList(cs, chatID)
}

func (b *Bot) handleProgress(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	index, progress, err := parseProgressArgs(args)
	if err != nil {
		return b.sendText(chatID, "Usage: /progress &lt;goal n&gt; &lt;0-100&gt;")
	}
	goal, err := pick(cs.store.Goals(), index)
	if err != nil {
		return b.sendText(chatID, "No goal with that number.")
	}
	if err := cs.store.UpdateGoal(ctx, goal.ID, model.GoalPatch{Progress: &progress}); err != nil {
		return b.sendError(chatID, "update the goal", err)
	}
	return b.sendText(chatID, fmt.Sprintf("%s «%s» · %d%%", service.ProgressBar(progress), escape(goal.Title), progress))
}

func (b *Bot) handleDeleteGoal(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	goal, err := pick(cs.store.Goals(), args)
	if err != nil {
		return b.sendText(chatID, "Usage: /delgoal &lt;n&gt;")
	}
	if err := cs.store.DeleteGoal(ctx, goal.ID); err != nil {
		return b.sendError(chatID, "delete the goal", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Goal «%s» and its steps deleted.", escape(goal.Title)))
}

func (b *Bot) handleNewVision(ctx context.Context, cs *chatSession, chatID int64, item model.VisionItem) error {
	n := len(cs.store.VisionItems())
	item.PositionX = (n % 3) * 100
	item.PositionY = (n / 3) * 100
	if _, err := cs.store.CreateVisionItem(ctx, item); err != nil {
		return b.sendError(chatID, "pin it", err)
	}
	return b.sendVisionBoard(cs, chatID)
}

func (b *Bot) handleDeleteVision(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	item, err := pick(cs.store.VisionItems(), args)
	if err != nil {
		return b.sendText(chatID, "Usage: /delvision &lt;n&gt;")
	}
	if err := cs.store.DeleteVisionItem(ctx, item.ID); err != nil {
		return b.sendError(chatID, "remove it", err)
	}
	return b.sendVisionBoard(cs, chatID)
}

func (b *Bot) handleProfile(ctx context.Context, cs *chatSession, chatID int64, args string) error {
	if args == "" {
		profile, err := cs.store.Profile(ctx)
		if err != nil {
			return b.sendError(chatID, "load the profile", err)
		}
		id := cs.store.Identity()
		return b.sendText(chatID, fmt.Sprintf("👤 <b>%s</b>\n%s\nChange the name with /profile &lt;name&gt;.",
			escape(orDash(profile.FullName)), escape(id.Email)))
	}
	current, err := cs.store.Profile(ctx)
	if err != nil {
		return b.sendError(chatID, "load the profile", err)
	}
	current.FullName = args
	if _, err := cs.store.SaveProfile(ctx, current); err != nil {
		return b.sendError(chatID, "save the profile", err)
	}
	return b.sendText(chatID, "✅ Profile updated.")
}

func (b *Bot) handleReport(cs *chatSession, chatID int64) error {
	if cs.store.Status() != store.Authenticated {
		return b.sendText(chatID, "Please /signin first.")
	}
	now := time.Now()
	sum := cs.store.Summary(now)
	text := b.reminders.DailySummary(cs.store.Snapshot(), now)
	text += fmt.Sprintf("\n\n📊 %d/%d tasks done · %d due today · %d overdue\n🔥 %d total streak (best %d)\n🎯 %.0f%% average goal progress",
		sum.CompletedTasks, sum.TotalTasks, len(sum.TodayTasks), len(sum.OverdueTasks),
		sum.TotalStreak, sum.BestStreak, sum.AverageGoalProgress)
	return b.sendText(chatID, text)
}

func (b *Bot) handleTimer(cs *chatSession, chatID int64, args string) error {
	switch strings.ToLower(args) {
	case "start":
		if err := cs.runner.Start(); err != nil {
			return b.sendError(chatID, "start the timer", err)
		}
	case "pause":
		cs.runner.Pause()
	case "reset":
		cs.runner.Reset()
	case "":
	default:
		return b.sendText(chatID, "Usage: /timer [start|pause|reset]")
	}
	t := cs.runner.Timer()
	state := t.State()
	running := "⏸ paused"
	if state.Running {
		running = "▶️ running"
	}
	return b.sendText(chatID, fmt.Sprintf("🍅 %s · <code>%s</code> · %s · %.0f%%", modeLabel(state.Mode), t.String(), running, t.Progress()))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	cs, err := b.session(ctx, chatID)
	if err != nil {
		b.ack(cb, "")
		return err
	}

	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTaskPrefix):
		b.ack(cb, "")
		next, err := cs.store.AdvanceTask(ctx, strings.TrimPrefix(data, cbTaskPrefix))
		if err != nil {
			return b.sendError(chatID, "update the task", err)
		}
		b.log.Info("task advanced", zap.Int64("chat", chatID), zap.String("status", string(next)))
		return b.sendTaskList(cs, chatID)
	case strings.HasPrefix(data, cbHabitPrefix):
		b.ack(cb, "")
		return b.completeHabit(ctx, cs, chatID, strings.TrimPrefix(data, cbHabitPrefix))
	case strings.HasPrefix(data, cbStepPrefix):
		b.ack(cb, "")
		id := strings.TrimPrefix(data, cbStepPrefix)
		var done bool
		for _, step := range cs.store.GoalSteps() {
			if step.ID == id {
				done = !step.IsCompleted
			}
		}
		if err := cs.store.UpdateGoalStep(ctx, id, model.GoalStepPatch{IsCompleted: &done}); err != nil {
			return b.sendError(chatID, "update the step", err)
		}
		return b.sendGoalList(cs, chatID)
	default:
		b.ack(cb, "")
		return nil
	}
}

// parseTaskFilter reads status and priority keywords; the remaining words
// are the search text.
// parseHabitArgs reads "name [frequency]". A lone word is always the name.
func parseHabitArgs(args string) (model.Habit, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return model.Habit{}, false
	}
	habit := model.Habit{Frequency: model.FrequencyDaily}
	if len(fields) > 1 {
		if f, err := model.ParseFrequency(fields[len(fields)-1]); err == nil {
			habit.Frequency = f
			fields = fields[:len(fields)-1]
		}
	}
	habit.Name = strings.Join(fields, " ")
	return habit, true
}

// parseGoalArgs reads "title [YYYY-MM-DD]".
func parseGoalArgs(args string) (model.Goal, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return model.Goal{}, false
	}
	goal := model.Goal{}
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if _, err := time.Parse(model.DateLayout, last); err == nil {
			goal.Deadline = &last
			fields = fields[:len(fields)-1]
		}
	}
	goal.Title = strings.Join(fields, " ")
	return goal, true
}

// parseProgressArgs reads "n percent", where percent may end in %.
func parseProgressArgs(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("want 2 arguments, got %d", len(fields))
	}
	progress, err := strconv.Atoi(strings.TrimSuffix(fields[1], "%"))
	if err != nil {
		return "", 0, fmt.Errorf("progress %q: %w", fields[1], err)
	}
	return fields[0], progress, nil
}

func parseTaskFilter(args string) store.TaskFilter {
	var f store.TaskFilter
	var search []string
	for _, word := range strings.Fields(args) {
		if status, err := model.ParseTaskStatus(word); err == nil {
			f.Status = status
			continue
		}
		if priority, err := model.ParsePriority(word); err == nil {
			f.Priority = priority
			continue
		}
		search = append(search, word)
	}
	f.Search = strings.Join(search, " ")
	return f
}

// pick resolves a 1-based list number typed by the user.
func pick[T any](items []T, arg string) (T, error) {
	var zero T
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return zero, err
	}
	if n < 1 || n > len(items) {
		return zero, errors.New("index out of range")
	}
	return items[n-1], nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
