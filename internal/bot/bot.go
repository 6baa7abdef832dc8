package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"lifeplanner/internal/backend"
	"lifeplanner/internal/config"
	"lifeplanner/internal/logging"
	"lifeplanner/internal/model"
	"lifeplanner/internal/repository"
	"lifeplanner/internal/service"
	"lifeplanner/internal/store"
	"lifeplanner/internal/timer"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageDueDate
	stagePriority
)

const (
	cbTaskPrefix  = "task:"
	cbHabitPrefix = "habit:"
	cbStepPrefix  = "step:"
)

const (
	btnSkip          = "⏭️ Skip"
	btnCancelDialog  = "⏪ Cancel"
	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelHabits  = "🔥 Habits"
	menuLabelGoals   = "🎯 Goals"
	menuLabelTimer   = "🍅 Timer"
	menuLabelReport  = "📊 Report"
)

type conversationState struct {
	stage conversationStage
	task  taskDraft
}

// chatSession is the application state of one chat: its own backend
// client, store and Pomodoro timer.
type chatSession struct {
	client       *backend.Client
	store        *store.Store
	runner       *timer.Runner
	conversation *conversationState
}

// Bot is the Telegram front-end over per-chat stores.
type Bot struct {
	api       *tgbotapi.BotAPI
	server    *backend.Server
	chats     *repository.ChatRepository
	reminders *service.ReminderService
	scheduler *service.SchedulerService
	config    *config.Config
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[int64]*chatSession
}

func New(cfg *config.Config, server *backend.Server, chats *repository.ChatRepository, reminders *service.ReminderService, scheduler *service.SchedulerService, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log = logging.OrNop(log).Named("bot")
	log.Info("bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:       api,
		server:    server,
		chats:     chats,
		reminders: reminders,
		scheduler: scheduler,
		config:    cfg,
		log:       log,
		sessions:  make(map[int64]*chatSession),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Warn("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Warn("handle message", zap.Error(err))
			}
		}
	}

	b.closeSessions()
	return nil
}

// session returns the chat's state, restoring a saved sign-in on first use.
func (b *Bot) session(ctx context.Context, chatID int64) (*chatSession, error) {
	b.mu.Lock()
	cs, ok := b.sessions[chatID]
	b.mu.Unlock()
	if ok {
		return cs, nil
	}

	client := b.server.NewClient()
	link, err := b.chats.Find(ctx, chatID)
	switch {
	case err == nil:
		client.Restore(link.Token)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	st := store.New(client,
		store.WithLogger(b.log.With(zap.Int64("chat", chatID))),
		store.WithRedirectURL(b.config.BaseURL),
	)
	if err := st.Init(ctx); err != nil {
		return nil, err
	}

	t := timer.New(b.config.PomodoroWork, b.config.PomodoroBreak)
	t.OnFinish(func(finished, next timer.Mode) {
		text := fmt.Sprintf("🍅 %s session completed! Time for a %s session. Send /timer start when ready.", modeLabel(finished), next)
		if err := b.sendText(chatID, text); err != nil {
			b.log.Warn("send timer notice", zap.Int64("chat", chatID), zap.Error(err))
		}
	})

	cs = &chatSession{
		client: client,
		store:  st,
		runner: timer.NewRunner(t, b.scheduler),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.sessions[chatID]; ok {
		st.Close()
		return existing, nil
	}
	b.sessions[chatID] = cs
	return cs, nil
}

func (b *Bot) closeSessions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cs := range b.sessions {
		cs.runner.Pause()
		cs.store.Close()
	}
}

// SendDailyReports sends a summary to every chat with a live session.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	links, err := b.chats.ListAll(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, link := range links {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		cs, err := b.session(ctx, link.ChatID)
		if err != nil {
			b.log.Warn("restore chat session", zap.Int64("chat", link.ChatID), zap.Error(err))
			continue
		}
		if cs.store.Status() != store.Authenticated {
			continue
		}
		if err := cs.store.Load(ctx); err != nil {
			b.log.Warn("refresh before report", zap.Int64("chat", link.ChatID), zap.Error(err))
		}
		text := b.reminders.DailySummary(cs.store.Snapshot(), now)
		if err := b.sendText(link.ChatID, text); err != nil {
			b.log.Warn("send summary", zap.Int64("chat", link.ChatID), zap.Error(err))
		}
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// sendError reports a failed store operation to the chat.
func (b *Bot) sendError(chatID int64, action string, err error) error {
	return b.sendText(chatID, fmt.Sprintf("Could not %s: %s", action, escape(userMessage(err))))
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}
}

func userMessage(err error) string {
	var verr model.ValidationError
	switch {
	case errors.Is(err, store.ErrNotAuthenticated):
		return "please /signin first"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return "not found"
	case errors.As(err, &verr):
		return verr.Error()
	default:
		return unwrapAll(err).Error()
	}
}

func unwrapAll(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func modeLabel(m timer.Mode) string {
	if m == timer.Break {
		return "Break"
	}
	return "Work"
}

func escape(s string) string {
	return html.EscapeString(s)
}
