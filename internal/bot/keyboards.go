package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lifeplanner/internal/model"
)

const helpText = `<b>Account</b>
/signup email password [name] · /verify token
/signin email password · /signout · /profile [name]

<b>Tasks</b>
/tasks · /find [text] [status] [priority] · /newtask · /status n · /deltask n

<b>Habits</b>
/habits · /newhabit name [daily|weekly|custom] · /done n · /delhabit n

<b>Goals</b>
/goals · /newgoal title [YYYY-MM-DD] · /step n title · /progress n 0-100 · /delgoal n

<b>Vision board</b>
/vision · /quote text · /image url · /delvision n

<b>Focus</b>
/timer [start|pause|reset] · /report`

func replyKeyboard(oneTime bool, rows ...[]string) tgbotapi.ReplyKeyboardMarkup {
	buttons := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			line = append(line, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, line)
	}
	kb := tgbotapi.NewReplyKeyboard(buttons...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = oneTime
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(false,
		[]string{menuLabelNewTask, menuLabelTasks},
		[]string{menuLabelHabits, menuLabelGoals},
		[]string{menuLabelTimer, menuLabelReport},
	)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnCancelDialog})
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true, []string{btnSkip}, []string{btnCancelDialog})
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyKeyboard(true,
		[]string{string(model.PriorityLow), string(model.PriorityMedium), string(model.PriorityHigh)},
		[]string{btnSkip, btnCancelDialog},
	)
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(title)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
