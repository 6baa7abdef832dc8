// Package tui renders the terminal Pomodoro timer.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lifeplanner/internal/timer"
)

const barWidth = 30

type timerModel struct {
	runner *timer.Runner
	rounds int

	completed int
	done      bool
	lastLog   string
	width     int
}

type refreshMsg time.Time

type finishedMsg struct {
	finished timer.Mode
	next     timer.Mode
}

func newTimerModel(runner *timer.Runner, rounds int) timerModel {
	return timerModel{runner: runner, rounds: rounds, lastLog: "Focus."}
}

// RunTimer starts runner and shows it until the user quits, ctx is done or
// rounds work periods have finished. With rounds 0 there is no limit and the
// timer pauses after each period; otherwise the next period starts on its
// own. It returns the number of finished work periods.
func RunTimer(ctx context.Context, runner *timer.Runner, rounds int, out io.Writer) (int, error) {
	p := tea.NewProgram(newTimerModel(runner, rounds), tea.WithOutput(out), tea.WithContext(ctx))
	runner.Timer().OnFinish(func(finished, next timer.Mode) {
		p.Send(finishedMsg{finished: finished, next: next})
	})
	defer runner.Pause()

	if err := runner.Start(); err != nil {
		return 0, err
	}
	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return 0, fmt.Errorf("run timer ui: %w", err)
	}
	if m, ok := final.(timerModel); ok {
		return m.completed, nil
	}
	return 0, nil
}

func refreshCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m timerModel) Init() tea.Cmd {
	return refreshCmd()
}

func (m timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case refreshMsg:
		return m, refreshCmd()
	case finishedMsg:
		if msg.finished == timer.Work {
			m.completed++
		}
		m.lastLog = fmt.Sprintf("%s session completed at %s.", msg.finished, time.Now().Format("15:04"))
		if m.rounds > 0 && m.completed >= m.rounds && msg.next == timer.Work {
			m.done = true
			return m, tea.Quit
		}
		if m.rounds == 0 {
			m.lastLog += " Press space to start the next session."
			return m, nil
		}
		if err := m.runner.Start(); err != nil {
			m.lastLog = "Restart failed: " + err.Error()
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ", "p":
			if m.runner.Timer().Running() {
				m.runner.Pause()
				m.lastLog = "Paused."
				return m, nil
			}
			if err := m.runner.Start(); err != nil {
				m.lastLog = "Start failed: " + err.Error()
				return m, nil
			}
			m.lastLog = "Resumed."
			return m, nil
		case "r":
			m.runner.Reset()
			m.lastLog = "Reset to a fresh work period."
			return m, nil
		}
	}
	return m, nil
}

func (m timerModel) View() string {
	t := m.runner.Timer()
	st := t.State()

	status := Muted.Render("paused")
	if st.Running {
		status = Key.Render("running")
	}
	rounds := fmt.Sprintf("%d", m.completed)
	if m.rounds > 0 {
		rounds = fmt.Sprintf("%d/%d", m.completed, m.rounds)
	}

	var b strings.Builder
	b.WriteString(Title.Render("🍅 Pomodoro") + "\n\n")
	b.WriteString(modeStyle(st.Mode).Render(strings.ToUpper(string(st.Mode))) + "  " + Clock.Render(t.String()) + "  " + status + "\n")
	b.WriteString(bar(t.Progress(), barWidth, st.Mode) + fmt.Sprintf(" %3.0f%%\n", t.Progress()))
	b.WriteString(Muted.Render("rounds "+rounds) + "\n\n")
	b.WriteString(Muted.Render(m.lastLog) + "\n")
	b.WriteString(Key.Render("space") + " start/pause  " + Key.Render("r") + " reset  " + Key.Render("q") + " quit")
	return Panel.Render(b.String()) + "\n"
}
