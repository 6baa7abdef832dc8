package root

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lifeplanner/internal/config"
	"lifeplanner/internal/logging"
	"lifeplanner/internal/service"
	"lifeplanner/internal/timer"
	"lifeplanner/internal/tui"
)

func newTimerCmd() *cobra.Command {
	var work time.Duration
	var brk time.Duration
	var rounds int
	var plain bool

	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run a Pomodoro timer in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if !cmd.Flags().Changed("work") {
				work = cfg.PomodoroWork
			}
			if !cmd.Flags().Changed("break") {
				brk = cfg.PomodoroBreak
			}

			out := cmd.OutOrStdout()
			scheduler := service.NewSchedulerService(time.Local, log)
			scheduler.Start()
			defer scheduler.Stop()
			runner := timer.NewRunner(timer.New(work, brk), scheduler)

			if !plain {
				completed, err := tui.RunTimer(ctx, runner, rounds, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "🏁 %d work sessions done.\n", completed)
				return nil
			}
			return runPlainTimer(ctx, out, scheduler, runner, rounds, log)
		},
	}

	cmd.Flags().DurationVarP(&work, "work", "w", timer.DefaultWork, "Work period length")
	cmd.Flags().DurationVarP(&brk, "break", "b", timer.DefaultBreak, "Break period length")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 0, "Chain periods until this many work periods are done (0 stops after each period)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print progress lines instead of the interactive view")
	return cmd
}

// runPlainTimer prints the countdown on one refreshing line. With rounds 0
// it returns when the first period ends; otherwise periods restart on their
// own until rounds work periods are done.
func runPlainTimer(ctx context.Context, out io.Writer, scheduler *service.SchedulerService, runner *timer.Runner, rounds int, log *zap.Logger) error {
	t := runner.Timer()
	done := make(chan struct{})
	completed := 0

	t.OnFinish(func(finished, next timer.Mode) {
		fmt.Fprintf(out, "\n🍅 %s session completed. Next: %s.\n", finished, next)
		if finished == timer.Work {
			completed++
		}
		if rounds == 0 || (completed >= rounds && next == timer.Work) {
			close(done)
			return
		}
		if err := runner.Start(); err != nil {
			log.Warn("restart timer", zap.Error(err))
		}
	})

	progress, err := scheduler.ScheduleInterval(time.Second, func() {
		if t.Running() {
			fmt.Fprintf(out, "\r%s %s  %3.0f%%", t.State().Mode, t, t.Progress())
		}
	})
	if err != nil {
		return err
	}
	defer scheduler.Remove(progress)

	if err := runner.Start(); err != nil {
		return err
	}
	defer runner.Pause()
	st := t.State()
	fmt.Fprintf(out, "▶️ %s session, %s. Ctrl+C to stop.\n", st.Mode, t)

	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\n⏸ Stopped.")
	case <-done:
		fmt.Fprintf(out, "🏁 %d work sessions done.\n", completed)
	}
	return nil
}
