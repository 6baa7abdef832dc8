package root

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lifeplanner/internal/bot"
	"lifeplanner/internal/repository"
	"lifeplanner/internal/service"
)

func newBotCmd() *cobra.Command {
	var purgeAt string

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and the report scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := openApp()
			if err != nil {
				return err
			}
			defer cleanup()
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			server := a.server()
			scheduler := service.NewSchedulerService(time.Local, a.log)
			telegramBot, err := bot.New(&a.cfg, server, repository.NewChatRepository(a.db), service.NewReminderService(), scheduler, a.log)
			if err != nil {
				return err
			}

			if a.cfg.ReportInterval > 0 {
				if _, err := scheduler.ScheduleInterval(a.cfg.ReportInterval, func() {
					jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
					defer cancel()
					if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
						a.log.Warn("daily reports", zap.Error(err))
					}
				}); err != nil {
					return err
				}
			}
			if _, err := scheduler.ScheduleDaily(purgeAt, func() {
				n, err := server.PurgeExpiredSessions(ctx)
				if err != nil {
					a.log.Warn("purge sessions", zap.Error(err))
					return
				}
				a.log.Info("expired sessions purged", zap.Int64("count", n))
			}); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			a.log.Info("lifeplanner bot started")
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&purgeAt, "purge-at", "03:30", "Daily time (HH:MM) to delete expired sessions")
	return cmd
}
