package main

import (
	"context"
	"fmt"
	"time"

	"rolodex_reminder/internal/domain/telegram"
	"rolodex_reminder/internal/domain/trigger"
	"rolodex_reminder/internal/infra/logger"
	"rolodex_reminder/internal/infra/metrics"
	"rolodex_reminder/internal/infra/scheduler"
	itelegram "rolodex_reminder/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"
)

func newServeCommand(withComponents withComponentsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the trigger scheduler, metrics endpoint and optional operator bot",
		RunE: withComponents(func(ctx context.Context, cmd *cobra.Command, c *components) error {
			return serve(ctx, c)
		}),
	}
}

func serve(ctx context.Context, c *components) error {
	mainLogger := logger.Component("main")
	mainLogger.Info("Rolodex reminder service starting...")

	var notifier telegram.Notifier
	var bot *telebot.Bot
	if c.cfg.TelegramToken != "" {
		var err error
		bot, err = newBot(c.cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("could not create Telegram bot: %w", err)
		}
		notifier = itelegram.NewAdminNotifier(bot, c.cfg.AdminTelegramID)
		botLogger := logger.Component("telegram")
		itelegram.RegisterBotCommands(bot, c.cfg.AdminTelegramID, botLogger)
		itelegram.RegisterOperatorHandlers(ctx, bot, c.operator, botLogger)
		mainLogger.Info("Operator bot handlers registered.")
	}

	c.scheduler.Register(trigger.HandlerDailyKickoff, alerting(c.scan.Start, "Daily reminder scan", notifier, mainLogger))
	c.scheduler.Register(trigger.HandlerContinuation, alerting(c.scan.Continue, "Reminder scan continuation", notifier, mainLogger))
	if err := c.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("could not start scheduler: %w", err)
	}
	defer c.scheduler.Stop()

	if c.cfg.InstallDailyOnServe {
		installed, err := c.operator.InstallDailyFromSheet(ctx, nil)
		if err != nil {
			return fmt.Errorf("could not install daily trigger: %w", err)
		}
		mainLogger.WithFields(logrus.Fields{
			"hour":     installed.Hour,
			"timezone": installed.Timezone,
		}).Info("Daily trigger installed on startup")
	}

	metricsErr := make(chan error, 1)
	go func() {
		metricsErr <- metrics.Serve(ctx, c.cfg.MetricsAddr, c.registry, logger.Component("metrics"))
	}()

	if bot != nil {
		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
		defer bot.Stop()
	}

	mainLogger.Info("Application setup complete. Scheduler is running.")

	select {
	case <-ctx.Done():
		mainLogger.Info("Shutting down application...")
	case err := <-metricsErr:
		if err != nil {
			return fmt.Errorf("metrics endpoint failed: %w", err)
		}
	}
	mainLogger.Info("Application shut down gracefully.")
	return nil
}

func newBot(token string) (*telebot.Bot, error) {
	botLogger := logger.Component("telegram")
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"message":   c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler error")
		},
	}
	return telebot.NewBot(pref)
}

// alerting wraps a handler so a failed run is also reported to the operator chat.
func alerting(fn scheduler.JobFunc, what string, notifier telegram.Notifier, log *logrus.Entry) scheduler.JobFunc {
	return func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || notifier == nil {
			return err
		}
		if nerr := notifier.Notify(fmt.Sprintf("%s failed: %v", what, err)); nerr != nil {
			log.WithError(nerr).Warn("Could not notify operator")
		}
		return err
	}
}
