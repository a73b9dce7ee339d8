// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(
	b *telebot.Bot,
	adminTelegramID int64,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		id := senderID(c)
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", id)
		logCtx.Info("Processing /start command")

		if id != 0 && id == adminTelegramID {
			logCtx.Info("User identified as Admin")
			return c.Send(fmt.Sprintf("Hi %s! Rolodex reminders are ready. Use /help for the list of commands.", c.Sender().FirstName))
		}

		logCtx.Info("User is unknown")
		return c.Send("Hi! This bot manages Rolodex reminders for its owner only.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		id := senderID(c)
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", id)
		logCtx.Info("Processing /help command")

		if id == 0 || id != adminTelegramID {
			logCtx.Info("User is unknown, sending restricted help.")
			return c.Send("There are no commands available to you.")
		}
		return c.Send(helpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

// senderID returns the Telegram user behind an update, or 0 when there is none.
func senderID(c telebot.Context) int64 {
	if sender := c.Sender(); sender != nil {
		return sender.ID
	}
	return 0
}

func helpText() string {
	var help strings.Builder
	help.WriteString("Available commands:\n\n")
	help.WriteString("`/run_now`\n - Scan the contact sheet now and email today's reminders.\n\n")
	help.WriteString("`/install_daily [hour]`\n - Schedule the daily scan. Without an hour the sheet's trigger hour is used.\n\n")
	help.WriteString("`/remove_triggers`\n - Remove the daily scan and any pending continuation.\n\n")
	help.WriteString("`/setup_sheet`\n - Write the header row and default settings to the sheet.\n\n")
	help.WriteString("`/status`\n - Show installed triggers and scan progress.\n\n")
	help.WriteString("`/help`\n - Show this message.")
	return help.String()
}
