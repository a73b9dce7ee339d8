package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rolodex_reminder/internal/app"
	"rolodex_reminder/internal/domain/trigger"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	callbackRemoveConfirm = "rm_yes"
	callbackRemoveCancel  = "rm_no"

	commandTimeout = 2 * time.Minute
)

const unauthorizedReply = "Error: you are not allowed to run this command."

// RegisterOperatorHandlers registers the operator menu commands. Every command is
// restricted to the configured admin.
func RegisterOperatorHandlers(ctx context.Context, b *telebot.Bot, operator *app.OperatorService, baseLogger *logrus.Entry) {
	guard := func(command string, next func(c telebot.Context, logger *logrus.Entry) error) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			id, ok := authorizedSender(c, operator.Authorize)
			handlerLogger := baseLogger.WithFields(logrus.Fields{
				"handler":   command,
				"sender_id": id,
			})
			handlerLogger.Info("Command received")

			if !ok {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(unauthorizedReply)
			}
			return next(c, handlerLogger)
		}
	}

	b.Handle("/run_now", guard("/run_now", func(c telebot.Context, logger *logrus.Entry) error {
		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()

		queued, err := operator.QueueRun(cctx)
		if err != nil {
			logger.WithError(err).Error("Failed to queue reminder run")
			return c.Send(fmt.Sprintf("Could not start reminders: %s", err.Error()))
		}
		logger.WithField("trigger_id", queued.ID).Info("Reminder run queued")
		return c.Send("Reminder scan started. The digest goes out once every contact has been checked.")
	}))

	b.Handle("/install_daily", guard("/install_daily", func(c telebot.Context, logger *logrus.Entry) error {
		override, err := parseHourArg(c.Args())
		if err != nil {
			logger.WithField("args", c.Args()).Warn("Invalid command format")
			return c.Send("Invalid format. Use: /install_daily [hour 0-23]")
		}

		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		installed, err := operator.InstallDailyFromSheet(cctx, override)
		if err != nil {
			logger.WithError(err).Error("Failed to install daily trigger")
			return c.Send(fmt.Sprintf("Could not set up the daily trigger: %s", err.Error()))
		}
		logger.WithFields(logrus.Fields{
			"hour":     installed.Hour,
			"timezone": installed.Timezone,
		}).Info("Daily trigger installed")
		return c.Send(fmt.Sprintf("Daily reminder set for %d:00 (%s)", installed.Hour, installed.Timezone))
	}))

	b.Handle("/remove_triggers", guard("/remove_triggers", func(c telebot.Context, logger *logrus.Entry) error {
		markup := &telebot.ReplyMarkup{
			InlineKeyboard: [][]telebot.InlineButton{{
				{Text: "Remove all", Data: callbackRemoveConfirm},
				{Text: "Cancel", Data: callbackRemoveCancel},
			}},
		}
		return c.Send("Remove every trigger, including the daily reminder?", markup)
	}))

	b.Handle("/setup_sheet", guard("/setup_sheet", func(c telebot.Context, logger *logrus.Entry) error {
		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		if err := operator.SetupSheet(cctx); err != nil {
			logger.WithError(err).Error("Failed to set up sheet")
			return c.Send(fmt.Sprintf("Sheet setup failed: %s", err.Error()))
		}
		return c.Send("Setup complete. Sheet initialized and formatted.")
	}))

	b.Handle("/status", guard("/status", func(c telebot.Context, logger *logrus.Entry) error {
		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		st, err := operator.Status(cctx)
		if err != nil {
			logger.WithError(err).Error("Failed to read status")
			return c.Send(fmt.Sprintf("Could not read status: %s", err.Error()))
		}
		return c.Send(formatStatus(st))
	}))

	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		var data string
		if cb := c.Callback(); cb != nil {
			data = strings.TrimSpace(cb.Data)
		}
		id, ok := authorizedSender(c, operator.Authorize)
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "callback",
			"sender_id": id,
			"data":      data,
		})
		if !ok {
			handlerLogger.Warn("Unauthorized callback")
			return c.Respond(&telebot.CallbackResponse{Text: unauthorizedReply})
		}

		switch data {
		case callbackRemoveConfirm:
			cctx, cancel := context.WithTimeout(ctx, commandTimeout)
			defer cancel()
			removed, err := operator.RemoveAllTriggers(cctx)
			if err != nil {
				c.Bot().OnError(fmt.Errorf("error removing triggers: %w", err), c)
				return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong."})
			}
			handlerLogger.WithField("removed", removed).Info("All triggers removed")
			_ = c.Respond(&telebot.CallbackResponse{Text: "Done"})
			return c.Edit(fmt.Sprintf("All triggers removed (%d).", removed))
		case callbackRemoveCancel:
			_ = c.Respond()
			return c.Edit("Nothing removed.")
		default:
			c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", data), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
		}
	})
}

// authorizedSender reports the sender of an update and whether they may run
// operator commands. Updates without a sender, such as channel posts, are refused.
func authorizedSender(c telebot.Context, authorize func(int64) error) (int64, bool) {
	id := senderID(c)
	if id == 0 {
		return 0, false
	}
	return id, authorize(id) == nil
}

var errHourArg = errors.New("expected at most one integer hour")

// parseHourArg reads the optional hour argument of /install_daily. No argument
// means the hour is taken from the sheet.
func parseHourArg(args []string) (*int, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		h, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return nil, errHourArg
		}
		return &h, nil
	default:
		return nil, errHourArg
	}
}

func formatStatus(st *app.Status) string {
	var b strings.Builder
	if st.DailyPresent {
		fmt.Fprintf(&b, "Daily reminder: %d:00\n", st.DailyHour)
	} else {
		b.WriteString("Daily reminder: not installed\n")
	}
	if st.ScanActive {
		fmt.Fprintf(&b, "Scan in progress: next row %d, %d rows accumulated\n", st.NextOffset, st.AccumRows)
	} else {
		b.WriteString("Scan: idle\n")
	}

	fmt.Fprintf(&b, "Triggers (%d):", len(st.Triggers))
	for _, t := range st.Triggers {
		b.WriteString("\n- " + formatTrigger(t))
	}
	return b.String()
}

func formatTrigger(t *trigger.Trigger) string {
	switch t.Kind {
	case trigger.KindDaily:
		return fmt.Sprintf("%s daily at %d:00 %s", t.Handler, t.Hour, t.Timezone)
	case trigger.KindOnce:
		return fmt.Sprintf("%s once at %s", t.Handler, t.FireAt.UTC().Format(time.RFC3339))
	default:
		return fmt.Sprintf("%s (%s)", t.Handler, t.Kind)
	}
}
