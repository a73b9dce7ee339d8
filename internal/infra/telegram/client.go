// internal/infra/telegram/client.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// AdminNotifier implements the Notifier interface by messaging the admin chat
// through gopkg.in/telebot.v3.
type AdminNotifier struct {
	bot     *telebot.Bot
	adminID int64
}

func NewAdminNotifier(b *telebot.Bot, adminID int64) *AdminNotifier {
	return &AdminNotifier{bot: b, adminID: adminID}
}

// Notify sends text to the admin as a direct message.
func (n *AdminNotifier) Notify(text string) error {
	recipient := &telebot.User{ID: n.adminID}
	_, err := n.bot.Send(recipient, text, &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}
