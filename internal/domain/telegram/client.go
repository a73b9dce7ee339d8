package telegram

// Notifier delivers short plain-text notices to the operator's chat.
// This keeps the scheduler wiring independent of the bot library.
type Notifier interface {
	Notify(text string) error
}
