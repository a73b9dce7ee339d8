// internal/domain/mail/sender.go
package mail

import "context"

// Message is a single HTML email to one recipient.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender decouples the scan from the mail transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
