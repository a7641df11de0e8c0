package ports

import "context"

// MailMessage is a single outbound email.
type MailMessage struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer hands a message to a mail transport. Callers treat delivery as
// fire-and-forget: an error is logged, never returned to the API client.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
