package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// LogMailer writes messages to the log instead of sending them. It is the
// transport for local runs without a broker.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg ports.MailMessage) error {
	m.log.Info().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail")
	return nil
}
