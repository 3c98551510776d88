package notifier

import (
	"context"

	"github.com/rs/zerolog"
)

// Email is a single outbound message. To and From are usernames or full
// addresses; CCAddresses are always full addresses.
type Email struct {
	To          string
	From        string
	Subject     string
	Body        string
	CCAddresses []string
}

// Sender delivers email. Implementations must send exactly one message per
// call; the notifier handles per-recipient fan-out.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, email *Email) error

// Send delegates to the wrapped function.
func (f SenderFunc) Send(ctx context.Context, email *Email) error {
	return f(ctx, email)
}

// NewLogSender returns a Sender that only records deliveries on the supplied
// logger. It is the default transport when no SMTP relay is configured.
func NewLogSender(logger zerolog.Logger) Sender {
	return SenderFunc(func(_ context.Context, email *Email) error {
		logger.Info().
			Str("to", email.To).
			Str("from", email.From).
			Strs("cc", email.CCAddresses).
			Str("subject", email.Subject).
			Msg("email suppressed, no transport configured")
		return nil
	})
}
