package service

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer is the default ports.Mailer: it writes the reset token to the
// log instead of sending mail. A real SMTP gateway replaces it in
// deployments that have one.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a log-backed mailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendPasswordReset logs the reset token for the operator to relay.
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.log.Info().
		Str("email", email).
		Str("token", token).
		Msg("password reset issued")
	return nil
}
