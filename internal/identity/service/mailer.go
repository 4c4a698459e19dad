package service

import (
	"context"
	"log/slog"
)

// Mailer delivers tokens to users. Actual delivery is an external
// collaborator; the services only ever hand over a recipient and the raw
// token.
type Mailer interface {
	SendVerification(ctx context.Context, email, username, token string) error
	SendPasswordReset(ctx context.Context, email, username, token string) error
}

// LogMailer writes outbound mail to the log instead of sending it. Used in
// dev and tests; deployments inject a real delivery client.
type LogMailer struct {
	Logger  *slog.Logger
	BaseURL string
}

func (m *LogMailer) SendVerification(ctx context.Context, email, username, token string) error {
	m.Logger.Info("verification email",
		"to", email,
		"username", username,
		"link", m.BaseURL+"/auth/verify-email?token="+token,
	)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, email, username, token string) error {
	m.Logger.Info("password reset email",
		"to", email,
		"username", username,
		"link", m.BaseURL+"/reset-password?token="+token,
	)
	return nil
}
