// Package notify dispatches workflow notifications. The log notifier is the
// default sink; an SMTP or queue-backed sink can replace it behind the same
// interface without touching the workflow.
package notify

import (
	"context"
	"log/slog"

	"signet/internal/envelope/models"
)

// LogNotifier writes each notification to the structured log instead of
// delivering it. Useful in development and as the fallback sink.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RecipientSent(ctx context.Context, envelope *models.Envelope, recipient *models.Recipient) error {
	n.logger.InfoContext(ctx, "notification: signature requested",
		"envelope_id", envelope.ID.String(),
		"recipient_id", recipient.ID.String(),
		"recipient_email", recipient.Email,
		"role", string(recipient.Role),
	)
	return nil
}

func (n *LogNotifier) EnvelopeCompleted(ctx context.Context, envelope *models.Envelope, recipients []*models.Recipient) error {
	n.logger.InfoContext(ctx, "notification: envelope completed",
		"envelope_id", envelope.ID.String(),
		"recipients", len(recipients),
	)
	return nil
}

func (n *LogNotifier) EnvelopeDeclined(ctx context.Context, envelope *models.Envelope, recipients []*models.Recipient) error {
	n.logger.InfoContext(ctx, "notification: envelope declined",
		"envelope_id", envelope.ID.String(),
		"recipients", len(recipients),
	)
	return nil
}

func (n *LogNotifier) EnvelopeVoided(ctx context.Context, envelope *models.Envelope, recipients []*models.Recipient) error {
	n.logger.InfoContext(ctx, "notification: envelope voided",
		"envelope_id", envelope.ID.String(),
		"reason", envelope.VoidReason,
		"recipients", len(recipients),
	)
	return nil
}
