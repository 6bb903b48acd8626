package transport

import (
	"context"
	"log/slog"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// LogSender writes deliveries to a logger instead of a push endpoint.
// It backs dry-run deployments without a bot token. Payload content is not
// logged, only sizes.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendText logs the message length.
func (s *LogSender) SendText(ctx context.Context, destination int64, text string) error {
	s.logger.InfoContext(ctx, "dry-run text delivery",
		"destination", destination,
		"length", len(text))
	return nil
}

// SendAttachment logs the attachment metadata.
func (s *LogSender) SendAttachment(ctx context.Context, destination int64, att domain.Attachment, caption string) error {
	s.logger.InfoContext(ctx, "dry-run attachment delivery",
		"destination", destination,
		"name", att.Name,
		"content_type", att.ContentType,
		"size", att.Size())
	return nil
}
