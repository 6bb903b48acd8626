package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// Rejection reasons passed to DeliveryObserver.Rejected.
const (
	RejectInvalidToken = "invalid_token"
	RejectCooldown     = "cooldown"
	RejectTooLarge     = "too_large"
	RejectMalformed    = "malformed"
	RejectQueueFull    = "queue_full"
	RejectStorage      = "storage"
)

// Outcome summarizes the delivery of one report.
type Outcome struct {
	ReportID          string
	TokenID           string
	OwnerID           int64
	State             domain.DeliveryState
	TextAttempts      int
	Attachments       int
	FailedAttachments int
	Duration          time.Duration
	Err               error
}

// DeliveryObserver receives pipeline events. Implementations must be safe
// for concurrent use and must not block.
type DeliveryObserver interface {
	// StateChanged is called for every DeliveryState a report enters.
	StateChanged(reportID string, state domain.DeliveryState)

	// Rejected is called when a submission is refused.
	Rejected(reason string)

	// Attempted is called for every push attempt; err is nil on success.
	Attempted(kind string, attempt int, err error)

	// Finished is called once per dequeued report.
	Finished(o Outcome)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) StateChanged(string, domain.DeliveryState) {}
func (NopObserver) Rejected(string)                           {}
func (NopObserver) Attempted(string, int, error)              {}
func (NopObserver) Finished(Outcome)                          {}

// MultiObserver fans events out to several observers.
type MultiObserver []DeliveryObserver

func (m MultiObserver) StateChanged(reportID string, state domain.DeliveryState) {
	for _, o := range m {
		o.StateChanged(reportID, state)
	}
}

func (m MultiObserver) Rejected(reason string) {
	for _, o := range m {
		o.Rejected(reason)
	}
}

func (m MultiObserver) Attempted(kind string, attempt int, err error) {
	for _, o := range m {
		o.Attempted(kind, attempt, err)
	}
}

func (m MultiObserver) Finished(out Outcome) {
	for _, o := range m {
		o.Finished(out)
	}
}

// LogObserver writes pipeline events to a structured logger. Only ids,
// counts and sizes are logged, never report contents.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses slog.Default.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (l *LogObserver) StateChanged(reportID string, state domain.DeliveryState) {
	l.logger.Debug("report state", "report_id", reportID, "state", string(state))
}

func (l *LogObserver) Rejected(reason string) {
	l.logger.Info("report rejected", "reason", reason)
}

func (l *LogObserver) Attempted(kind string, attempt int, err error) {
	if err != nil {
		l.logger.Debug("push attempt failed", "kind", kind, "attempt", attempt, "error", err)
	}
}

func (l *LogObserver) Finished(o Outcome) {
	level := slog.LevelInfo
	if o.State == domain.StateFailed {
		level = slog.LevelWarn
	}
	attrs := []any{
		"report_id", o.ReportID,
		"token", domain.MaskToken(o.TokenID),
		"state", string(o.State),
		"text_attempts", o.TextAttempts,
		"attachments", o.Attachments,
		"failed_attachments", o.FailedAttachments,
		"duration", o.Duration,
	}
	if o.Err != nil {
		attrs = append(attrs, "error", o.Err)
	}
	l.logger.Log(context.Background(), level, "report delivery finished", attrs...)
}
