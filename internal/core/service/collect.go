package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// ReportRepository holds reports between acceptance and delivery.
type ReportRepository interface {
	// Save stores a report.
	Save(ctx context.Context, r *domain.Report) error

	// Get returns the report or domain.ErrReportNotFound.
	Get(ctx context.Context, id string) (*domain.Report, error)

	// Delete removes the report. Deleting a missing report is not an error.
	Delete(ctx context.Context, id string) error
}

// Enqueuer schedules a stored report for delivery without waiting for it.
// It returns domain.ErrQueueFull when the report cannot be scheduled.
type Enqueuer interface {
	Enqueue(reportID string) error
}

// CollectConfig holds configuration for CollectService.
type CollectConfig struct {
	// Cooldown is the minimum interval between accepted submissions for
	// the same token and client. Zero disables the check.
	Cooldown time.Duration

	// MaxPayloadBytes bounds the combined attachment size and every single
	// attachment. Zero disables the check.
	MaxPayloadBytes int64
}

// CollectRequest is a parsed submission.
type CollectRequest struct {
	TokenID string
	// ClientIP is used only as part of the in-memory cooldown key.
	ClientIP    string
	Fields      map[string]any
	Attachments []domain.Attachment
}

// CollectOption configures a CollectService.
type CollectOption func(*CollectService)

// WithCollectLogger sets the logger.
func WithCollectLogger(l *slog.Logger) CollectOption {
	return func(s *CollectService) {
		s.logger = l
	}
}

// CollectService accepts reports submitted against a token and hands them
// to the delivery queue.
type CollectService struct {
	tokens   *TokenService
	reports  ReportRepository
	queue    Enqueuer
	limiter  *CooldownLimiter
	observer DeliveryObserver
	logger   *slog.Logger
	cfg      CollectConfig
}

// NewCollectService creates a CollectService. limiter and observer may be nil.
func NewCollectService(tokens *TokenService, reports ReportRepository, queue Enqueuer,
	limiter *CooldownLimiter, observer DeliveryObserver, cfg CollectConfig, opts ...CollectOption) *CollectService {
	if observer == nil {
		observer = NopObserver{}
	}
	s := &CollectService{
		tokens:   tokens,
		reports:  reports,
		queue:    queue,
		limiter:  limiter,
		observer: observer,
		logger:   slog.Default(),
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize returns the active token for id. Callers run it before reading
// the request body so an unknown token is refused without buffering the
// payload.
func (s *CollectService) Authorize(ctx context.Context, tokenID string) (*domain.Token, error) {
	tok, err := s.tokens.Lookup(ctx, tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			s.observer.Rejected(RejectInvalidToken)
		} else {
			s.observer.Rejected(RejectStorage)
		}
		return nil, err
	}
	return tok, nil
}

// Submit validates the token, stores the report, counts the usage and
// enqueues delivery. It returns as soon as the report is queued.
func (s *CollectService) Submit(ctx context.Context, req *CollectRequest) (*domain.Report, error) {
	// 1. Token must exist and be active
	tok, err := s.Authorize(ctx, req.TokenID)
	if err != nil {
		return nil, err
	}

	// 2. Size bounds
	if err := s.checkSize(req.Attachments); err != nil {
		s.observer.Rejected(RejectTooLarge)
		return nil, err
	}

	// 3. Cooldown per token and client
	if s.limiter != nil && s.cfg.Cooldown > 0 {
		if ok, wait := s.limiter.Allowed(CollectCooldownKey(tok.ID, req.ClientIP), s.cfg.Cooldown); !ok {
			s.observer.Rejected(RejectCooldown)
			return nil, &CooldownError{Wait: wait}
		}
	}

	report, err := domain.NewReport(tok, req.Fields, req.Attachments)
	if err != nil {
		return nil, err
	}
	s.observer.StateChanged(report.ID, domain.StateReceived)
	s.observer.StateChanged(report.ID, domain.StateTokenValidated)

	// 4. Store
	if err := s.reports.Save(ctx, report); err != nil {
		s.observer.Rejected(RejectStorage)
		return nil, storageError(err)
	}
	s.observer.StateChanged(report.ID, domain.StateStored)

	// 5. Usage accounting never blocks acceptance
	if err := s.tokens.Increment(ctx, tok.ID); err != nil {
		s.logger.WarnContext(ctx, "usage count not updated",
			"token", domain.MaskToken(tok.ID),
			"report_id", report.ID,
			"error", err)
	}

	// 6. Enqueue; a full queue drops the stored report
	if err := s.queue.Enqueue(report.ID); err != nil {
		_ = s.reports.Delete(context.WithoutCancel(ctx), report.ID)
		s.observer.Rejected(RejectQueueFull)
		return nil, err
	}
	s.observer.StateChanged(report.ID, domain.StateQueued)

	return report, nil
}

// RecordRejected reports a submission refused before it reached Submit,
// for example an unparsable body.
func (s *CollectService) RecordRejected(reason string) {
	s.observer.Rejected(reason)
}

func (s *CollectService) checkSize(atts []domain.Attachment) error {
	if s.cfg.MaxPayloadBytes <= 0 {
		return nil
	}
	var total int64
	for _, a := range atts {
		size := int64(a.Size())
		if size > s.cfg.MaxPayloadBytes {
			return domain.ErrPayloadTooLarge.WithDetails(
				fmt.Sprintf("attachment %q exceeds %d bytes", a.Name, s.cfg.MaxPayloadBytes))
		}
		total += size
	}
	if total > s.cfg.MaxPayloadBytes {
		return domain.ErrPayloadTooLarge.WithDetails(
			fmt.Sprintf("attachments total %d bytes, limit %d", total, s.cfg.MaxPayloadBytes))
	}
	return nil
}
