package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// Sender performs a single delivery attempt against the push endpoint.
// Implementations return errors wrapped with Permanent when a retry cannot
// help (for example an unknown destination).
type Sender interface {
	SendText(ctx context.Context, destination int64, text string) error
	SendAttachment(ctx context.Context, destination int64, att domain.Attachment, caption string) error
}

// Attempt kinds reported to AttemptHook.
const (
	KindText       = "text"
	KindAttachment = "attachment"
)

// AttemptHook observes every individual attempt; err is nil on success.
type AttemptHook func(kind string, attempt int, err error)

// Config holds the retry and timeout settings of a Client.
type Config struct {
	// MaxRetries is the total number of attempts per message.
	MaxRetries int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
	// Timeout bounds each attempt.
	Timeout time.Duration
}

// Result is the outcome of a send operation.
type Result struct {
	OK       bool
	Attempts int
	Elapsed  time.Duration
	// Err is nil when OK. Otherwise it matches domain.ErrPermanentDelivery
	// and wraps the last attempt's error.
	Err error
}

// Client applies a retry policy and per-attempt timeout to a Sender.
type Client struct {
	sender  Sender
	policy  Policy
	timeout time.Duration
	logger  *slog.Logger
	hook    AttemptHook
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithAttemptHook registers an observer for individual attempts.
func WithAttemptHook(h AttemptHook) Option {
	return func(c *Client) { c.hook = h }
}

// WithPolicy overrides the fixed-delay policy derived from Config.
func WithPolicy(p Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient creates a Client around sender.
func NewClient(sender Sender, cfg Config, opts ...Option) *Client {
	c := &Client{
		sender:  sender,
		policy:  NewFixedPolicy(cfg.MaxRetries, cfg.RetryDelay),
		timeout: cfg.Timeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendText delivers text to destination.
func (c *Client) SendText(ctx context.Context, destination int64, text string) Result {
	return c.run(ctx, KindText, func(ctx context.Context) error {
		return c.sender.SendText(ctx, destination, text)
	})
}

// SendAttachment delivers att to destination with caption.
func (c *Client) SendAttachment(ctx context.Context, destination int64, att domain.Attachment, caption string) Result {
	return c.run(ctx, KindAttachment, func(ctx context.Context) error {
		return c.sender.SendAttachment(ctx, destination, att, caption)
	})
}

func (c *Client) run(ctx context.Context, kind string, send func(context.Context) error) Result {
	start := time.Now()

	attempts, err := Do(ctx, c.policy, func(ctx context.Context, attempt int) error {
		err := c.attempt(ctx, send)
		if c.hook != nil {
			c.hook(kind, attempt, err)
		}
		if err != nil {
			c.logger.Debug("delivery attempt failed",
				"kind", kind,
				"attempt", attempt,
				"permanent", IsPermanent(err),
				"error", err)
		}
		return err
	})

	res := Result{OK: err == nil, Attempts: attempts, Elapsed: time.Since(start)}
	if err != nil {
		details := "retries exhausted"
		if IsPermanent(err) {
			details = "rejected by endpoint"
		} else if ctx.Err() != nil {
			details = "cancelled"
		}
		res.Err = domain.ErrPermanentDelivery.WithDetails(details).WithCause(err)
	}
	return res
}

// attempt runs one send under the per-attempt timeout and converts panics
// from the sender into errors.
func (c *Client) attempt(ctx context.Context, send func(context.Context) error) (err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panic: %v", r)
		}
	}()

	if err := send(ctx); err != nil {
		if IsPermanent(err) {
			return err
		}
		return domain.ErrTransientDelivery.WithCause(err)
	}
	return nil
}
