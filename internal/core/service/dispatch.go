package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
	"github.com/yndnr/tokrelay-go/internal/core/format"
	"github.com/yndnr/tokrelay-go/internal/transport"
)

// Dispatcher defaults.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256

	cleanupTimeout = 5 * time.Second
)

// Pusher is the retrying push client used by the Dispatcher.
// transport.Client implements it.
type Pusher interface {
	SendText(ctx context.Context, destination int64, text string) transport.Result
	SendAttachment(ctx context.Context, destination int64, att domain.Attachment, caption string) transport.Result
}

// DispatcherConfig holds configuration for Dispatcher.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatchLogger sets the logger for unexpected worker failures.
func WithDispatchLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithObserver sets the DeliveryObserver.
func WithObserver(o DeliveryObserver) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

// Dispatcher delivers queued reports with a fixed pool of workers.
// Each report is formatted, sent as text, then each attachment is sent.
// The report is deleted from the repository when its pipeline ends.
type Dispatcher struct {
	pusher    Pusher
	formatter *format.Formatter
	reports   ReportRepository
	observer  DeliveryObserver
	logger    *slog.Logger

	queue   chan string
	workers int

	mu      sync.RWMutex
	started bool
	closed  bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a Dispatcher. Call Start to launch the workers.
func NewDispatcher(pusher Pusher, formatter *format.Formatter, reports ReportRepository,
	cfg DispatcherConfig, opts ...DispatcherOption) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if formatter == nil {
		formatter = format.New(format.Options{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		pusher:    pusher,
		formatter: formatter,
		reports:   reports,
		observer:  NopObserver{},
		logger:    slog.Default(),
		queue:     make(chan string, cfg.QueueSize),
		workers:   cfg.Workers,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the worker pool. Calling Start twice has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Enqueue schedules reportID for delivery. It never blocks.
func (d *Dispatcher) Enqueue(reportID string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return domain.ErrQueueFull.WithDetails("dispatcher is shutting down")
	}
	select {
	case d.queue <- reportID:
		return nil
	default:
		return domain.ErrQueueFull.WithDetails(fmt.Sprintf("%d reports pending", cap(d.queue)))
	}
}

// Ready returns nil while the workers run and intake is open.
func (d *Dispatcher) Ready(context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch {
	case d.closed:
		return errors.New("dispatcher closed")
	case !d.started:
		return errors.New("dispatcher not started")
	}
	return nil
}

// QueueDepth returns the number of reports waiting for a worker.
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}

// Close stops intake and waits for queued reports to be delivered. When ctx
// expires first, in-flight sends are cancelled and ctx.Err() is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		// Nothing will drain the queue; drop what is left.
		for id := range d.queue {
			d.cleanup(id)
		}
		d.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for id := range d.queue {
		d.process(id)
	}
}

// process runs the delivery pipeline for one report. It never panics.
func (d *Dispatcher) process(reportID string) {
	start := time.Now()
	out := Outcome{ReportID: reportID, State: domain.StateFailed}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("delivery task panicked", "report_id", reportID, "panic", r)
			out.State = domain.StateFailed
			out.Err = domain.ErrInternalServer.WithDetails(fmt.Sprint(r))
		}
		d.cleanup(reportID)
		out.Duration = time.Since(start)
		d.observer.StateChanged(reportID, out.State)
		d.observer.Finished(out)
	}()

	report, err := d.reports.Get(d.ctx, reportID)
	if err != nil {
		out.Err = err
		return
	}
	out.TokenID = report.TokenID
	out.OwnerID = report.OwnerID
	out.Attachments = len(report.Attachments)

	text := d.formatter.Format(report)
	res := d.pusher.SendText(d.ctx, report.OwnerID, text)
	out.TextAttempts = res.Attempts
	if !res.OK {
		out.Err = res.Err
		return
	}

	for _, att := range report.Attachments {
		res := d.pusher.SendAttachment(d.ctx, report.OwnerID, att, att.Name)
		if !res.OK {
			out.FailedAttachments++
			out.Err = res.Err
		}
	}

	if out.FailedAttachments == 0 {
		out.State = domain.StateDelivered
	}
}

func (d *Dispatcher) cleanup(reportID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := d.reports.Delete(ctx, reportID); err != nil {
		d.logger.Warn("failed to delete delivered report", "report_id", reportID, "error", err)
	}
}
