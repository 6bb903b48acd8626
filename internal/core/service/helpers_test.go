package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
)

// mockTokenRepo is an in-memory TokenRepository for testing.
type mockTokenRepo struct {
	mu     sync.Mutex
	tokens    map[string]*domain.Token
	err       error
	updateErr error
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*domain.Token)}
}

func (m *mockTokenRepo) Create(ctx context.Context, tok *domain.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, exists := m.tokens[tok.ID]; exists {
		return domain.ErrTokenConflict
	}
	m.tokens[tok.ID] = tok.Clone()
	return nil
}

func (m *mockTokenRepo) Get(ctx context.Context, id string) (*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	tok, ok := m.tokens[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return tok.Clone(), nil
}

func (m *mockTokenRepo) Update(ctx context.Context, id string, fn func(*domain.Token) error) (*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	tok, ok := m.tokens[id]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	if err := fn(tok); err != nil {
		return nil, err
	}
	return tok.Clone(), nil
}

func (m *mockTokenRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Token
	for _, tok := range m.tokens {
		if tok.OwnerID == ownerID {
			out = append(out, tok.Clone())
		}
	}
	return out, nil
}

// mockReportRepo is an in-memory ReportRepository for testing.
type mockReportRepo struct {
	mu      sync.Mutex
	reports map[string]*domain.Report
	deleted []string
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]*domain.Report)}
}

func (m *mockReportRepo) Save(ctx context.Context, r *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = r
	return nil
}

func (m *mockReportRepo) Get(ctx context.Context, id string) (*domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return r, nil
}

func (m *mockReportRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockReportRepo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

// recordingObserver records every event.
type recordingObserver struct {
	mu       sync.Mutex
	states   map[string][]domain.DeliveryState
	rejected []string
	outcomes []Outcome
	done     chan Outcome
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		states: make(map[string][]domain.DeliveryState),
		done:   make(chan Outcome, 64),
	}
}

func (o *recordingObserver) StateChanged(id string, s domain.DeliveryState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states[id] = append(o.states[id], s)
}

func (o *recordingObserver) Rejected(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected = append(o.rejected, reason)
}

func (o *recordingObserver) Attempted(string, int, error) {}

func (o *recordingObserver) Finished(out Outcome) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, out)
	o.mu.Unlock()
	o.done <- out
}

func (o *recordingObserver) statesOf(id string) []domain.DeliveryState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.DeliveryState(nil), o.states[id]...)
}

func (o *recordingObserver) rejections() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.rejected...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubQueue is an Enqueuer that records ids or fails.
type stubQueue struct {
	mu   sync.Mutex
	ids  []string
	full bool
}

func (q *stubQueue) Enqueue(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return domain.ErrQueueFull
	}
	q.ids = append(q.ids, id)
	return nil
}
