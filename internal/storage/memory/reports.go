package memory

import (
	"context"

	"github.com/yndnr/tokrelay-go/internal/core/domain"
	"github.com/yndnr/tokrelay-go/pkg/cmap"
)

// ReportStore is an in-memory service.ReportRepository.
type ReportStore struct {
	reports *cmap.Map[string, *domain.Report]
}

// NewReportStore creates an empty store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: cmap.New[string, *domain.Report]()}
}

// Save stores r. Reports are immutable, so the pointer is kept as is.
func (s *ReportStore) Save(_ context.Context, r *domain.Report) error {
	s.reports.Set(r.ID, r)
	return nil
}

// Get returns the report.
func (s *ReportStore) Get(_ context.Context, id string) (*domain.Report, error) {
	r, ok := s.reports.Get(id)
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return r, nil
}

// Delete removes the report.
func (s *ReportStore) Delete(_ context.Context, id string) error {
	s.reports.Delete(id)
	return nil
}

// Len returns the number of pending reports.
func (s *ReportStore) Len() int {
	return s.reports.Len()
}
