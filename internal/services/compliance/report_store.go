package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/xchangepos/backend/internal/kvstore"
	"github.com/xchangepos/backend/internal/models"
	"go.uber.org/zap"
)

// ReportsStorageKey is the key the whole report collection is persisted under
const ReportsStorageKey = "crypto_fintrac_reports"

// ReportStore persists FINTRAC reports as a single most-recent-first
// collection in a key-value store. Every write is a read-modify-write
// through kvstore.Store.Update so concurrent callers, in this process or
// another replica, never overwrite each other's reports.
type ReportStore struct {
	kv     kvstore.Store
	logger *zap.Logger
	mu     sync.Mutex
}

// NewReportStore creates a report store backed by kv
func NewReportStore(kv kvstore.Store, logger *zap.Logger) *ReportStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportStore{
		kv:     kv,
		logger: logger,
	}
}

// Store prepends the report to the persisted collection
func (s *ReportStore) Store(ctx context.Context, report *models.Report) error {
	return s.update(ctx, func(reports []models.Report) ([]models.Report, error) {
		return append([]models.Report{*report}, reports...), nil
	})
}

// GetAll returns every stored report, most recent first. An unreadable or
// corrupt collection is logged and reported as empty.
func (s *ReportStore) GetAll(ctx context.Context) []models.Report {
	reports, err := s.load(ctx)
	if err != nil {
		s.logger.Error("Failed to load FINTRAC reports", zap.Error(err))
		return []models.Report{}
	}
	return reports
}

// GetPending returns the reports still in draft status
func (s *ReportStore) GetPending(ctx context.Context) []models.Report {
	pending := make([]models.Report, 0)
	for _, report := range s.GetAll(ctx) {
		if report.IsPending() {
			pending = append(pending, report)
		}
	}
	return pending
}

// Get returns the report with the given id
func (s *ReportStore) Get(ctx context.Context, id string) (*models.Report, error) {
	reports, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reports {
		if reports[i].ID == id {
			return &reports[i], nil
		}
	}
	return nil, fmt.Errorf("report %s: %w", id, ErrReportNotFound)
}

// Update replaces the stored report that has the same id, keeping its position
func (s *ReportStore) Update(ctx context.Context, report *models.Report) error {
	return s.modify(ctx, report.ID, func(stored *models.Report) error {
		*stored = *report
		return nil
	})
}

// modify applies fn to the stored report with the given id and persists
// the result atomically. Nothing is written when fn fails.
func (s *ReportStore) modify(ctx context.Context, id string, fn func(*models.Report) error) error {
	return s.update(ctx, func(reports []models.Report) ([]models.Report, error) {
		for i := range reports {
			if reports[i].ID != id {
				continue
			}
			if err := fn(&reports[i]); err != nil {
				return nil, err
			}
			return reports, nil
		}
		return nil, fmt.Errorf("report %s: %w", id, ErrReportNotFound)
	})
}

// update runs a read-modify-write of the whole collection. mu serializes
// callers in this process and the backend's Update serializes processes.
func (s *ReportStore) update(ctx context.Context, fn func([]models.Report) ([]models.Report, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.Update(ctx, ReportsStorageKey, func(current []byte) ([]byte, error) {
		reports, err := decodeReports(current)
		if err != nil {
			return nil, err
		}
		reports, err = fn(reports)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(reports)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize reports: %w", err)
		}
		return raw, nil
	})
}

func (s *ReportStore) load(ctx context.Context) ([]models.Report, error) {
	raw, err := s.kv.Get(ctx, ReportsStorageKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []models.Report{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reports: %w", err)
	}
	return decodeReports(raw)
}

func decodeReports(raw []byte) ([]models.Report, error) {
	if len(raw) == 0 {
		return []models.Report{}, nil
	}

	var reports []models.Report
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptReportStore, err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}
