package compliance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xchangepos/backend/internal/kvstore"
	"github.com/xchangepos/backend/internal/models"
	"go.uber.org/zap"
)

type failingKV struct{}

func (failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (failingKV) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("connection refused")
}

func (failingKV) Update(ctx context.Context, key string, fn kvstore.UpdateFunc) error {
	return errors.New("connection refused")
}

func generateTestReport(t *testing.T, id string) *models.Report {
	t.Helper()
	report, err := newTestGenerator().GenerateVCTR(testTransactionData(testPayment(id, models.CryptoBTC, 2500)))
	require.NoError(t, err)
	return report
}

func TestReportStoreEmpty(t *testing.T) {
	store := NewReportStore(kvstore.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	assert.Empty(t, store.GetAll(ctx))
	assert.NotNil(t, store.GetAll(ctx))
	assert.Empty(t, store.GetPending(ctx))
}

func TestReportStoreMostRecentFirst(t *testing.T) {
	store := NewReportStore(kvstore.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	first := generateTestReport(t, "tx-1")
	second := generateTestReport(t, "tx-2")
	require.NoError(t, store.Store(ctx, first))
	require.NoError(t, store.Store(ctx, second))

	all := store.GetAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	got, err := store.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ReportReference, got.ReportReference)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestReportStorePendingAndUpdate(t *testing.T) {
	store := NewReportStore(kvstore.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	report := generateTestReport(t, "tx-1")
	require.NoError(t, store.Store(ctx, report))
	require.NoError(t, store.Store(ctx, generateTestReport(t, "tx-2")))
	assert.Len(t, store.GetPending(ctx), 2)

	report.SubmissionStatus = models.SubmissionStatusSubmitted
	require.NoError(t, store.Update(ctx, report))

	pending := store.GetPending(ctx)
	require.Len(t, pending, 1)
	assert.NotEqual(t, report.ID, pending[0].ID)

	all := store.GetAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, report.ID, all[1].ID, "update keeps the report's position")

	missing := generateTestReport(t, "tx-3")
	assert.ErrorIs(t, store.Update(ctx, missing), ErrReportNotFound)
}

func TestReportStoreCorruptCollection(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, ReportsStorageKey, []byte("{not json")))

	store := NewReportStore(kv, zap.NewNop())
	assert.Empty(t, store.GetAll(ctx))
	assert.Empty(t, store.GetPending(ctx))

	err := store.Store(ctx, generateTestReport(t, "tx-1"))
	assert.ErrorIs(t, err, ErrCorruptReportStore)

	raw, err := kv.Get(ctx, ReportsStorageKey)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw), "corrupt collection is left for inspection")
}

func TestReportStoreUnavailableBackend(t *testing.T) {
	store := NewReportStore(failingKV{}, zap.NewNop())
	ctx := context.Background()

	assert.Empty(t, store.GetAll(ctx))
	assert.Error(t, store.Store(ctx, generateTestReport(t, "tx-1")))
}

func TestReportStoreConcurrentWrites(t *testing.T) {
	store := NewReportStore(kvstore.NewMemoryStore(), zap.NewNop())
	ctx := context.Background()

	const writers = 25
	reports := make([]*models.Report, writers)
	for i := range reports {
		reports[i] = generateTestReport(t, fmt.Sprintf("tx-%d", i))
	}

	var wg sync.WaitGroup
	for _, report := range reports {
		wg.Add(1)
		go func(r *models.Report) {
			defer wg.Done()
			assert.NoError(t, store.Store(ctx, r))
		}(report)
	}
	wg.Wait()

	all := store.GetAll(ctx)
	require.Len(t, all, writers)

	ids := make(map[string]struct{}, writers)
	for _, r := range all {
		ids[r.ID] = struct{}{}
	}
	for _, r := range reports {
		assert.Contains(t, ids, r.ID)
	}
}
