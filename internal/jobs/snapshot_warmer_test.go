package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"parcel-ops/internal/features/deliveries/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingService struct {
	mu    sync.Mutex
	calls int
	size  int
}

func (s *countingService) ListDeliveries(ctx context.Context, page, size int) (*domain.DeliveryPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.size = size
	return &domain.DeliveryPage{}, nil
}

func (s *countingService) Summary(ctx context.Context, page, size int) (*domain.FinancialSummary, error) {
	return &domain.FinancialSummary{}, nil
}

func (s *countingService) CompleteDelivery(ctx context.Context, assignmentID, parcelID string, input domain.DeliveryConfirmation) (*domain.ReconciliationOutcome, error) {
	return nil, nil
}

func (s *countingService) FailDelivery(ctx context.Context, assignmentID, parcelID string, input domain.FailureReport) error {
	return nil
}

func (s *countingService) MarkContacted(ctx context.Context, parcelID string) error { return nil }

func (s *countingService) SetHomeDelivery(ctx context.Context, parcelID string, homeDelivery bool) error {
	return nil
}

func (s *countingService) snapshot() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.size
}

func TestSnapshotWarmer_WarmsImmediatelyOnStart(t *testing.T) {
	svc := &countingService{}
	w := NewSnapshotWarmer(svc, "@every 1h", 25)

	require.NoError(t, w.Start())
	defer w.Stop()

	assert.Eventually(t, func() bool {
		calls, size := svc.snapshot()
		return calls >= 1 && size == 25
	}, time.Second, 10*time.Millisecond)
}

func TestSnapshotWarmer_InvalidSchedule(t *testing.T) {
	w := NewSnapshotWarmer(&countingService{}, "not a schedule", 20)

	err := w.Start()
	assert.Error(t, err)
}

func TestSnapshotWarmer_StopWaitsForScheduler(t *testing.T) {
	svc := &countingService{}
	w := NewSnapshotWarmer(svc, "@every 1h", 20)

	require.NoError(t, w.Start())
	w.Stop() // must not panic or hang
}
