package service

import (
	"context"
	"fmt"

	"parcel-ops/internal/core/logger"
	"parcel-ops/internal/features/deliveries/domain"
	"parcel-ops/internal/features/deliveries/ports"

	"go.uber.org/zap"
)

// defaultPageSize is used when a caller passes a non-positive size.
const defaultPageSize = 20

// DeliveryServiceImpl implements ports.DeliveryService. It orchestrates the
// fetch → normalize → flatten pipeline, the completion workflow, and snapshot
// caching. Records are derived views: nothing is mutated locally, and any
// acknowledged write invalidates the snapshots so the next read re-fetches.
type DeliveryServiceImpl struct {
	provider  ports.AssignmentProvider
	submitter ports.CompletionSubmitter
	snapshots ports.SnapshotCache
}

// NewDeliveryService creates a new DeliveryServiceImpl. The snapshot cache
// may be nil, in which case every read goes to the hub.
func NewDeliveryService(provider ports.AssignmentProvider, submitter ports.CompletionSubmitter, snapshots ports.SnapshotCache) *DeliveryServiceImpl {
	return &DeliveryServiceImpl{
		provider:  provider,
		submitter: submitter,
		snapshots: snapshots,
	}
}

// ListDeliveries returns one flattened page of delivery records, serving
// from the snapshot cache when possible. Cache failures degrade to a hub
// fetch, never to an error.
func (s *DeliveryServiceImpl) ListDeliveries(ctx context.Context, page, size int) (*domain.DeliveryPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}

	if s.snapshots != nil {
		cached, err := s.snapshots.GetPage(ctx, page, size)
		if err != nil {
			logger.Get().Warn("Snapshot read failed, falling through to hub", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	dp, err := s.provider.FetchDeliveries(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deliveries: %w", err)
	}

	if s.snapshots != nil {
		if err := s.snapshots.SetPage(ctx, page, size, dp); err != nil {
			logger.Get().Warn("Snapshot write failed", zap.Error(err))
		}
	}

	return dp, nil
}

// Summary aggregates the collectible amounts over one page of records.
func (s *DeliveryServiceImpl) Summary(ctx context.Context, page, size int) (*domain.FinancialSummary, error) {
	dp, err := s.ListDeliveries(ctx, page, size)
	if err != nil {
		return nil, err
	}

	summary := domain.Summarize(dp.Records)
	return &summary, nil
}

// CompleteDelivery closes one parcel as delivered. Validation failures are
// returned before any network call; a hub rejection leaves local state
// untouched. A collected amount differing from the expected amount is
// reported on the outcome, never refused.
func (s *DeliveryServiceImpl) CompleteDelivery(ctx context.Context, assignmentID, parcelID string, input domain.DeliveryConfirmation) (*domain.ReconciliationOutcome, error) {
	record, err := s.provider.FindDelivery(ctx, assignmentID, parcelID)
	if err != nil {
		return nil, fmt.Errorf("failed to locate delivery record: %w", err)
	}

	workflow, err := domain.NewCompletionWorkflow(*record)
	if err != nil {
		return nil, err
	}
	if err := workflow.BeginDelivery(); err != nil {
		return nil, err
	}

	req, outcome, err := workflow.ConfirmDelivery(input)
	if err != nil {
		return nil, err
	}

	if err := s.submitter.SubmitCompletion(ctx, record.AssignmentID, *req); err != nil {
		return nil, fmt.Errorf("failed to submit completion: %w", err)
	}

	s.invalidateSnapshots(ctx)

	logger.Get().Info("Delivery completed",
		zap.String("assignment_id", record.AssignmentID),
		zap.String("parcel_id", record.ParcelID),
		zap.Float64("expected", outcome.ExpectedAmount),
		zap.Float64("collected", outcome.CollectedAmount),
		zap.Float64("variance", outcome.Variance),
	)

	return outcome, nil
}

// FailDelivery closes one parcel as failed with a reason.
func (s *DeliveryServiceImpl) FailDelivery(ctx context.Context, assignmentID, parcelID string, input domain.FailureReport) error {
	record, err := s.provider.FindDelivery(ctx, assignmentID, parcelID)
	if err != nil {
		return fmt.Errorf("failed to locate delivery record: %w", err)
	}

	workflow, err := domain.NewCompletionWorkflow(*record)
	if err != nil {
		return err
	}
	if err := workflow.BeginFailure(); err != nil {
		return err
	}

	req, err := workflow.ConfirmFailure(input)
	if err != nil {
		return err
	}

	if err := s.submitter.SubmitCompletion(ctx, record.AssignmentID, *req); err != nil {
		return fmt.Errorf("failed to submit completion: %w", err)
	}

	s.invalidateSnapshots(ctx)

	logger.Get().Info("Delivery marked failed",
		zap.String("assignment_id", record.AssignmentID),
		zap.String("parcel_id", record.ParcelID),
		zap.String("reason", req.Reason),
	)

	return nil
}

// MarkContacted records that the call center reached the recipient.
func (s *DeliveryServiceImpl) MarkContacted(ctx context.Context, parcelID string) error {
	fields := map[string]interface{}{
		"status": string(domain.StatusContacted),
	}
	if err := s.submitter.UpdateParcelFields(ctx, parcelID, fields); err != nil {
		return fmt.Errorf("failed to mark contacted: %w", err)
	}

	s.invalidateSnapshots(ctx)
	return nil
}

// SetHomeDelivery records the recipient's delivery preference.
func (s *DeliveryServiceImpl) SetHomeDelivery(ctx context.Context, parcelID string, homeDelivery bool) error {
	fields := map[string]interface{}{
		"homeDelivery": homeDelivery,
	}
	if err := s.submitter.UpdateParcelFields(ctx, parcelID, fields); err != nil {
		return fmt.Errorf("failed to update delivery preference: %w", err)
	}

	s.invalidateSnapshots(ctx)
	return nil
}

// invalidateSnapshots discards cached pages after an acknowledged write.
// Failures are logged only: the cache will age out via TTL regardless.
func (s *DeliveryServiceImpl) invalidateSnapshots(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Invalidate(ctx); err != nil {
		logger.Get().Warn("Snapshot invalidation failed", zap.Error(err))
	}
}
