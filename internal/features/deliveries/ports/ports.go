package ports

import (
	"context"
	"errors"

	"parcel-ops/internal/features/deliveries/domain"
)

// ErrNotFound is returned when a delivery record cannot be located on the hub.
var ErrNotFound = errors.New("delivery record not found")

// AssignmentProvider defines the secondary port for reading assignments from
// the station hub. Implementations normalize the hub's heterogeneous payload
// shapes into canonical DeliveryRecords.
type AssignmentProvider interface {
	// FetchDeliveries retrieves one page of assignments, flattened into
	// per-parcel records. Page is 0-based.
	FetchDeliveries(ctx context.Context, page, size int) (*domain.DeliveryPage, error)
	// FindDelivery locates one record by assignment and parcel identifier.
	// Returns ErrNotFound when no such record exists.
	FindDelivery(ctx context.Context, assignmentID, parcelID string) (*domain.DeliveryRecord, error)
	// HealthCheck verifies the hub is reachable and credentials are valid.
	HealthCheck(ctx context.Context) error
}

// CompletionSubmitter defines the secondary port for writing state changes
// back to the station hub.
type CompletionSubmitter interface {
	// SubmitCompletion issues the status update that closes one parcel.
	SubmitCompletion(ctx context.Context, assignmentID string, req domain.CompletionRequest) error
	// UpdateParcelFields issues a partial field update keyed by parcel id,
	// used for non-terminal transitions like marking a recipient contacted.
	UpdateParcelFields(ctx context.Context, parcelID string, fields map[string]interface{}) error
}

// SnapshotCache defines the secondary port for caching flattened delivery
// pages. A snapshot is a throwaway derived view: it is invalidated wholesale
// after any acknowledged write.
type SnapshotCache interface {
	// GetPage returns the cached page, or (nil, nil) on a miss.
	GetPage(ctx context.Context, page, size int) (*domain.DeliveryPage, error)
	// SetPage stores a page snapshot.
	SetPage(ctx context.Context, page, size int, p *domain.DeliveryPage) error
	// Invalidate discards all cached pages.
	Invalidate(ctx context.Context) error
}

// DeliveryService defines the primary port for delivery operations.
type DeliveryService interface {
	// ListDeliveries returns one flattened page of delivery records.
	ListDeliveries(ctx context.Context, page, size int) (*domain.DeliveryPage, error)
	// Summary aggregates the collectible amounts over one page.
	Summary(ctx context.Context, page, size int) (*domain.FinancialSummary, error)
	// CompleteDelivery closes one parcel as delivered, returning the
	// reconciliation outcome.
	CompleteDelivery(ctx context.Context, assignmentID, parcelID string, input domain.DeliveryConfirmation) (*domain.ReconciliationOutcome, error)
	// FailDelivery closes one parcel as failed with a reason.
	FailDelivery(ctx context.Context, assignmentID, parcelID string, input domain.FailureReport) error
	// MarkContacted records that the recipient was reached by the call center.
	MarkContacted(ctx context.Context, parcelID string) error
	// SetHomeDelivery records the recipient's delivery preference.
	SetHomeDelivery(ctx context.Context, parcelID string, homeDelivery bool) error
}
