package ports

import (
	"context"

	"parcel-ops/internal/features/selection/domain"
)

// SelectionService defines the primary port for the selection handoff.
type SelectionService interface {
	// Park stores the selection for a session, replacing any previous one.
	Park(ctx context.Context, sessionID string, parcelIDs []string) (*domain.Selection, error)
	// Peek returns the parked selection without consuming it, or nil when none exists.
	Peek(ctx context.Context, sessionID string) (*domain.Selection, error)
	// Consume returns the parked selection and clears it in the same step,
	// or nil when none exists.
	Consume(ctx context.Context, sessionID string) (*domain.Selection, error)
}

// SelectionRepository defines the secondary port for selection storage.
type SelectionRepository interface {
	Save(ctx context.Context, selection *domain.Selection) error
	Get(ctx context.Context, sessionID string) (*domain.Selection, error)
	// Take retrieves and deletes atomically.
	Take(ctx context.Context, sessionID string) (*domain.Selection, error)
}
