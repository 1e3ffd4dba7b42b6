package service

import (
	"context"
	"fmt"

	"parcel-ops/internal/features/selection/domain"
	"parcel-ops/internal/features/selection/ports"
)

// SelectionServiceImpl implements ports.SelectionService.
type SelectionServiceImpl struct {
	repo ports.SelectionRepository
}

// NewSelectionService creates a new SelectionServiceImpl.
func NewSelectionService(repo ports.SelectionRepository) *SelectionServiceImpl {
	return &SelectionServiceImpl{
		repo: repo,
	}
}

// Park validates and stores the selection for a session, replacing any
// previous one.
func (s *SelectionServiceImpl) Park(ctx context.Context, sessionID string, parcelIDs []string) (*domain.Selection, error) {
	selection, err := domain.NewSelection(sessionID, parcelIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, selection); err != nil {
		return nil, fmt.Errorf("service: failed to park selection: %w", err)
	}

	return selection, nil
}

// Peek returns the parked selection without consuming it.
func (s *SelectionServiceImpl) Peek(ctx context.Context, sessionID string) (*domain.Selection, error) {
	selection, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to peek selection: %w", err)
	}
	return selection, nil
}

// Consume returns the parked selection and clears it in the same step, so a
// handoff can only ever be used once.
func (s *SelectionServiceImpl) Consume(ctx context.Context, sessionID string) (*domain.Selection, error) {
	selection, err := s.repo.Take(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to consume selection: %w", err)
	}
	return selection, nil
}
