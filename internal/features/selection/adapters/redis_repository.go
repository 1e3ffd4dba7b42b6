package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"parcel-ops/internal/core/cache"
	"parcel-ops/internal/features/selection/domain"
)

const selectionKeyPrefix = "selection:"

// RedisSelectionRepository implements ports.SelectionRepository on top of
// the cache port. Selections are short-lived by construction: the TTL caps
// how long an unconsumed handoff survives.
type RedisSelectionRepository struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisSelectionRepository creates a new RedisSelectionRepository.
func NewRedisSelectionRepository(c cache.Cache, ttl time.Duration) *RedisSelectionRepository {
	return &RedisSelectionRepository{
		cache: c,
		ttl:   ttl,
	}
}

// Save stores the selection under its session key.
func (r *RedisSelectionRepository) Save(ctx context.Context, selection *domain.Selection) error {
	data, err := json.Marshal(selection)
	if err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}

	if err := r.cache.Set(ctx, selectionKeyPrefix+selection.SessionID, data, r.ttl); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

// Get retrieves the selection without consuming it. Returns nil, nil when
// no selection is parked for the session.
func (r *RedisSelectionRepository) Get(ctx context.Context, sessionID string) (*domain.Selection, error) {
	data, err := r.cache.Get(ctx, selectionKeyPrefix+sessionID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get selection: %w", err)
	}
	return unmarshalSelection(data)
}

// Take retrieves and deletes the selection in one step, enforcing
// clear-on-consume. Returns nil, nil when no selection is parked.
func (r *RedisSelectionRepository) Take(ctx context.Context, sessionID string) (*domain.Selection, error) {
	data, err := r.cache.GetDel(ctx, selectionKeyPrefix+sessionID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take selection: %w", err)
	}
	return unmarshalSelection(data)
}

func unmarshalSelection(data []byte) (*domain.Selection, error) {
	var selection domain.Selection
	if err := json.Unmarshal(data, &selection); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selection: %w", err)
	}
	return &selection, nil
}
