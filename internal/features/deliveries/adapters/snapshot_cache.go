package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"parcel-ops/internal/core/cache"
	"parcel-ops/internal/features/deliveries/domain"

	"github.com/google/uuid"
)

const snapshotGenerationKey = "deliveries:generation"

// SnapshotCacheAdapter stores flattened delivery pages in the cache. Page
// keys embed a generation token; Invalidate rotates the token instead of
// enumerating keys, so stale pages simply expire unread.
type SnapshotCacheAdapter struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewSnapshotCacheAdapter creates a new SnapshotCacheAdapter with the given TTL.
func NewSnapshotCacheAdapter(c cache.Cache, ttl time.Duration) *SnapshotCacheAdapter {
	return &SnapshotCacheAdapter{
		cache: c,
		ttl:   ttl,
	}
}

// GetPage retrieves a cached delivery page, or (nil, nil) on a miss.
func (s *SnapshotCacheAdapter) GetPage(ctx context.Context, page, size int) (*domain.DeliveryPage, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.cache.Get(ctx, s.pageKey(gen, page, size))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var dp domain.DeliveryPage
	if err := json.Unmarshal(data, &dp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &dp, nil
}

// SetPage stores a delivery page snapshot under the current generation.
func (s *SnapshotCacheAdapter) SetPage(ctx context.Context, page, size int, dp *domain.DeliveryPage) error {
	gen, err := s.generation(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(dp)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.cache.Set(ctx, s.pageKey(gen, page, size), data, s.ttl); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Invalidate rotates the generation token, orphaning every cached page.
func (s *SnapshotCacheAdapter) Invalidate(ctx context.Context) error {
	if err := s.cache.Set(ctx, snapshotGenerationKey, []byte(uuid.NewString()), 0); err != nil {
		return fmt.Errorf("failed to rotate snapshot generation: %w", err)
	}
	return nil
}

func (s *SnapshotCacheAdapter) generation(ctx context.Context) (string, error) {
	gen, err := s.cache.Get(ctx, snapshotGenerationKey)
	if errors.Is(err, cache.ErrCacheMiss) {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot generation: %w", err)
	}
	return string(gen), nil
}

func (s *SnapshotCacheAdapter) pageKey(gen string, page, size int) string {
	return fmt.Sprintf("deliveries:%s:p%d:s%d", gen, page, size)
}
