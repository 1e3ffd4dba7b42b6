package adapters

import (
	"context"
	"testing"
	"time"

	"parcel-ops/internal/core/cache"
	"parcel-ops/internal/features/selection/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*RedisSelectionRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return NewRedisSelectionRepository(c, time.Minute), mr
}

func parkedSelection(t *testing.T) *domain.Selection {
	t.Helper()
	s, err := domain.NewSelection("sess-1", []string{"p-1", "p-2"})
	require.NoError(t, err)
	return s
}

func TestSelectionRepository_SaveAndGet(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, parkedSelection(t)))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"p-1", "p-2"}, got.ParcelIDs)

	// Get does not consume.
	got, err = repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSelectionRepository_GetMiss(t *testing.T) {
	repo, _ := newTestRepository(t)

	got, err := repo.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectionRepository_TakeClearsOnConsume(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, parkedSelection(t)))

	got, err := repo.Take(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"p-1", "p-2"}, got.ParcelIDs)

	// A second take finds nothing.
	got, err = repo.Take(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSelectionRepository_SaveReplacesPrevious(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, parkedSelection(t)))

	replacement, err := domain.NewSelection("sess-1", []string{"p-9"})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, replacement))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"p-9"}, got.ParcelIDs)
}

func TestSelectionRepository_Expires(t *testing.T) {
	repo, mr := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, parkedSelection(t)))
	mr.FastForward(2 * time.Minute)

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
