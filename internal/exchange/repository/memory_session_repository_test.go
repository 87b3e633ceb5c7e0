package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inesdata/dataspace-tools/internal/exchange/domain"
)

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemorySessionRepository()
	repo.now = func() time.Time { return now }

	session := domain.NewSession("s-1", "alice", now, time.Hour)
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Same(t, session, got)

	_, err = repo.Get(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, repo.Delete(ctx, "s-1"))
	_, err = repo.Get(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoError(t, repo.Delete(ctx, "s-1"))
}

func TestMemorySessionRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemorySessionRepository()
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Create(ctx, domain.NewSession("old", "alice", now.Add(-2*time.Hour), time.Hour)))
	require.NoError(t, repo.Create(ctx, domain.NewSession("stale", "bob", now.Add(-2*time.Hour), time.Hour)))
	require.NoError(t, repo.Create(ctx, domain.NewSession("live", "carol", now, time.Hour)))

	_, err := repo.Get(ctx, "old")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	expired, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "stale", expired[0].ID)

	_, err = repo.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestMemorySessionRepository_DeleteAll(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := NewMemorySessionRepository()

	require.NoError(t, repo.Create(ctx, domain.NewSession("s-1", "alice", now, time.Hour)))
	require.NoError(t, repo.Create(ctx, domain.NewSession("s-2", "bob", now, time.Hour)))

	all, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repo.Get(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	all, err = repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
