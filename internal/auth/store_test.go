package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	s := &Session{ID: "a", Authenticated: true, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, m.Save(ctx, s))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.Authenticated)

	require.NoError(t, m.Delete(ctx, "a"))
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// deleting twice is fine
	require.NoError(t, m.Delete(ctx, "a"))
}

func TestMemoryStore_Expiry(t *testing.T) {
	m := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, &Session{ID: "a", Authenticated: true, ExpiresAt: now.Add(time.Minute)}))

	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryStore_SaveSweepsExpired(t *testing.T) {
	m := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	// abandoned sessions are never looked up again
	require.NoError(t, m.Save(ctx, &Session{ID: "old-1", Authenticated: true, ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, m.Save(ctx, &Session{ID: "old-2", Authenticated: true, ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, m.Save(ctx, &Session{ID: "live", Authenticated: true, ExpiresAt: now.Add(time.Hour)}))
	assert.Equal(t, 3, m.Len())

	now = now.Add(2 * time.Minute)
	require.NoError(t, m.Save(ctx, &Session{ID: "new", Authenticated: true, ExpiresAt: now.Add(time.Hour)}))
	assert.Equal(t, 2, m.Len())

	_, err := m.Get(ctx, "live")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "old-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore_RejectsEmptyID(t *testing.T) {
	m := NewMemoryStore()
	assert.Error(t, m.Save(context.Background(), &Session{}))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	r := NewRedisStore(addr)
	t.Cleanup(func() { _ = r.Close() })
	ctx := context.Background()
	require.NoError(t, r.Ping(ctx))

	id := uuid.NewString()
	require.NoError(t, r.Save(ctx, &Session{ID: id, Authenticated: true, ExpiresAt: time.Now().Add(time.Minute)}))

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.True(t, got.Authenticated)

	require.NoError(t, r.Delete(ctx, id))
	_, err = r.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Error(t, r.Save(ctx, &Session{ID: id, ExpiresAt: time.Now().Add(-time.Second)}))
}
