package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitstack/gymchat/internal/service"
)

// fakeClock is a manually advanced clock for expiry tests
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRegistryPutGet(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	registry := service.NewGuestSessionRegistry(time.Hour, clock.Now)

	put := registry.Put("A1B2C3", "guest_1")
	assert.Equal(t, clock.t, put.CreatedAt)
	assert.Equal(t, clock.t.Add(time.Hour), put.ExpiresAt)

	got, ok := registry.Get("A1B2C3")
	require.True(t, ok)
	assert.Equal(t, "guest_1", got.UserID)

	_, ok = registry.Get("FFFFFF")
	assert.False(t, ok)
}

func TestRegistryLazyExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	registry := service.NewGuestSessionRegistry(time.Hour, clock.Now)

	registry.Put("A1B2C3", "guest_1")

	clock.Advance(59 * time.Minute)
	_, ok := registry.Get("A1B2C3")
	assert.True(t, ok, "session is live until its expiry instant")

	clock.Advance(2 * time.Minute)
	_, ok = registry.Get("A1B2C3")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Len(), "expired lookup removes the entry")
}

func TestRegistrySweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	registry := service.NewGuestSessionRegistry(time.Hour, clock.Now)

	registry.Put("AAAAAA", "guest_a")
	registry.Put("BBBBBB", "guest_b")
	clock.Advance(30 * time.Minute)
	registry.Put("CCCCCC", "guest_c")

	clock.Advance(45 * time.Minute)
	assert.Equal(t, 2, registry.Sweep())
	assert.Equal(t, 1, registry.Len())

	_, ok := registry.Get("CCCCCC")
	assert.True(t, ok)
}

func TestRegistryDelete(t *testing.T) {
	registry := service.NewGuestSessionRegistry(time.Hour, nil)

	registry.Put("AAAAAA", "guest_a")
	registry.Delete("AAAAAA")

	_, ok := registry.Get("AAAAAA")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Len())
}
