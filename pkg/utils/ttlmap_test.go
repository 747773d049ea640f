package utils_test

import (
	"testing"
	"time"

	"github.com/modwatch/sentinel/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLMapSetGet(t *testing.T) {
	t.Parallel()

	m := utils.NewTTLMap[string, int](time.Minute)

	m.Set("a", 1)

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestTTLMapExpiry(t *testing.T) {
	t.Parallel()

	m := utils.NewTTLMap[string, int](10 * time.Millisecond)

	m.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	_, ok := m.Get("a")
	assert.False(t, ok)
}

func TestTTLMapSetIfAbsent(t *testing.T) {
	t.Parallel()

	m := utils.NewTTLMap[string, int](time.Minute)

	first, inserted := m.SetIfAbsent("key", 1)
	require.True(t, inserted)
	assert.Equal(t, 1, first)

	// The first write wins; later writers observe it.
	second, inserted := m.SetIfAbsent("key", 2)
	assert.False(t, inserted)
	assert.Equal(t, 1, second)

	assert.Equal(t, 1, m.Len())
}
