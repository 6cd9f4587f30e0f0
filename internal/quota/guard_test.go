package quota

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackMonotonic(t *testing.T) {
	g := NewGuard(3, 5)

	for i := 1; i <= 5; i++ {
		assert.Equal(t, i, g.Track())
	}
	assert.Equal(t, 5, g.Used())
}

func TestAllowAndCheck(t *testing.T) {
	g := NewGuard(2, 3)

	require.True(t, g.Allow())
	require.NoError(t, g.Check())

	g.Track()
	g.Track()
	assert.True(t, g.Allow())

	g.Track()
	assert.False(t, g.Allow())
	assert.ErrorIs(t, g.Check(), ErrExhausted)

	// The guard keeps counting attempted calls past the cap; it only
	// refuses to let guarded paths start new ones.
	assert.Equal(t, 4, g.Track())
	assert.False(t, g.Allow())
}

func TestWarning(t *testing.T) {
	g := NewGuard(2, 10)

	assert.False(t, g.Warning())
	g.Track()
	assert.False(t, g.Warning())
	g.Track()
	assert.True(t, g.Warning())

	// Warning has no effect on Allow.
	assert.True(t, g.Allow())
}

func TestDefaults(t *testing.T) {
	g := NewGuard(0, 0)
	assert.Equal(t, DefaultHardCap, g.Cap())

	for i := 0; i < DefaultWarnThreshold; i++ {
		g.Track()
	}
	assert.True(t, g.Warning())
	assert.True(t, g.Allow())
}

func TestConcurrentTrack(t *testing.T) {
	g := NewGuard(10, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				g.Track()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, g.Used())
}
