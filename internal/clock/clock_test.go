package clock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalkeep/internal/model"
)

var genesis = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func clockAt(t *testing.T, wall *time.Time) *BlockClock {
	t.Helper()
	c, err := NewBlockClock(genesis, 10*time.Minute)
	require.NoError(t, err)
	c.wall = func() time.Time { return *wall }
	return c
}

// TestBlockClock_Heights verifies heights count whole intervals since genesis.
func TestBlockClock_Heights(t *testing.T) {
	tests := []struct {
		name string
		wall time.Time
		want model.Height
	}{
		{"before genesis", genesis.Add(-time.Hour), 0},
		{"at genesis", genesis, 0},
		{"partial interval", genesis.Add(9 * time.Minute), 0},
		{"one interval", genesis.Add(10 * time.Minute), 1},
		{"one day", genesis.Add(24 * time.Hour), 144},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wall := tt.wall
			h, err := clockAt(t, &wall).Now(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, h)
		})
	}
}

// TestBlockClock_NeverDecreases verifies a wall clock step back does not move height back.
func TestBlockClock_NeverDecreases(t *testing.T) {
	wall := genesis.Add(time.Hour)
	c := clockAt(t, &wall)
	ctx := context.Background()

	h, err := c.Now(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Height(6), h)

	wall = genesis.Add(20 * time.Minute)
	h, err = c.Now(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Height(6), h)

	wall = genesis.Add(2 * time.Hour)
	h, err = c.Now(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Height(12), h)
}

// TestBlockClock_CanceledContext verifies a canceled context is reported.
func TestBlockClock_CanceledContext(t *testing.T) {
	wall := genesis
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := clockAt(t, &wall).Now(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestNewBlockClock_InvalidInterval verifies non-positive intervals are rejected.
func TestNewBlockClock_InvalidInterval(t *testing.T) {
	_, err := NewBlockClock(genesis, 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

// TestManualClock verifies Set ignores regressions and Advance is cumulative.
func TestManualClock(t *testing.T) {
	c := NewManualClock(100)
	ctx := context.Background()

	c.Set(50)
	h, _ := c.Now(ctx)
	assert.Equal(t, model.Height(100), h)

	c.Set(150)
	assert.Equal(t, model.Height(160), c.Advance(10))

	h, _ = c.Now(ctx)
	assert.Equal(t, model.Height(160), h)
}

// TestManualClock_ConcurrentAdvance verifies concurrent advances are not lost.
func TestManualClock_ConcurrentAdvance(t *testing.T) {
	c := NewManualClock(0)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(1)
		}()
	}
	wg.Wait()

	h, _ := c.Now(context.Background())
	assert.Equal(t, model.Height(50), h)
}
