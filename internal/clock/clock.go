// Package clock supplies the monotonically non-decreasing "current time" the
// goal lifecycle compares deadlines against. Time is a block height, not a
// wall-clock instant.
package clock

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/templui/goalkeep/internal/model"
)

var ErrInvalidInterval = errors.New("block interval must be positive")

// Source returns the current height. Callers read it once per operation.
type Source interface {
	Now(ctx context.Context) (model.Height, error)
}

// BlockClock derives a height from wall time as the number of whole block
// intervals elapsed since genesis. The reported height never decreases, even
// if the wall clock steps backwards.
type BlockClock struct {
	genesis  time.Time
	interval time.Duration
	wall     func() time.Time
	last     atomic.Uint64
}

func NewBlockClock(genesis time.Time, interval time.Duration) (*BlockClock, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	return &BlockClock{
		genesis:  genesis,
		interval: interval,
		wall:     time.Now,
	}, nil
}

func (c *BlockClock) Now(ctx context.Context) (model.Height, error) {
	err := ctx.Err()
	if err != nil {
		return 0, err
	}

	var h uint64
	elapsed := c.wall().Sub(c.genesis)
	if elapsed > 0 {
		h = uint64(elapsed / c.interval)
	}

	for {
		last := c.last.Load()
		if h <= last {
			return model.Height(last), nil
		}
		if c.last.CompareAndSwap(last, h) {
			return model.Height(h), nil
		}
	}
}

// ManualClock is a settable height, for tests and local development.
type ManualClock struct {
	height atomic.Uint64
}

func NewManualClock(start model.Height) *ManualClock {
	c := &ManualClock{}
	c.height.Store(uint64(start))
	return c
}

func (c *ManualClock) Now(ctx context.Context) (model.Height, error) {
	return model.Height(c.height.Load()), nil
}

// Set moves the clock to h. Heights lower than the current one are ignored.
func (c *ManualClock) Set(h model.Height) {
	for {
		cur := c.height.Load()
		if uint64(h) <= cur || c.height.CompareAndSwap(cur, uint64(h)) {
			return
		}
	}
}

// Advance moves the clock forward by n and returns the new height.
func (c *ManualClock) Advance(n uint64) model.Height {
	return model.Height(c.height.Add(n))
}
