package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-market/internal/engine"
)

func TestEngineStepsEveryNFrames(t *testing.T) {
	e := engine.NewEngine(600, 60)
	var frames int
	var steps []uint64
	e.OnFrame = func(uint64) { frames++ }
	e.OnStep = func(n uint64) { steps = append(steps, n) }

	e.Advance(599)
	assert.Empty(t, steps)
	e.Advance(1)
	assert.Equal(t, []uint64{1}, steps)
	e.Advance(1200)
	assert.Equal(t, []uint64{1, 2, 3}, steps)
	assert.Equal(t, 1800, frames)
	assert.Equal(t, uint64(3), e.Steps())
}

func TestEngineDefaults(t *testing.T) {
	e := engine.NewEngine(0, -1)
	assert.Equal(t, uint64(engine.DefaultStepEvery), e.StepEvery)
	assert.Equal(t, time.Second/engine.DefaultFrameRate, e.Interval)
	e.Advance(3) // nil callbacks are fine
	assert.Equal(t, uint64(3), e.Frame)
}

func TestEngineRunStops(t *testing.T) {
	e := engine.NewEngine(2, 1000)
	e.Speed = 10
	steps := 0
	e.OnStep = func(uint64) {
		steps++
		if steps == 3 {
			e.Stop()
		}
	}
	e.Run(context.Background())
	assert.Equal(t, 3, steps)
	assert.Equal(t, uint64(6), e.Frame)
	assert.False(t, e.Running())
}

func TestEngineRunHonoursContext(t *testing.T) {
	e := engine.NewEngine(10, 1000)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "Run ignored context cancellation")
	}
}

func TestPlayTime(t *testing.T) {
	assert.Equal(t, "0:00:00", engine.PlayTime(59, 60))
	assert.Equal(t, "1:01:01", engine.PlayTime(3661*60, 60))
	assert.Equal(t, "0:00:02", engine.PlayTime(120, 0))
}

func TestHistoryIsBounded(t *testing.T) {
	h := engine.NewHistory(3)
	assert.Nil(t, h.Last())
	assert.Equal(t, 0.0, h.Change(0))
	for i := 1; i <= 5; i++ {
		h.Add([]float64{float64(i), float64(10 * i)})
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{3, 4, 5}, h.Series(0))
	assert.Equal(t, []float64{30, 40, 50}, h.Series(1))
	assert.Empty(t, h.Series(7))
	assert.Equal(t, []float64{5, 50}, h.Last())
	assert.Equal(t, 20.0, h.Change(1))

	prices := []float64{1, 2}
	h.Add(prices)
	prices[0] = 99
	assert.Equal(t, 1.0, h.Last()[0], "samples are copied")
	assert.Equal(t, 1, engine.NewHistory(0).Limit())
}
