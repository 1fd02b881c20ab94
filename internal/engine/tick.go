// Package engine drives city markets and the player session: the frame
// clock, the per-city market registry, price history and the session.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Frame schedule defaults.
const (
	DefaultStepEvery = 600 // Frames between market steps
	DefaultFrameRate = 60  // Frames per real second in Run
)

// Engine counts frames and fires the market step every StepEvery frames.
type Engine struct {
	Frame     uint64        // Frames elapsed (monotonic, saved with the game)
	StepEvery uint64        // Frames per market step
	Speed     float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval  time.Duration // Real duration of one frame at speed 1

	// Callbacks, populated during setup.
	OnFrame func(frame uint64) // Every frame
	OnStep  func(step uint64)  // Every StepEvery frames

	running atomic.Bool
}

// NewEngine creates a clock stepping every stepEvery frames at frameRate
// frames per second. Non-positive values use the defaults.
func NewEngine(stepEvery, frameRate int) *Engine {
	if stepEvery <= 0 {
		stepEvery = DefaultStepEvery
	}
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Engine{
		StepEvery: uint64(stepEvery),
		Speed:     1.0,
		Interval:  time.Second / time.Duration(frameRate),
	}
}

// Steps returns how many market steps have fired so far.
func (e *Engine) Steps() uint64 {
	return e.Frame / e.StepEvery
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Advance runs n frames immediately, without sleeping.
func (e *Engine) Advance(n int) {
	for i := 0; i < n; i++ {
		e.frame()
	}
}

// Run loops in real time until ctx is done or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("market clock started", "frame", e.Frame, "speed", e.Speed, "step_every", e.StepEvery)

	for e.running.Load() {
		if ctx.Err() != nil {
			break
		}
		if e.Speed <= 0 {
			// Paused, check again shortly.
			sleep(ctx, 100*time.Millisecond)
			continue
		}

		start := time.Now()
		e.frame()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			sleep(ctx, target-elapsed)
		}
	}

	slog.Info("market clock stopped", "frame", e.Frame, "steps", e.Steps())
}

// Stop halts Run after the current frame.
func (e *Engine) Stop() {
	e.running.Store(false)
}

func (e *Engine) frame() {
	e.Frame++
	if e.OnFrame != nil {
		e.OnFrame(e.Frame)
	}
	if e.Frame%e.StepEvery == 0 && e.OnStep != nil {
		e.OnStep(e.Frame / e.StepEvery)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// PlayTime formats the in-game time represented by frame at frameRate.
func PlayTime(frame uint64, frameRate int) string {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	total := frame / uint64(frameRate)
	hours, minutes, seconds := total/3600, total/60%60, total%60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}
