package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/a11y-auditor/auditor/internal/config"
)

func TestResourceMonitor_DisabledWhenThresholdZero(t *testing.T) {
	m := newResourceMonitor(config.ResourceConfig{}, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())

	done := m.Start(ctx, cancel)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not exit after ctx cancellation")
	}
}

func TestResourceMonitor_MemoryPercentIsBounded(t *testing.T) {
	m := newResourceMonitor(config.ResourceConfig{MemoryThreshold: 90}, zap.NewNop().Sugar())
	pct := m.memoryPercent()
	assert.GreaterOrEqual(t, pct, 0.0)
}

func TestResourceMonitor_SustainedBreachPausesInsteadOfCancelling(t *testing.T) {
	m := newResourceMonitor(config.ResourceConfig{
		MemoryThreshold: 0.0001,
		SampleInterval:  5 * time.Millisecond,
		DrainWindow:     20 * time.Millisecond,
	}, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := m.Start(ctx, cancel)

	// Give the monitor time to breach threshold, sustain past the
	// drain window, and enter its cooldown pause at least once. It
	// must not have called cancel() on its own: the context stays
	// live and the done channel stays open.
	select {
	case <-done:
		t.Fatal("monitor exited on its own after a sustained breach; it should pause for cooldown, not cancel")
	case <-time.After(100 * time.Millisecond):
	}
	assert.NoError(t, ctx.Err())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not exit after external ctx cancellation")
	}
}
