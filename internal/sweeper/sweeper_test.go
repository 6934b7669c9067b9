package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saxenaaman628/badenya/internal/proposals"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingSweep struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweep) Sweep(context.Context) (proposals.SweepReport, error) {
	c.calls.Add(1)
	return proposals.SweepReport{Scanned: 1, Finalized: 1}, c.err
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	target := &countingSweep{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		New(target, 5*time.Millisecond, zap.NewNop()).Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRun_Disabled(t *testing.T) {
	target := &countingSweep{}
	New(target, 0, zap.NewNop()).Run(context.Background())
	assert.Zero(t, target.calls.Load())
}

func TestRunOnce_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(&countingSweep{err: errors.New("store down")}, time.Minute, zap.New(core))

	s.runOnce(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("sweep failed").Len())
}
