package root

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"lifeplanner/internal/service"
	"lifeplanner/internal/timer"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPlainTimerWithoutRoundsStopsAfterOnePeriod(t *testing.T) {
	defer goleak.VerifyNone(t)

	scheduler := service.NewSchedulerService(time.UTC, zap.NewNop())
	scheduler.Start()
	defer scheduler.Stop()
	runner := timer.NewRunner(timer.New(time.Second, time.Second), scheduler)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out := &lockedBuffer{}
	require.NoError(t, runPlainTimer(ctx, out, scheduler, runner, 0, zap.NewNop()))

	assert.Contains(t, out.String(), "work session completed. Next: break.")
	assert.Contains(t, out.String(), "1 work sessions done.")
	assert.False(t, runner.Timer().Running())
	assert.False(t, runner.Active())
}
