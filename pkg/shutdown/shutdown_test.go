package shutdown

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_ShutsDownAllComponents(t *testing.T) {
	sm := NewManager(zap.NewNop(), time.Second)

	var mu sync.Mutex
	seen := make(map[string]bool)
	for _, name := range []string{"worker", "http_server", "db_pool"} {
		name := name
		sm.Register(name, func(ctx context.Context) error {
			mu.Lock()
			seen[name] = true
			mu.Unlock()
			return nil
		})
	}

	sm.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestManager_TimesOutOnStuckComponent(t *testing.T) {
	sm := NewManager(zap.NewNop(), 50*time.Millisecond)

	sm.Register("stuck", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	sm.Shutdown()
	assert.Less(t, time.Since(start), time.Second)
}

func TestBackgroundWorker_ShutdownCancelsWork(t *testing.T) {
	bw := NewBackgroundWorker("test", zap.NewNop())

	started := make(chan struct{})
	bw.Start(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bw.Shutdown(ctx))
}

func TestPeriodicWorker_RunsImmediatelyAndOnTicks(t *testing.T) {
	pw := NewPeriodicWorker("test", 10*time.Millisecond, zap.NewNop())

	var runs int32
	pw.Start(func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) >= 3
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pw.Shutdown(ctx))
}
