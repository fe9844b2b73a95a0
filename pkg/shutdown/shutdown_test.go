package shutdown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestShutdownRunsAllCallbacks(t *testing.T) {
	m := NewManager()
	var calls int32
	m.OnShutdown("a", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	m.OnShutdown("b", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	})

	failed := m.Shutdown(context.Background())
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	if m.Shutdown(context.Background()) != 0 || atomic.LoadInt32(&calls) != 2 {
		t.Error("second Shutdown must be a no-op")
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})
	defer close(release)
	m.OnShutdown("slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	m.Shutdown(ctx)
	if time.Since(start) > time.Second {
		t.Error("Shutdown did not honor ctx timeout")
	}
}
