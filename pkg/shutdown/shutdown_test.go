package shutdown

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownReverseOrder(t *testing.T) {
	m := NewManager(nil)
	var order []string
	for _, name := range []string{"metrics", "client", "realtime"} {
		name := name
		m.OnShutdown(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	m.Shutdown(context.Background())
	assert.Equal(t, []string{"realtime", "client", "metrics"}, order)

	// 只执行一次
	m.Shutdown(context.Background())
	assert.Len(t, order, 3)
}

func TestShutdownContinuesAfterError(t *testing.T) {
	m := NewManager(nil)
	called := 0
	m.OnShutdown("a", func(ctx context.Context) error { called++; return nil })
	m.OnShutdown("b", func(ctx context.Context) error { called++; return errors.New("boom") })

	m.Shutdown(context.Background())
	assert.Equal(t, 2, called)
}

func TestShutdownSkipsAfterDeadline(t *testing.T) {
	m := NewManager(nil)
	called := false
	m.OnShutdown("late", func(ctx context.Context) error { called = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Shutdown(ctx)
	assert.False(t, called)
}
