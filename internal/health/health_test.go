package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ok(context.Context) error { return nil }

func TestAllHealthy(t *testing.T) {
	a := NewAggregator(time.Second)
	a.Register("database", CheckerFunc(ok))
	a.Register("storage", CheckerFunc(ok))

	r := a.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Len(t, r.Checks, 2)
	assert.True(t, r.Healthy("database"))
}

func TestOneFailureMakesUnhealthy(t *testing.T) {
	a := NewAggregator(time.Second)
	a.Register("database", CheckerFunc(func(context.Context) error { return errors.New("no primary") }))
	a.Register("storage", CheckerFunc(ok))

	r := a.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.False(t, r.Healthy("database"))
	assert.Equal(t, "no primary", r.Checks["database"].Error)
	assert.True(t, r.Healthy("storage"))
}

func TestSlowCheckTimesOut(t *testing.T) {
	a := NewAggregator(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	a.Register("storage", CheckerFunc(func(context.Context) error {
		<-release
		return nil
	}))

	r := a.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, ErrCheckTimeout.Error(), r.Checks["storage"].Error)
}

func TestNoCheckersIsHealthy(t *testing.T) {
	r := NewAggregator(0).CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.False(t, r.Healthy("database"))
}

func TestChecksRunConcurrently(t *testing.T) {
	a := NewAggregator(time.Second)
	started := make(chan struct{}, 2)
	barrier := func(ctx context.Context) error {
		started <- struct{}{}
		// Each check waits for the other, so a serial run would time out.
		for len(started) < 2 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
			}
		}
		return nil
	}
	a.Register("database", CheckerFunc(barrier))
	a.Register("storage", CheckerFunc(barrier))

	r := a.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
}
