package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelRunsAll(t *testing.T) {
	var n atomic.Int32
	task := func(context.Context) error {
		n.Add(1)
		return nil
	}

	err := Parallel(context.Background(), task, task, task)
	assert.NoError(t, err)
	assert.EqualValues(t, 3, n.Load())
}

func TestParallelReturnsErrorAndCancels(t *testing.T) {
	boom := errors.New("boom")

	err := Parallel(context.Background(),
		func(context.Context) error { return boom },
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	)
	assert.ErrorIs(t, err, boom)
}

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(2)
	var n atomic.Int32

	for i := 0; i < 10; i++ {
		pool.Submit(func() { n.Add(1) })
	}
	pool.Wait()
	assert.EqualValues(t, 10, n.Load())

	pool.Close()
	pool.Close()
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	assert.True(t, pool.Submit(func() {}))
	pool.Close()

	var ran atomic.Bool
	assert.NotPanics(t, func() {
		assert.False(t, pool.Submit(func() { ran.Store(true) }))
	})
	pool.Wait()
	assert.False(t, ran.Load())
}
