package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestScheduler_NextRun(t *testing.T) {
	s, err := NewScheduler(5*time.Minute, TaskFunc(func(context.Context) error { return nil }), WithDelay(3*time.Second))
	require.NoError(t, err)

	now := time.Date(2024, 3, 4, 11, 32, 10, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 11, 35, 3, 0, time.UTC), s.NextRun(now))

	// 정확히 경계인 경우 다음 경계
	boundary := time.Date(2024, 3, 4, 11, 35, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 11, 40, 3, 0, time.UTC), s.NextRun(boundary))
}

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	task := TaskFunc(func(context.Context) error {
		// 실패해도 계속 실행되어야 함
		calls.Add(1)
		return errors.New("일시적 오류")
	})

	s, err := NewScheduler(20*time.Millisecond, task, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("스케줄러가 종료되지 않음")
	}
}

func TestScheduler_Stop(t *testing.T) {
	s, err := NewScheduler(time.Hour, TaskFunc(func(context.Context) error { return nil }))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	s.Stop()
	s.Stop() // 중복 호출 허용

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("스케줄러가 종료되지 않음")
	}
}

func TestNewScheduler_InvalidInterval(t *testing.T) {
	_, err := NewScheduler(0, TaskFunc(func(context.Context) error { return nil }))
	assert.Error(t, err)
}
