package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc는 함수를 Task로 사용할 수 있게 합니다
type TaskFunc func(ctx context.Context) error

// Execute는 Task 인터페이스를 구현합니다
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Scheduler는 간격 경계(예: 5분 봉 마감)에 맞춰 작업을 실행하는 스케줄러입니다
type Scheduler struct {
	interval time.Duration
	delay    time.Duration // 경계 이후 추가 대기 (데이터 반영 지연 대비)
	task     Task
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option은 스케줄러 옵션입니다
type Option func(*Scheduler)

// WithDelay는 간격 경계 이후 실행까지의 지연을 설정합니다
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		s.delay = d
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(interval time.Duration, task Task, opts ...Option) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("실행 간격은 0보다 커야 합니다: %s", interval)
	}
	s := &Scheduler{
		interval: interval,
		task:     task,
		logger:   zap.NewNop(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("scheduler")
	return s, nil
}

// NextRun은 now 이후 첫 실행 시각을 계산합니다
func (s *Scheduler) NextRun(now time.Time) time.Time {
	return now.Truncate(s.interval).Add(s.interval).Add(s.delay)
}

// Start는 스케줄러를 시작합니다.
// 컨텍스트가 취소되면 ctx.Err()를, Stop이 호출되면 nil을 반환합니다.
// 작업이 실패해도 다음 주기는 계속 실행됩니다.
func (s *Scheduler) Start(ctx context.Context) error {
	timer := time.NewTimer(s.wait())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			start := time.Now()
			if err := s.task.Execute(ctx); err != nil {
				s.logger.Error("작업 실행 실패", zap.Error(err))
			} else {
				s.logger.Debug("작업 실행 완료", zap.Duration("elapsed", time.Since(start)))
			}
			timer.Reset(s.wait())
		}
	}
}

// Stop은 스케줄러를 중지합니다. 여러 번 호출해도 안전합니다.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *Scheduler) wait() time.Duration {
	now := time.Now()
	next := s.NextRun(now)
	d := next.Sub(now)

	s.logger.Info("다음 실행 대기",
		zap.Duration("wait", d.Round(time.Second)),
		zap.String("next", next.Format("15:04:05")),
	)
	return d
}
