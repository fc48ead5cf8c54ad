package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/notification"
	"github.com/assist-by/pinbar/internal/strategy"
	"github.com/assist-by/pinbar/internal/trading"
)

// RetryConfig는 재시도 설정을 정의합니다
type RetryConfig struct {
	MaxRetries int           // 최대 재시도 횟수
	BaseDelay  time.Duration // 기본 대기 시간
	MaxDelay   time.Duration // 최대 대기 시간
	Factor     float64       // 대기 시간 증가 계수
}

// DefaultRetryConfig는 기본 재시도 설정을 반환합니다
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Factor:     2,
	}
}

// IsRetryableError는 다시 시도해도 결과가 달라질 수 있는 오류인지 판단합니다.
// 입력 데이터 오류, 알 수 없는 종목, 컨텍스트 취소는 재시도하지 않습니다.
func IsRetryableError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, ErrUnknownInstrument):
		return false
	}
	return true
}

// Collector는 주기적으로 최신 캔들을 읽어 새 핀바 시그널을 알립니다.
// scheduler.Task를 구현합니다.
type Collector struct {
	source      Source
	strategy    strategy.Strategy
	notifier    notification.Notifier
	instruments []string
	logger      *zap.Logger

	retry RetryConfig
	mu    sync.Mutex
}

// CollectorOption은 수집기의 옵션을 정의합니다
type CollectorOption func(*Collector)

// WithRetryConfig는 재시도 설정을 지정합니다
func WithRetryConfig(config RetryConfig) CollectorOption {
	return func(c *Collector) {
		c.retry = config
	}
}

// WithCollectorLogger는 로거를 설정합니다
func WithCollectorLogger(logger *zap.Logger) CollectorOption {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCollector는 새로운 수집기를 생성합니다. notifier가 nil이면 알림을 보내지 않습니다.
func NewCollector(source Source, strat strategy.Strategy, notifier notification.Notifier, instruments []string, opts ...CollectorOption) (*Collector, error) {
	if source == nil || strat == nil {
		return nil, errors.New("데이터 소스와 전략은 필수입니다")
	}
	if len(instruments) == 0 {
		return nil, errors.New("감시할 종목이 없습니다")
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}

	c := &Collector{
		source:      source,
		strategy:    strat,
		notifier:    notifier,
		instruments: append([]string(nil), instruments...),
		logger:      zap.NewNop(),
		retry:       DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("collector")
	return c, nil
}

// Execute는 scheduler.Task 인터페이스를 구현합니다
func (c *Collector) Execute(ctx context.Context) error {
	_, err := c.Collect(ctx)
	return err
}

// Collect는 한 번의 수집 사이클을 수행하고 이번에 새로 발생한 매매 후보를 반환합니다.
// 한 종목이 실패해도 나머지 종목은 계속 처리하며, 실패들은 합쳐서 반환합니다.
func (c *Collector) Collect(ctx context.Context) ([]trading.Trade, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		emitted []trading.Trade
		errs    []error
	)

	for _, inst := range c.instruments {
		var candles domain.CandleList
		err := c.withRetry(ctx, fmt.Sprintf("%s 캔들 데이터 조회", inst), func() error {
			var loadErr error
			candles, loadErr = c.source.Load(ctx, inst)
			return loadErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return emitted, ctx.Err()
			}
			c.logger.Warn("종목 데이터 수집 실패", zap.String("instrument", inst), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", inst, err))
			continue
		}

		c.logger.Debug("캔들 데이터 수집 완료", zap.String("instrument", inst), zap.Int("count", len(candles)))

		trade, err := c.strategy.DetectLatest(candles, inst)
		if err != nil {
			c.logger.Warn("시그널 감지 실패", zap.String("instrument", inst), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s 시그널 감지 실패: %w", inst, err))
			continue
		}
		if trade == nil {
			continue
		}

		emitted = append(emitted, *trade)
		if err := c.notifier.SendSignal(*trade); err != nil {
			c.logger.Error("시그널 알림 전송 실패", zap.String("instrument", inst), zap.Error(err))
		}
	}

	return emitted, errors.Join(errs...)
}

// withRetry는 재시도 가능한 오류에 대해 지수 백오프로 fn을 다시 실행합니다
func (c *Collector) withRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	delay := c.retry.BaseDelay

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			c.logger.Warn("재시도 불필요한 실패", zap.String("operation", operation), zap.Error(err))
			return err
		}

		if attempt == c.retry.MaxRetries {
			// 마지막 시도에서 실패하면 에러 알림 전송
			notifyErr := c.notifier.SendError(fmt.Errorf("%s 실패 (최대 재시도 횟수 초과): %w", operation, err))
			if notifyErr != nil {
				c.logger.Error("에러 알림 전송 실패", zap.Error(notifyErr))
			}
			return fmt.Errorf("최대 재시도 횟수 초과: %w", lastErr)
		}

		c.logger.Info("재시도 대기",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max", c.retry.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * c.retry.Factor)
			if c.retry.MaxDelay > 0 && delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}
		}
	}
	return lastErr
}
