package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/position"
	"github.com/assist-by/pinbar/internal/trading"
)

// Engine은 매매 후보를 이후 캔들에 대해 평가하는 백테스트 엔진입니다.
// 입력 캔들과 후보는 변경하지 않으며 같은 입력에는 항상 같은 결과를 반환합니다.
type Engine struct {
	size     position.Size
	tieBreak TieBreak
	logger   *zap.Logger
}

// Option은 엔진 설정 옵션입니다
type Option func(*Engine)

// WithTieBreak는 목표가/손절가 동시 도달 시 정책을 설정합니다
func WithTieBreak(tb TieBreak) Option {
	return func(e *Engine) {
		e.tieBreak = tb
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine은 포지션 크기로 새 엔진을 생성합니다
func NewEngine(size position.Size, opts ...Option) (*Engine, error) {
	if err := size.Validate(); err != nil {
		return nil, fmt.Errorf("포지션 크기 검증 실패: %w", err)
	}
	e := &Engine{
		size:     size,
		tieBreak: TargetFirst,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("backtest")
	return e, nil
}

// Size는 엔진의 포지션 크기를 반환합니다
func (e *Engine) Size() position.Size {
	return e.size
}

// Run은 모든 후보를 순서대로 평가합니다.
// 결과는 입력 후보와 같은 순서, 같은 개수입니다.
func (e *Engine) Run(trades []trading.Trade, series map[string]domain.CandleList) ([]Outcome, error) {
	if err := validateSeries(series); err != nil {
		return nil, err
	}

	start := time.Now()
	outcomes := make([]Outcome, len(trades))
	for i, t := range trades {
		outcomes[i] = e.Resolve(t, series)
	}

	e.logger.Info("백테스트 완료",
		zap.Int("trades", len(trades)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcomes, nil
}

// RunParallel은 후보를 workers개의 고루틴으로 나누어 평가합니다.
// 캔들 시리즈는 읽기 전용으로 공유되며 결과 순서는 Run과 동일합니다.
func (e *Engine) RunParallel(ctx context.Context, trades []trading.Trade, series map[string]domain.CandleList, workers int) ([]Outcome, error) {
	if workers < 1 {
		workers = 1
	}
	if err := validateSeries(series); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(trades))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range trades {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = e.Resolve(trades[i], series)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("병렬 백테스트 중단: %w", err)
	}

	e.logger.Info("병렬 백테스트 완료",
		zap.Int("trades", len(trades)),
		zap.Int("workers", workers),
	)
	return outcomes, nil
}

// Resolve는 후보 하나를 평가합니다.
// 진입 캔들 이후(초과)의 캔들만 사용하며 가장 먼저 조건을 만족한 캔들에서 청산합니다.
func (e *Engine) Resolve(t trading.Trade, series map[string]domain.CandleList) Outcome {
	candles, ok := series[t.Instrument]
	if !ok {
		return Outcome{Trade: t, Status: NoData}
	}

	future := candles.After(t.EntryTime)
	if len(future) == 0 {
		return Outcome{Trade: t, Status: NoFutureData}
	}

	qty := e.size.Quantity()
	for _, c := range future {
		hitTarget := c.High >= t.TargetPrice
		hitStop := c.Low <= t.StopPrice
		if !hitTarget && !hitStop {
			continue
		}

		if hitTarget && (!hitStop || e.tieBreak == TargetFirst) {
			e.logger.Debug("목표가 도달",
				zap.String("instrument", t.Instrument),
				zap.Time("entryTime", t.EntryTime),
				zap.Time("exitTime", c.Time),
			)
			return Outcome{
				Trade:       t,
				ExitTime:    c.Time,
				HasExit:     true,
				ExitPrice:   t.TargetPrice,
				Status:      HitTarget,
				RealizedPnL: t.RewardDistance * qty,
			}
		}

		e.logger.Debug("손절가 도달",
			zap.String("instrument", t.Instrument),
			zap.Time("entryTime", t.EntryTime),
			zap.Time("exitTime", c.Time),
		)
		return Outcome{
			Trade:       t,
			ExitTime:    c.Time,
			HasExit:     true,
			ExitPrice:   t.StopPrice,
			Status:      HitStop,
			RealizedPnL: -t.RiskDistance * qty,
		}
	}

	last := future[len(future)-1]
	return Outcome{
		Trade:       t,
		ExitTime:    last.Time,
		HasExit:     true,
		ExitPrice:   last.Close,
		Status:      OpenAtEnd,
		RealizedPnL: (last.Close - t.EntryPrice) * qty,
	}
}

func validateSeries(series map[string]domain.CandleList) error {
	for instrument, candles := range series {
		if err := candles.Validate(); err != nil {
			return fmt.Errorf("%s 캔들 검증 실패: %w", instrument, err)
		}
	}
	return nil
}
