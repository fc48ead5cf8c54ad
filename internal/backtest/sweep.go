package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/strategy"
)

// StrategyFactory는 설정으로 전략을 생성하는 함수입니다
type StrategyFactory func(cfg strategy.Config) (strategy.Strategy, error)

// SweepResult는 손익비 하나에 대한 감지+백테스트 결과입니다
type SweepResult struct {
	RewardRiskRatio float64
	Trades          int
	Summary         Summary
}

// SweepRatios는 손익비를 바꿔가며 감지와 백테스트를 반복합니다.
// 손익비별로 독립적인 전략 인스턴스를 만들며 결과는 ratios 순서를 따릅니다.
func SweepRatios(
	ctx context.Context,
	factory StrategyFactory,
	base strategy.Config,
	engine *Engine,
	series map[string]domain.CandleList,
	instrument string,
	ratios []float64,
	workers int,
) ([]SweepResult, error) {
	candles, ok := series[instrument]
	if !ok {
		return nil, fmt.Errorf("%s 캔들 데이터가 없습니다", instrument)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]SweepResult, len(ratios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, ratio := range ratios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cfg := base
			cfg.RewardRiskRatio = ratio
			s, err := factory(cfg)
			if err != nil {
				return fmt.Errorf("손익비 %.2f 전략 생성 실패: %w", ratio, err)
			}

			trades, err := s.Detect(candles, instrument)
			if err != nil {
				return fmt.Errorf("손익비 %.2f 감지 실패: %w", ratio, err)
			}

			outcomes, err := engine.Run(trades, series)
			if err != nil {
				return fmt.Errorf("손익비 %.2f 백테스트 실패: %w", ratio, err)
			}

			results[i] = SweepResult{
				RewardRiskRatio: ratio,
				Trades:          len(trades),
				Summary:         Summarize(outcomes),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
