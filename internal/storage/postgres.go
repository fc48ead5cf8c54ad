package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assist-by/pinbar/internal/backtest"
	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/market"
	"github.com/assist-by/pinbar/internal/position"
	"github.com/assist-by/pinbar/internal/trading"
)

// Repository는 캔들 저장소와 백테스트 결과 기록을 정의합니다
type Repository interface {
	market.Source
	SaveCandles(ctx context.Context, instrument string, candles domain.CandleList) (int64, error)
	SaveOutcomes(ctx context.Context, runID string, outcomes []backtest.Outcome) (int64, error)
	LoadOutcomes(ctx context.Context, runID string) ([]backtest.Outcome, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS candles (
	instrument    VARCHAR(32)      NOT NULL,
	ts            TIMESTAMPTZ      NOT NULL,
	open          DOUBLE PRECISION NOT NULL,
	high          DOUBLE PRECISION NOT NULL,
	low           DOUBLE PRECISION NOT NULL,
	close         DOUBLE PRECISION NOT NULL,
	volume        DOUBLE PRECISION NOT NULL DEFAULT 0,
	open_interest DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (instrument, ts)
);

CREATE TABLE IF NOT EXISTS backtest_outcomes (
	run_id       VARCHAR(80)      NOT NULL,
	seq          INTEGER          NOT NULL,
	instrument   VARCHAR(32)      NOT NULL,
	entry_time   TIMESTAMPTZ      NOT NULL,
	entry_price  DOUBLE PRECISION NOT NULL,
	stop_price   DOUBLE PRECISION NOT NULL,
	target_price DOUBLE PRECISION NOT NULL,
	reward_risk  DOUBLE PRECISION NOT NULL,
	exit_time    TIMESTAMPTZ,
	exit_price   DOUBLE PRECISION NOT NULL,
	status       VARCHAR(16)      NOT NULL,
	pnl          DOUBLE PRECISION NOT NULL,
	recorded_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, seq)
);`

// PostgresStore는 PostgreSQL 기반 저장소입니다
type PostgresStore struct {
	Pool     *pgxpool.Pool
	Location *time.Location // 조회한 시간을 변환할 시간대 (nil이면 UTC)
}

var _ Repository = (*PostgresStore)(nil)

// NewPostgresStore는 DSN으로 연결 풀을 만들고 연결을 확인합니다
func NewPostgresStore(ctx context.Context, dsn string, loc *time.Location) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("데이터베이스 연결 풀 생성 실패: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("데이터베이스 연결 확인 실패: %w", err)
	}
	return &PostgresStore{Pool: pool, Location: loc}, nil
}

// Close는 연결 풀을 닫습니다
func (s *PostgresStore) Close() {
	s.Pool.Close()
}

// Migrate는 필요한 테이블을 생성합니다
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("스키마 생성 실패: %w", err)
	}
	return nil
}

// SaveCandles는 캔들을 저장하고 새로 추가된 행 수를 반환합니다.
// 이미 저장된 시간의 캔들은 덮어쓰지 않습니다.
func (s *PostgresStore) SaveCandles(ctx context.Context, instrument string, candles domain.CandleList) (int64, error) {
	if len(candles) == 0 {
		return 0, nil
	}
	if err := candles.Validate(); err != nil {
		return 0, fmt.Errorf("%s 캔들 검증 실패: %w", instrument, err)
	}

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(`
			INSERT INTO candles (instrument, ts, open, high, low, close, volume, open_interest)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (instrument, ts) DO NOTHING`,
			instrument, c.Time, c.Open, c.High, c.Low, c.Close, c.Volume, c.OpenInterest)
	}

	br := s.Pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for i := range candles {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("캔들[%d] 저장 실패: %w", i, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// Load는 market.Source를 구현합니다. 저장된 캔들이 없으면 ErrUnknownInstrument를 반환합니다.
func (s *PostgresStore) Load(ctx context.Context, instrument string) (domain.CandleList, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT ts, open, high, low, close, volume, open_interest
		FROM candles
		WHERE instrument = $1
		ORDER BY ts ASC`, instrument)
	if err != nil {
		return nil, fmt.Errorf("캔들 조회 실패: %w", err)
	}

	candles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Candle, error) {
		var c domain.Candle
		err := row.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.OpenInterest)
		c.Time = c.Time.In(s.location())
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("캔들 읽기 실패: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s", market.ErrUnknownInstrument, instrument)
	}
	return candles, nil
}

// NewRunID는 종목 접두사를 붙인 고유 실행 ID를 만듭니다
func NewRunID(instrument string) string {
	return fmt.Sprintf("%s-%s", instrument, uuid.New().String())
}

// SaveOutcomes는 백테스트 결과를 실행 ID와 함께 기록합니다
func (s *PostgresStore) SaveOutcomes(ctx context.Context, runID string, outcomes []backtest.Outcome) (int64, error) {
	if runID == "" {
		return 0, errors.New("실행 ID가 비어 있습니다")
	}
	if len(outcomes) == 0 {
		return 0, nil
	}

	columns := []string{
		"run_id", "seq", "instrument", "entry_time", "entry_price", "stop_price",
		"target_price", "reward_risk", "exit_time", "exit_price", "status", "pnl",
	}
	n, err := s.Pool.CopyFrom(ctx, pgx.Identifier{"backtest_outcomes"}, columns,
		pgx.CopyFromSlice(len(outcomes), func(i int) ([]any, error) {
			o := outcomes[i]
			var exit *time.Time
			if o.HasExit {
				exit = &o.ExitTime
			}
			return []any{
				runID, i, o.Trade.Instrument, o.Trade.EntryTime, o.Trade.EntryPrice, o.Trade.StopPrice,
				o.Trade.TargetPrice, o.Trade.RewardRiskRatio, exit, o.ExitPrice, o.Status.String(), o.RealizedPnL,
			}, nil
		}))
	if err != nil {
		return n, fmt.Errorf("백테스트 결과 기록 실패: %w", err)
	}
	return n, nil
}

// LoadOutcomes는 실행 ID로 기록된 결과를 기록 순서대로 읽습니다
func (s *PostgresStore) LoadOutcomes(ctx context.Context, runID string) ([]backtest.Outcome, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT instrument, entry_time, entry_price, stop_price, target_price, reward_risk,
		       exit_time, exit_price, status, pnl
		FROM backtest_outcomes
		WHERE run_id = $1
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("백테스트 결과 조회 실패: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (backtest.Outcome, error) {
		var (
			o      backtest.Outcome
			exit   *time.Time
			status string
		)
		if err := row.Scan(&o.Trade.Instrument, &o.Trade.EntryTime, &o.Trade.EntryPrice, &o.Trade.StopPrice,
			&o.Trade.TargetPrice, &o.Trade.RewardRiskRatio, &exit, &o.ExitPrice, &status, &o.RealizedPnL); err != nil {
			return o, err
		}

		loc := s.location()
		o.Trade.EntryTime = o.Trade.EntryTime.In(loc)
		o.Trade.Plan = restorePlan(o.Trade)
		if exit != nil {
			o.HasExit = true
			o.ExitTime = exit.In(loc)
		}

		st, ok := backtest.ParseStatus(status)
		if !ok {
			return o, fmt.Errorf("알 수 없는 상태 값: %s", status)
		}
		o.Status = st
		return o, nil
	})
}

func (s *PostgresStore) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// restorePlan은 저장되지 않은 거리 값을 다시 채웁니다
func restorePlan(t trading.Trade) position.Plan {
	p := t.Plan
	p.RiskDistance = math.Abs(p.EntryPrice - p.StopPrice)
	p.RewardDistance = p.RiskDistance * p.RewardRiskRatio
	return p
}
