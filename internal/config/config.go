package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // 시스템 tzdata가 없는 컨테이너용

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/assist-by/pinbar/internal/backtest"
	"github.com/assist-by/pinbar/internal/charges"
	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/position"
	"github.com/assist-by/pinbar/internal/strategy"
)

// TradingWindows는 "HH:MM-HH:MM,HH:MM-HH:MM" 형식의 환경변수를 해석합니다
type TradingWindows []domain.TradingWindow

// Decode는 envconfig.Decoder 인터페이스를 구현합니다
func (w *TradingWindows) Decode(value string) error {
	windows, err := ParseTradingWindows(value)
	if err != nil {
		return err
	}
	*w = windows
	return nil
}

type Config struct {
	// 전략 설정
	Strategy struct {
		Name            string         `envconfig:"STRATEGY" default:"PinBar"`
		RewardRiskRatio float64        `envconfig:"REWARD_RISK_RATIO" default:"3.5"`
		StopBuffer      float64        `envconfig:"STOP_BUFFER" default:"5"`
		UseTimeFilter   bool           `envconfig:"USE_TIME_FILTER" default:"true"`
		UseTrendFilter  bool           `envconfig:"USE_TREND_FILTER" default:"true"`
		TrendSpan       int            `envconfig:"TREND_SPAN" default:"7"`
		TradingWindows  TradingWindows `envconfig:"TRADING_WINDOWS" default:"11:00-12:30,13:30-15:30"`
		TieBreak        string         `envconfig:"TIE_BREAK" default:"target"`
	}

	// 포지션 설정
	Position struct {
		Lots               int `envconfig:"LOTS" default:"1"`
		ContractMultiplier int `envconfig:"CONTRACT_MULTIPLIER" default:"25"`
	}

	// 거래 비용 설정
	Charges struct {
		FixedFee          float64 `envconfig:"FIXED_FEE" default:"40"`
		SellTaxRate       float64 `envconfig:"SELL_TAX_RATE" default:"0.000125"`
		ExchangeFeeRate   float64 `envconfig:"EXCHANGE_FEE_RATE" default:"0.00002"`
		VATRate           float64 `envconfig:"VAT_RATE" default:"0.18"`
		RegulatoryFeeRate float64 `envconfig:"REGULATORY_FEE_RATE" default:"0.000001"`
		StampDutyRate     float64 `envconfig:"STAMP_DUTY_RATE" default:"0.00003"`
	}

	// 데이터 설정
	Data struct {
		Instrument     string        `envconfig:"INSTRUMENT" default:"NIFTY"`
		CandleCSV      string        `envconfig:"CANDLE_CSV"`
		DatabaseURL    string        `envconfig:"DATABASE_URL"`
		MarketTimezone string        `envconfig:"MARKET_TIMEZONE" default:"Asia/Kolkata"`
		CandleInterval time.Duration `envconfig:"CANDLE_INTERVAL" default:"5m"`
		Resample       bool          `envconfig:"RESAMPLE" default:"false"` // 원본 캔들을 CANDLE_INTERVAL로 합침
	}

	// 애플리케이션 설정
	App struct {
		LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
		Workers         int           `envconfig:"WORKERS" default:"4"`
		FetchInterval   time.Duration `envconfig:"FETCH_INTERVAL" default:"5m"`
		SweepRatios     []float64     `envconfig:"SWEEP_RATIOS"`
		JournalOutcomes bool          `envconfig:"JOURNAL_OUTCOMES" default:"false"`
	}

	// 디스코드 웹훅 설정 (비어 있으면 알림 비활성)
	Discord struct {
		SignalWebhook string `envconfig:"DISCORD_SIGNAL_WEBHOOK"`
		InfoWebhook   string `envconfig:"DISCORD_INFO_WEBHOOK"`
		ErrorWebhook  string `envconfig:"DISCORD_ERROR_WEBHOOK"`
	}
}

// ParseTradingWindows는 쉼표로 구분된 "HH:MM-HH:MM" 목록을 해석합니다.
// 빈 문자열은 빈 목록입니다.
func ParseTradingWindows(value string) ([]domain.TradingWindow, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return []domain.TradingWindow{}, nil
	}

	parts := strings.Split(value, ",")
	windows := make([]domain.TradingWindow, 0, len(parts))
	for _, part := range parts {
		start, end, ok := strings.Cut(strings.TrimSpace(part), "-")
		if !ok {
			return nil, fmt.Errorf("시간 구간 형식 오류: %q", part)
		}
		sh, sm, err := parseClock(start)
		if err != nil {
			return nil, err
		}
		eh, em, err := parseClock(end)
		if err != nil {
			return nil, err
		}
		w := domain.TradingWindow{StartHour: sh, StartMinute: sm, EndHour: eh, EndMinute: em}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func parseClock(s string) (int, int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("시각 형식 오류: %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, 0, fmt.Errorf("시 해석 실패 %q: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, 0, fmt.Errorf("분 해석 실패 %q: %w", s, err)
	}
	return h, m, nil
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if !(cfg.Strategy.RewardRiskRatio > 0) {
		return fmt.Errorf("REWARD_RISK_RATIO는 0보다 커야 합니다")
	}
	if cfg.Strategy.StopBuffer < 0 {
		return fmt.Errorf("STOP_BUFFER는 0 이상이어야 합니다")
	}
	if cfg.Strategy.TrendSpan <= 0 {
		return fmt.Errorf("TREND_SPAN은 0보다 커야 합니다")
	}
	if _, err := cfg.TieBreak(); err != nil {
		return err
	}
	for _, w := range cfg.Strategy.TradingWindows {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("TRADING_WINDOWS 오류: %w", err)
		}
	}

	if _, err := position.NewSize(cfg.Position.Lots, cfg.Position.ContractMultiplier); err != nil {
		return fmt.Errorf("포지션 설정 오류: %w", err)
	}
	if err := cfg.ChargeSchedule().Validate(); err != nil {
		return fmt.Errorf("비용 설정 오류: %w", err)
	}

	if strings.TrimSpace(cfg.Data.Instrument) == "" {
		return fmt.Errorf("INSTRUMENT는 비어 있을 수 없습니다")
	}
	if _, err := time.LoadLocation(cfg.Data.MarketTimezone); err != nil {
		return fmt.Errorf("MARKET_TIMEZONE 해석 실패: %w", err)
	}
	if cfg.Data.Resample && cfg.Data.CandleInterval <= 0 {
		return fmt.Errorf("RESAMPLE 사용 시 CANDLE_INTERVAL은 0보다 커야 합니다")
	}

	if cfg.App.Workers < 1 {
		return fmt.Errorf("WORKERS는 1 이상이어야 합니다")
	}
	if cfg.App.FetchInterval < 1*time.Minute {
		return fmt.Errorf("FETCH_INTERVAL은 1분 이상이어야 합니다")
	}
	for _, r := range cfg.App.SweepRatios {
		if !(r > 0) {
			return fmt.Errorf("SWEEP_RATIOS 값은 0보다 커야 합니다: %v", r)
		}
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// .env 파일은 있으면 읽고 없으면 무시합니다.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}

// Location은 거래소 시간대를 반환합니다
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Data.MarketTimezone)
}

// DetectorConfig는 전략 설정을 생성합니다
func (c *Config) DetectorConfig() (strategy.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return strategy.Config{}, fmt.Errorf("거래소 시간대 로드 실패: %w", err)
	}
	windows := make([]domain.TradingWindow, len(c.Strategy.TradingWindows))
	copy(windows, c.Strategy.TradingWindows)

	return strategy.Config{
		RewardRiskRatio: c.Strategy.RewardRiskRatio,
		StopBuffer:      c.Strategy.StopBuffer,
		UseTimeFilter:   c.Strategy.UseTimeFilter,
		UseTrendFilter:  c.Strategy.UseTrendFilter,
		TrendSpan:       c.Strategy.TrendSpan,
		TradingWindows:  windows,
		Location:        loc,
	}, nil
}

// PositionSize는 포지션 크기를 생성합니다
func (c *Config) PositionSize() (position.Size, error) {
	return position.NewSize(c.Position.Lots, c.Position.ContractMultiplier)
}

// ChargeSchedule은 비용 요율표를 생성합니다
func (c *Config) ChargeSchedule() charges.Schedule {
	return charges.Schedule{
		FixedFee:          c.Charges.FixedFee,
		SellTaxRate:       c.Charges.SellTaxRate,
		ExchangeFeeRate:   c.Charges.ExchangeFeeRate,
		VATRate:           c.Charges.VATRate,
		RegulatoryFeeRate: c.Charges.RegulatoryFeeRate,
		StampDutyRate:     c.Charges.StampDutyRate,
	}
}

// TieBreak는 동시 도달 정책을 해석합니다 ("target" 또는 "stop")
func (c *Config) TieBreak() (backtest.TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(c.Strategy.TieBreak)) {
	case "", "target":
		return backtest.TargetFirst, nil
	case "stop":
		return backtest.StopFirst, nil
	default:
		return 0, fmt.Errorf("TIE_BREAK는 target 또는 stop이어야 합니다: %q", c.Strategy.TieBreak)
	}
}
