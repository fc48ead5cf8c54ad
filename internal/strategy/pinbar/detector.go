package pinbar

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/indicator"
	"github.com/assist-by/pinbar/internal/strategy"
	"github.com/assist-by/pinbar/internal/trading"
)

// Name은 레지스트리에 등록되는 전략 이름입니다
const Name = "PinBar"

// Conditions는 한 쌍의 캔들(직전, 현재)에 대한 개별 조건 평가 결과입니다
type Conditions struct {
	PrevBearish  bool    // 직전 캔들 음봉
	CurrBullish  bool    // 현재 캔들 양봉
	PinBar       bool    // 핀바 형태
	InWindow     bool    // 매매 시간대 (필터 비활성 시 true)
	AboveTrend   bool    // 종가 > EMA (필터 비활성 시 true)
	EMAValue     float64 // 현재 인덱스의 EMA 값 (필터 비활성 시 0)
	LowerWickPct float64 // 아랫꼬리 비율
}

// Qualifies는 모든 조건을 만족하는지 확인합니다
func (c Conditions) Qualifies() bool {
	return c.PrevBearish && c.CurrBullish && c.PinBar && c.InWindow && c.AboveTrend
}

// Detector는 직전 음봉 뒤에 나타나는 강세 핀바를 감지합니다
type Detector struct {
	strategy.BaseStrategy
	cfg    strategy.Config
	logger *zap.Logger

	lastEntries map[string]time.Time // 종목별 마지막으로 발행한 진입 시간
	mu          sync.RWMutex
}

// NewDetector는 새로운 핀바 감지기를 생성합니다
func NewDetector(cfg strategy.Config, logger *zap.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("핀바 설정 검증 실패: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		BaseStrategy: strategy.BaseStrategy{
			Name:        Name,
			Description: "직전 음봉 이후 긴 아랫꼬리 강세 핀바 (시간대/EMA 추세 필터 선택)",
		},
		cfg:         cfg,
		logger:      logger.Named("pinbar"),
		lastEntries: make(map[string]time.Time),
	}, nil
}

// NewStrategy는 레지스트리용 팩토리입니다
func NewStrategy(cfg strategy.Config, logger *zap.Logger) (strategy.Strategy, error) {
	return NewDetector(cfg, logger)
}

// RegisterStrategy는 핀바 전략을 레지스트리에 등록합니다
func RegisterStrategy(registry *strategy.Registry) {
	registry.Register(Name, NewStrategy)
}

// Config는 감지기 설정을 반환합니다
func (d *Detector) Config() strategy.Config {
	return d.cfg
}

// Evaluate는 직전/현재 캔들 쌍의 조건을 평가합니다.
// ema는 현재 캔들 인덱스의 EMA 값이며 추세 필터가 꺼져 있으면 무시됩니다.
func (d *Detector) Evaluate(prev, curr domain.Candle, ema float64) Conditions {
	cond := Conditions{
		PrevBearish: prev.IsBearish(),
		CurrBullish: curr.IsBullish(),
		PinBar:      IsPinBar(curr),
		InWindow:    true,
		AboveTrend:  true,
	}
	if g, ok := Measure(curr); ok {
		cond.LowerWickPct = g.LowerWickPct
	}
	if d.cfg.UseTimeFilter {
		cond.InWindow = domain.InAnyWindow(d.localTime(curr.Time), d.cfg.TradingWindows)
	}
	if d.cfg.UseTrendFilter {
		cond.EMAValue = ema
		cond.AboveTrend = curr.Close > ema
	}
	return cond
}

// Detect는 시리즈의 모든 인접 캔들 쌍을 평가해 매매 후보를 반환합니다.
// 시리즈는 시간 오름차순으로 정렬되고 중복이 제거되어 있어야 합니다.
func (d *Detector) Detect(candles domain.CandleList, instrument string) ([]trading.Trade, error) {
	if err := candles.Validate(); err != nil {
		return nil, fmt.Errorf("%s 캔들 검증 실패: %w", instrument, err)
	}
	if len(candles) < 2 {
		return []trading.Trade{}, nil
	}

	emas, err := d.trendValues(candles)
	if err != nil {
		return nil, err
	}

	trades := make([]trading.Trade, 0)
	for i := 1; i < len(candles); i++ {
		cond := d.Evaluate(candles[i-1], candles[i], emas[i])
		if !cond.Qualifies() {
			continue
		}
		trade, err := d.newTrade(instrument, candles[i])
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	d.logger.Debug("핀바 감지 완료",
		zap.String("instrument", instrument),
		zap.Int("candles", len(candles)),
		zap.Int("signals", len(trades)),
	)
	return trades, nil
}

// DetectLatest는 마지막으로 마감된 캔들(인덱스 -2)만 평가합니다.
// 마지막 캔들은 형성 중으로 보고 사용하지 않으며, 같은 종목에서
// 이미 발행한 진입 시간은 다시 반환하지 않습니다.
func (d *Detector) DetectLatest(candles domain.CandleList, instrument string) (*trading.Trade, error) {
	if len(candles) < 3 {
		return nil, nil
	}
	closed := candles[:len(candles)-1]
	if err := closed.Validate(); err != nil {
		return nil, fmt.Errorf("%s 캔들 검증 실패: %w", instrument, err)
	}

	emas, err := d.trendValues(closed)
	if err != nil {
		return nil, err
	}

	i := len(closed) - 1
	curr := closed[i]
	cond := d.Evaluate(closed[i-1], curr, emas[i])
	if !cond.Qualifies() {
		return nil, nil
	}

	if !d.markEmitted(instrument, curr.Time) {
		d.logger.Debug("중복 시그널 무시",
			zap.String("instrument", instrument),
			zap.Time("entryTime", curr.Time),
		)
		return nil, nil
	}

	trade, err := d.newTrade(instrument, curr)
	if err != nil {
		return nil, err
	}
	d.logger.Info("핀바 시그널 발생",
		zap.String("instrument", instrument),
		zap.Time("entryTime", trade.EntryTime),
		zap.Float64("entry", trade.EntryPrice),
		zap.Float64("stop", trade.StopPrice),
		zap.Float64("target", trade.TargetPrice),
		zap.Float64("lowerWickPct", cond.LowerWickPct),
	)
	return &trade, nil
}

// ResetInstrument는 종목의 중복 방지 상태를 초기화합니다
func (d *Detector) ResetInstrument(instrument string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.lastEntries, instrument)
}

// LastEntry는 종목에서 마지막으로 발행한 진입 시간을 반환합니다
func (d *Detector) LastEntry(instrument string) (time.Time, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.lastEntries[instrument]
	return t, ok
}

// markEmitted는 새로운 진입 시간이면 기록하고 true를 반환합니다
func (d *Detector) markEmitted(instrument string, entryTime time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lastEntries[instrument]; ok && last.Equal(entryTime) {
		return false
	}
	d.lastEntries[instrument] = entryTime
	return true
}

func (d *Detector) newTrade(instrument string, curr domain.Candle) (trading.Trade, error) {
	stop := curr.Low - d.cfg.StopBuffer
	return trading.NewTrade(instrument, curr.Time, curr.Close, stop, d.cfg.RewardRiskRatio)
}

// trendValues는 추세 필터용 EMA를 계산합니다. 필터가 꺼져 있으면 0으로 채운 슬라이스를 반환합니다.
func (d *Detector) trendValues(candles domain.CandleList) ([]float64, error) {
	if !d.cfg.UseTrendFilter {
		return make([]float64, len(candles)), nil
	}
	values, err := indicator.NewEMA(d.cfg.TrendSpan).Values(candles)
	if err != nil {
		return nil, fmt.Errorf("EMA 계산 실패: %w", err)
	}
	return values, nil
}

func (d *Detector) localTime(t time.Time) time.Time {
	if d.cfg.Location != nil {
		return t.In(d.cfg.Location)
	}
	return t
}
