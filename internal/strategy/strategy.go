package strategy

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/assist-by/pinbar/internal/domain"
	"github.com/assist-by/pinbar/internal/trading"
)

// Strategy는 캔들 시리즈에서 매매 후보를 찾는 전략의 인터페이스를 정의합니다
type Strategy interface {
	// Detect는 시리즈 전체를 훑어 조건을 만족하는 모든 매매 후보를 반환합니다
	Detect(candles domain.CandleList, instrument string) ([]trading.Trade, error)

	// DetectLatest는 마지막으로 마감된 캔들만 평가합니다 (마지막 캔들은 형성 중으로 간주)
	DetectLatest(candles domain.CandleList, instrument string) (*trading.Trade, error)

	// GetName은 전략의 이름을 반환합니다
	GetName() string

	// GetDescription은 전략의 설명을 반환합니다
	GetDescription() string
}

// BaseStrategy는 모든 전략 구현체에서 공통적으로 사용할 수 있는 기본 구현을 제공합니다
type BaseStrategy struct {
	Name        string
	Description string
}

// GetName은 전략의 이름을 반환합니다
func (b *BaseStrategy) GetName() string {
	return b.Name
}

// GetDescription은 전략의 설명을 반환합니다
func (b *BaseStrategy) GetDescription() string {
	return b.Description
}

// Config는 패턴 감지 전략의 공통 설정입니다
type Config struct {
	RewardRiskRatio float64                // 손익비 (기본값: 3.5)
	StopBuffer      float64                // 시그널 캔들 저가 아래 손절 여유폭 (기본값: 5)
	UseTimeFilter   bool                   // 매매 시간대 필터 사용 여부
	UseTrendFilter  bool                   // EMA 추세 필터 사용 여부
	TrendSpan       int                    // EMA 평활 기간 (기본값: 7)
	TradingWindows  []domain.TradingWindow // 매매 허용 시간대
	Location        *time.Location         // 시간대 필터 기준 거래소 시간대 (nil이면 캔들 시간 그대로)
}

// DefaultConfig는 기본 설정을 반환합니다
func DefaultConfig() Config {
	windows := make([]domain.TradingWindow, len(domain.DefaultTradingWindows))
	copy(windows, domain.DefaultTradingWindows)
	return Config{
		RewardRiskRatio: 3.5,
		StopBuffer:      5.0,
		UseTimeFilter:   true,
		UseTrendFilter:  true,
		TrendSpan:       7,
		TradingWindows:  windows,
	}
}

// Validate는 설정값이 유효한지 확인합니다
func (c Config) Validate() error {
	if !(c.RewardRiskRatio > 0) {
		return fmt.Errorf("손익비는 0보다 커야 합니다: %v", c.RewardRiskRatio)
	}
	if c.StopBuffer < 0 {
		return fmt.Errorf("손절 여유폭은 0 이상이어야 합니다: %v", c.StopBuffer)
	}
	if c.UseTrendFilter && c.TrendSpan <= 0 {
		return fmt.Errorf("EMA 기간은 0보다 커야 합니다: %d", c.TrendSpan)
	}
	for _, w := range c.TradingWindows {
		if err := w.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Factory는 전략 인스턴스를 생성하는 함수 타입입니다
type Factory func(cfg Config, logger *zap.Logger) (Strategy, error)

// Registry는 사용 가능한 모든 전략을 등록하고 관리합니다
type Registry struct {
	strategies map[string]Factory
}

// NewRegistry는 새로운 전략 레지스트리를 생성합니다
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Factory),
	}
}

// Register는 새로운 전략 팩토리를 레지스트리에 등록합니다
func (r *Registry) Register(name string, factory Factory) {
	r.strategies[name] = factory
}

// Create는 주어진 이름과 설정으로 전략 인스턴스를 생성합니다
func (r *Registry) Create(name string, cfg Config, logger *zap.Logger) (Strategy, error) {
	factory, exists := r.strategies[name]
	if !exists {
		return nil, fmt.Errorf("존재하지 않는 전략: %s", name)
	}
	return factory(cfg, logger)
}

// ListStrategies는 사용 가능한 모든 전략 이름을 정렬해서 반환합니다
func (r *Registry) ListStrategies() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
