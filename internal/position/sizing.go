package position

import (
	"math"
)

// DefaultContractMultiplier는 기준 지수 선물 1랏의 수량입니다
const DefaultContractMultiplier = 25

// Plan은 진입가와 손절가로부터 도출된 롱 포지션 계획입니다
type Plan struct {
	EntryPrice      float64 // 진입가
	StopPrice       float64 // 손절가
	RewardRiskRatio float64 // 손익비
	TargetPrice     float64 // 목표가
	RiskDistance    float64 // 손절 거리 (|진입가 - 손절가|)
	RewardDistance  float64 // 목표 거리 (손절 거리 × 손익비)
}

// NewPlan은 고정 손익비로 목표가를 계산합니다.
// 현재는 롱 포지션만 지원하므로 목표가는 항상 진입가 위에 위치합니다.
func NewPlan(entryPrice, stopPrice, ratio float64) (Plan, error) {
	if !validPrice(entryPrice) || math.IsNaN(stopPrice) || math.IsInf(stopPrice, 0) {
		return Plan{}, ErrInvalidPrice
	}
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return Plan{}, ErrInvalidRatio
	}

	risk := math.Abs(entryPrice - stopPrice)
	reward := risk * ratio

	return Plan{
		EntryPrice:      entryPrice,
		StopPrice:       stopPrice,
		RewardRiskRatio: ratio,
		TargetPrice:     entryPrice + reward,
		RiskDistance:    risk,
		RewardDistance:  reward,
	}, nil
}

// Size는 랏 수와 계약 승수로 정의되는 포지션 크기입니다
type Size struct {
	Lots               int // 랏 수
	ContractMultiplier int // 1랏당 수량
}

// NewSize는 검증된 포지션 크기를 생성합니다
func NewSize(lots, multiplier int) (Size, error) {
	s := Size{Lots: lots, ContractMultiplier: multiplier}
	if err := s.Validate(); err != nil {
		return Size{}, err
	}
	return s, nil
}

// Validate는 랏 수와 계약 승수가 양수인지 확인합니다
func (s Size) Validate() error {
	if s.Lots <= 0 {
		return ErrInvalidLots
	}
	if s.ContractMultiplier <= 0 {
		return ErrInvalidMultiplier
	}
	return nil
}

// Quantity는 실제 거래 수량 (랏 × 승수)을 반환합니다
func (s Size) Quantity() float64 {
	return float64(s.Lots) * float64(s.ContractMultiplier)
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}
