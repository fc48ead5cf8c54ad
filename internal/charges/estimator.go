package charges

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/assist-by/pinbar/internal/position"
)

// Schedule은 왕복 거래(진입+청산) 기준 비용 요율표입니다
type Schedule struct {
	FixedFee          float64 // 왕복 고정 수수료 (주문 2건)
	SellTaxRate       float64 // 매도 대금 기준 거래세율
	ExchangeFeeRate   float64 // 거래 대금 기준 거래소 수수료율
	VATRate           float64 // (고정 수수료 + 거래소 수수료) 기준 부가세율
	RegulatoryFeeRate float64 // 거래 대금 기준 감독 수수료율
	StampDutyRate     float64 // 매수 대금 기준 인지세율
}

// DefaultSchedule은 지수 선물 기준 기본 요율표를 반환합니다
func DefaultSchedule() Schedule {
	return Schedule{
		FixedFee:          40,
		SellTaxRate:       0.000125,
		ExchangeFeeRate:   0.00002,
		VATRate:           0.18,
		RegulatoryFeeRate: 0.000001,
		StampDutyRate:     0.00003,
	}
}

// Validate는 요율이 음수가 아닌지 확인합니다
func (s Schedule) Validate() error {
	rates := []struct {
		name  string
		value float64
	}{
		{"fixed fee", s.FixedFee},
		{"sell tax", s.SellTaxRate},
		{"exchange fee", s.ExchangeFeeRate},
		{"vat", s.VATRate},
		{"regulatory fee", s.RegulatoryFeeRate},
		{"stamp duty", s.StampDutyRate},
	}
	for _, r := range rates {
		if r.value < 0 {
			return fmt.Errorf("%s 요율은 0 이상이어야 합니다: %v", r.name, r.value)
		}
	}
	return nil
}

// Breakdown은 비용 항목별 내역입니다. 모든 값은 소수점 둘째 자리로 반올림되어 있습니다.
type Breakdown struct {
	Total         float64 `json:"total"`
	FixedFee      float64 `json:"fixedFee"`
	SellTax       float64 `json:"sellTax"`
	ExchangeFee   float64 `json:"exchangeFee"`
	VAT           float64 `json:"vat"`
	RegulatoryFee float64 `json:"regulatoryFee"`
	StampDuty     float64 `json:"stampDuty"`
}

// Estimator는 진입가/청산가/랏 수로 왕복 거래 비용을 추정합니다
type Estimator struct {
	schedule   Schedule
	multiplier int
}

// NewEstimator는 요율표와 계약 승수로 추정기를 생성합니다
func NewEstimator(schedule Schedule, contractMultiplier int) (*Estimator, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if contractMultiplier <= 0 {
		return nil, position.ErrInvalidMultiplier
	}
	return &Estimator{schedule: schedule, multiplier: contractMultiplier}, nil
}

// Schedule은 요율표를 반환합니다
func (e *Estimator) Schedule() Schedule {
	return e.schedule
}

// Estimate는 비용 내역을 계산합니다.
// 내부 계산은 전체 정밀도로 수행하고 마지막에 항목별로 반올림합니다.
func (e *Estimator) Estimate(entryPrice, exitPrice float64, lots int) (Breakdown, error) {
	size, err := position.NewSize(lots, e.multiplier)
	if err != nil {
		return Breakdown{}, err
	}

	qty := size.Quantity()
	entryValue := entryPrice * qty
	exitValue := exitPrice * qty
	turnover := entryValue + exitValue

	s := e.schedule
	fixed := s.FixedFee
	sellTax := exitValue * s.SellTaxRate
	exchange := turnover * s.ExchangeFeeRate
	vat := (fixed + exchange) * s.VATRate
	regulatory := turnover * s.RegulatoryFeeRate
	stamp := entryValue * s.StampDutyRate

	total := fixed + sellTax + exchange + vat + regulatory + stamp

	return Breakdown{
		Total:         Round2(total),
		FixedFee:      Round2(fixed),
		SellTax:       Round2(sellTax),
		ExchangeFee:   Round2(exchange),
		VAT:           Round2(vat),
		RegulatoryFee: Round2(regulatory),
		StampDuty:     Round2(stamp),
	}, nil
}

// Round2는 금액을 소수점 둘째 자리로 반올림합니다.
// 최단 십진 표현이 아닌 float64의 실제 이진 값을 기준으로 하므로
// 2.675(실제 2.67499...)는 2.67이 됩니다.
func Round2(v float64) float64 {
	return decimal.NewFromFloatWithExponent(v, -2).InexactFloat64()
}
