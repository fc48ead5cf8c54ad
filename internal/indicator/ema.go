package indicator

import (
	"fmt"
	"time"

	"github.com/assist-by/pinbar/internal/domain"
)

// ------------ 결과 -------------------------------------------------------
// EMAResult는 EMA 지표 계산 결과입니다
type EMAResult struct {
	Value     float64
	Timestamp time.Time
}

// GetTimestamp는 결과의 타임스탬프를 반환합니다 (Result 인터페이스 구현)
func (r EMAResult) GetTimestamp() time.Time {
	return r.Timestamp
}

// ------------ 본체 -------------------------------------------------------
// EMA는 종가 기준 지수이동평균 지표를 구현합니다
type EMA struct {
	BaseIndicator
	Span int // 평활 기간 (alpha = 2/(span+1))
}

// NewEMA는 새로운 EMA 지표 인스턴스를 생성합니다
func NewEMA(span int) *EMA {
	return &EMA{
		BaseIndicator: BaseIndicator{Name: fmt.Sprintf("EMA(%d)", span)},
		Span:          span,
	}
}

// Alpha는 가중치 계수를 반환합니다
func (e *EMA) Alpha() float64 {
	return 2.0 / float64(e.Span+1)
}

// Calculate는 주어진 캔들 데이터에 대해 EMA를 계산합니다
func (e *EMA) Calculate(candles domain.CandleList) ([]Result, error) {
	values, err := e.Values(candles)
	if err != nil {
		return nil, err
	}
	results := make([]Result, len(values))
	for i, v := range values {
		results[i] = EMAResult{Value: v, Timestamp: candles[i].Time}
	}
	return results, nil
}

// Values는 캔들별 EMA 값을 계산합니다.
// 첫 종가를 시작값으로 사용하는 비조정(adjust=False) 방식이며 모든 인덱스가 유효합니다.
// 각 값은 해당 인덱스까지의 종가만 사용합니다.
func (e *EMA) Values(candles domain.CandleList) ([]float64, error) {
	if err := e.validateInput(candles); err != nil {
		return nil, err
	}

	state := NewEMAState(e.Span)
	values := make([]float64, len(candles))
	for i, c := range candles {
		values[i] = state.Update(c.Close)
	}
	return values, nil
}

// validateInput은 입력 데이터가 유효한지 검증합니다
func (e *EMA) validateInput(candles domain.CandleList) error {
	if e.Span <= 0 {
		return &ValidationError{Field: "span", Err: fmt.Errorf("span must be > 0")}
	}
	if len(candles) == 0 {
		return &ValidationError{Field: "candles", Err: fmt.Errorf("캔들 데이터가 비어있습니다")}
	}
	return nil
}

// ------------ 증분 계산 ---------------------------------------------------
// EMAState는 실시간 사용을 위한 증분 EMA 누산기입니다.
// 직전 EMA 값과 관측 개수만 유지합니다.
type EMAState struct {
	alpha float64
	Value float64 // 직전 EMA 값
	Count int     // 반영된 종가 개수
}

// NewEMAState는 주어진 기간의 빈 누산기를 생성합니다
func NewEMAState(span int) *EMAState {
	return &EMAState{alpha: 2.0 / float64(span+1)}
}

// Update는 새 종가를 반영한 EMA 값을 반환합니다
func (s *EMAState) Update(close float64) float64 {
	if s.Count == 0 {
		s.Value = close
	} else {
		s.Value = s.alpha*close + (1-s.alpha)*s.Value
	}
	s.Count++
	return s.Value
}
