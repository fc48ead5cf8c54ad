package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput은 OHLC 값이 정상 범위를 벗어난 경우 반환됩니다
var ErrInvalidInput = errors.New("유효하지 않은 입력")

// Candle은 캔들 데이터를 표현합니다
type Candle struct {
	Time         time.Time // 캔들 시작 시간
	Open         float64   // 시가
	High         float64   // 고가
	Low          float64   // 저가
	Close        float64   // 종가
	Volume       float64   // 거래량
	OpenInterest float64   // 미결제약정
}

// Range는 고가와 저가의 차이를 반환합니다
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// IsBullish는 양봉 여부를 반환합니다
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish는 음봉 여부를 반환합니다
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Validate는 캔들 가격이 유한하고 고가가 저가 이상인지 확인합니다
func (c Candle) Validate() error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: 유한하지 않은 가격 %v", ErrInvalidInput, v)
		}
	}
	if c.High < c.Low {
		return fmt.Errorf("%w: 고가(%.2f)가 저가(%.2f)보다 낮습니다", ErrInvalidInput, c.High, c.Low)
	}
	return nil
}

// CandleError는 시리즈 내 특정 캔들의 검증 실패를 나타냅니다
type CandleError struct {
	Index int
	Time  time.Time
	Err   error
}

func (e *CandleError) Error() string {
	return fmt.Sprintf("캔들[%d] %s: %v", e.Index, e.Time.Format("2006-01-02 15:04:05"), e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *CandleError) Unwrap() error {
	return e.Err
}

// CandleList는 시간 오름차순으로 정렬된 캔들 목록입니다
type CandleList []Candle

// Validate는 모든 캔들을 검증하고 첫 번째 실패를 CandleError로 반환합니다
func (cl CandleList) Validate() error {
	for i, c := range cl {
		if err := c.Validate(); err != nil {
			return &CandleError{Index: i, Time: c.Time, Err: err}
		}
	}
	return nil
}

// GetLastCandle은 가장 최근 캔들을 반환합니다
func (cl CandleList) GetLastCandle() (Candle, bool) {
	if len(cl) == 0 {
		return Candle{}, false
	}
	return cl[len(cl)-1], true
}

// After는 주어진 시간 이후(초과)의 캔들만 담은 부분 리스트를 반환합니다.
// 리스트가 정렬되어 있다는 전제하에 이진 탐색으로 시작 위치를 찾으며 복사하지 않습니다.
func (cl CandleList) After(t time.Time) CandleList {
	lo, hi := 0, len(cl)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if cl[mid].Time.After(t) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return cl[lo:]
}

// Closes는 종가 배열을 반환합니다
func (cl CandleList) Closes() []float64 {
	closes := make([]float64, len(cl))
	for i, c := range cl {
		closes[i] = c.Close
	}
	return closes
}
