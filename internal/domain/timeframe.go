package domain

import (
	"fmt"
	"time"
)

// bucketStart는 t가 속한 interval 구간의 시작 시간을 loc의 자정 기준으로 계산합니다
func bucketStart(t time.Time, interval time.Duration, loc *time.Location) time.Time {
	lt := t.In(loc)
	midnight := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return midnight.Add(lt.Sub(midnight).Truncate(interval))
}

// Resample은 짧은 주기의 캔들(예: 1분봉)을 interval 주기 캔들로 합칩니다.
// 구간은 loc 기준 자정부터 나누며, 입력은 시간 오름차순이어야 합니다.
//   - 시가: 구간 첫 캔들의 시가
//   - 고가/저가: 구간 내 최고가/최저가
//   - 종가: 구간 마지막 캔들의 종가
//   - 거래량: 합계, 미결제약정: 마지막 값
func Resample(candles CandleList, interval time.Duration, loc *time.Location) (CandleList, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: 리샘플 주기는 0보다 커야 합니다 (%s)", ErrInvalidInput, interval)
	}
	if loc == nil {
		loc = time.UTC
	}
	if err := candles.Validate(); err != nil {
		return nil, err
	}

	var (
		result CandleList
		cur    Candle
		start  time.Time
	)
	for i, c := range candles {
		if i > 0 && !c.Time.After(candles[i-1].Time) {
			return nil, &CandleError{Index: i, Time: c.Time, Err: fmt.Errorf("%w: 시간순으로 정렬되어 있지 않습니다", ErrInvalidInput)}
		}

		b := bucketStart(c.Time, interval, loc)
		if i == 0 || !b.Equal(start) {
			if i > 0 {
				result = append(result, cur)
			}
			start = b
			cur = Candle{
				Time:         b,
				Open:         c.Open,
				High:         c.High,
				Low:          c.Low,
				Close:        c.Close,
				Volume:       c.Volume,
				OpenInterest: c.OpenInterest,
			}
			continue
		}

		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
		cur.OpenInterest = c.OpenInterest
	}
	if len(candles) > 0 {
		result = append(result, cur)
	}
	return result, nil
}
