package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Summarize는 결과 묶음의 통계를 계산합니다.
// 승률과 손익은 청산 거래(목표가/손절가)만 대상으로 합니다.
// 손실 거래가 없으면 프로핏 팩터는 이익이 있을 때 +Inf, 없을 때 0입니다.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{TotalTrades: len(outcomes)}

	// 연속 승/패 계산 변수
	currentWins := 0
	currentLosses := 0
	var totalHolding time.Duration

	for _, o := range outcomes {
		switch o.Status {
		case HitTarget:
			s.Wins++
			currentWins++
			currentLosses = 0
			if currentWins > s.MaxConsecutiveWins {
				s.MaxConsecutiveWins = currentWins
			}
		case HitStop:
			s.Losses++
			currentLosses++
			currentWins = 0
			if currentLosses > s.MaxConsecutiveLosses {
				s.MaxConsecutiveLosses = currentLosses
			}
		case OpenAtEnd:
			s.OpenAtEnd++
			s.UnrealizedPnL += o.RealizedPnL
			continue
		case NoData:
			s.NoData++
			continue
		case NoFutureData:
			s.NoFutureData++
			continue
		}

		s.GrossPnL += o.RealizedPnL
		totalHolding += o.HoldingTime()
		if o.RealizedPnL > 0 {
			s.GrossProfit += o.RealizedPnL
		} else if o.RealizedPnL < 0 {
			s.GrossLoss += o.RealizedPnL
		}
	}

	closed := s.Closed()
	if closed > 0 {
		s.WinRate = float64(s.Wins) / float64(closed) * 100
		s.AvgPnL = s.GrossPnL / float64(closed)
		s.AvgHoldingTime = totalHolding / time.Duration(closed)
	}
	if s.Wins > 0 {
		s.AvgWin = s.GrossProfit / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.Losses)
	}

	switch {
	case s.GrossLoss < 0:
		s.ProfitFactor = s.GrossProfit / math.Abs(s.GrossLoss)
	case s.GrossProfit > 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = 0
	}

	return s
}

// TimeSlotStats는 청산 거래를 진입 시간대별로 묶어 성과를 계산합니다.
// slot은 하루를 나누는 간격(예: 30분, 1시간)이며 loc이 nil이면 진입 시간 그대로 사용합니다.
// 결과는 시간대 오름차순입니다.
func TimeSlotStats(outcomes []Outcome, slot time.Duration, loc *time.Location) ([]TimePerformance, error) {
	if slot < time.Minute || (24*time.Hour)%slot != 0 {
		return nil, fmt.Errorf("유효하지 않은 시간대 간격: %s", slot)
	}
	slotMinutes := int(slot / time.Minute)

	buckets := make(map[int]*TimePerformance)
	for _, o := range outcomes {
		if !o.Status.IsClosed() {
			continue
		}

		entry := o.Trade.EntryTime
		if loc != nil {
			entry = entry.In(loc)
		}
		minutes := entry.Hour()*60 + entry.Minute()
		key := minutes / slotMinutes * slotMinutes

		tp, ok := buckets[key]
		if !ok {
			tp = &TimePerformance{Slot: fmt.Sprintf("%02d:%02d", key/60, key%60)}
			buckets[key] = tp
		}
		tp.Total++
		tp.TotalPnL += o.RealizedPnL
		if o.Status == HitTarget {
			tp.Wins++
		} else {
			tp.Losses++
		}
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	result := make([]TimePerformance, 0, len(keys))
	for _, k := range keys {
		tp := buckets[k]
		tp.WinRate = float64(tp.Wins) / float64(tp.Total) * 100
		tp.AvgPnL = tp.TotalPnL / float64(tp.Total)
		result = append(result, *tp)
	}
	return result, nil
}

// BestSlot은 평균 손익이 가장 높은 시간대를 반환합니다
func BestSlot(stats []TimePerformance) (TimePerformance, bool) {
	if len(stats) == 0 {
		return TimePerformance{}, false
	}
	best := stats[0]
	for _, s := range stats[1:] {
		if s.AvgPnL > best.AvgPnL {
			best = s
		}
	}
	return best, true
}
