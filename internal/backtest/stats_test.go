package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/pinbar/internal/trading"
)

func outcomeAt(entry time.Time, status Status, pnl float64) Outcome {
	o := Outcome{
		Trade:       trading.Trade{Instrument: testInstrument, EntryTime: entry},
		Status:      status,
		RealizedPnL: pnl,
	}
	if status.IsClosed() || status == OpenAtEnd {
		o.HasExit = true
		o.ExitTime = entry.Add(30 * time.Minute)
	}
	return o
}

func TestSummarize(t *testing.T) {
	outcomes := []Outcome{
		outcomeAt(at(0), HitTarget, 375),
		outcomeAt(at(1), HitTarget, 375),
		outcomeAt(at(2), HitStop, -125),
		outcomeAt(at(3), OpenAtEnd, 50),
		outcomeAt(at(4), NoData, 0),
		outcomeAt(at(5), NoFutureData, 0),
	}

	s := Summarize(outcomes)

	assert.Equal(t, 6, s.TotalTrades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 3, s.Closed())
	assert.InDelta(t, 66.6667, s.WinRate, 1e-4)
	assert.Equal(t, 625.0, s.GrossPnL)
	assert.InDelta(t, 208.3333, s.AvgPnL, 1e-4)
	assert.Equal(t, 6.0, s.ProfitFactor)
	assert.Equal(t, 375.0, s.AvgWin)
	assert.Equal(t, -125.0, s.AvgLoss)
	assert.Equal(t, 1, s.OpenAtEnd)
	assert.Equal(t, 50.0, s.UnrealizedPnL)
	assert.Equal(t, 1, s.NoData)
	assert.Equal(t, 1, s.NoFutureData)
	assert.Equal(t, 2, s.MaxConsecutiveWins)
	assert.Equal(t, 1, s.MaxConsecutiveLosses)
	assert.Equal(t, 30*time.Minute, s.AvgHoldingTime)
}

func TestSummarize_ProfitFactorConvention(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []Outcome
		want     float64
	}{
		{name: "빈 결과", outcomes: nil, want: 0},
		{name: "미청산만", outcomes: []Outcome{outcomeAt(at(0), OpenAtEnd, 100)}, want: 0},
		{name: "손실 없음", outcomes: []Outcome{outcomeAt(at(0), HitTarget, 100)}, want: math.Inf(1)},
		{name: "이익 없음", outcomes: []Outcome{outcomeAt(at(0), HitStop, -50)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.outcomes).ProfitFactor)
		})
	}
}

func TestSummarize_EmptyClosed(t *testing.T) {
	s := Summarize([]Outcome{outcomeAt(at(0), NoData, 0)})
	assert.Equal(t, 1, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.AvgPnL)
	assert.Zero(t, s.GrossPnL)
}

func TestSummarize_WinRateBounds(t *testing.T) {
	var outcomes []Outcome
	for i := 0; i < 50; i++ {
		status := HitStop
		pnl := -125.0
		if i%3 == 0 {
			status = HitTarget
			pnl = 375
		}
		outcomes = append(outcomes, outcomeAt(at(i), status, pnl))
		s := Summarize(outcomes)
		assert.GreaterOrEqual(t, s.WinRate, 0.0)
		assert.LessOrEqual(t, s.WinRate, 100.0)
		assert.LessOrEqual(t, s.MaxConsecutiveWins, s.Wins)
		assert.LessOrEqual(t, s.MaxConsecutiveLosses, s.Losses)
	}
}

func TestTimeSlotStats(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	outcomes := []Outcome{
		outcomeAt(day.Add(11*time.Hour+40*time.Minute), HitStop, -125),
		outcomeAt(day.Add(11*time.Hour+5*time.Minute), HitTarget, 375),
		outcomeAt(day.Add(11*time.Hour+25*time.Minute), HitStop, -125),
		outcomeAt(day.Add(11*time.Hour+10*time.Minute), OpenAtEnd, 999), // 제외
		outcomeAt(day.Add(14*time.Hour), HitTarget, 375),
	}

	t.Run("30분 단위", func(t *testing.T) {
		stats, err := TimeSlotStats(outcomes, 30*time.Minute, nil)
		require.NoError(t, err)
		require.Len(t, stats, 3)

		assert.Equal(t, "11:00", stats[0].Slot)
		assert.Equal(t, 2, stats[0].Total)
		assert.Equal(t, 1, stats[0].Wins)
		assert.Equal(t, 1, stats[0].Losses)
		assert.Equal(t, 50.0, stats[0].WinRate)
		assert.Equal(t, 250.0, stats[0].TotalPnL)
		assert.Equal(t, 125.0, stats[0].AvgPnL)

		assert.Equal(t, "11:30", stats[1].Slot)
		assert.Equal(t, "14:00", stats[2].Slot)

		best, ok := BestSlot(stats)
		require.True(t, ok)
		assert.Equal(t, "14:00", best.Slot)
	})

	t.Run("1시간 단위", func(t *testing.T) {
		stats, err := TimeSlotStats(outcomes, time.Hour, nil)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, 3, stats[0].Total)
	})

	t.Run("시간대 변환", func(t *testing.T) {
		ist := time.FixedZone("IST", 5*3600+1800)
		stats, err := TimeSlotStats(outcomes[4:], time.Hour, ist)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "19:00", stats[0].Slot)
	})

	t.Run("잘못된 간격", func(t *testing.T) {
		_, err := TimeSlotStats(outcomes, 7*time.Minute, nil)
		assert.Error(t, err)
	})

	t.Run("빈 결과", func(t *testing.T) {
		_, ok := BestSlot(nil)
		assert.False(t, ok)
	})
}
