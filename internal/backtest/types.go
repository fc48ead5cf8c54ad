package backtest

import (
	"time"

	"github.com/assist-by/pinbar/internal/trading"
)

// Status는 백테스트 결과 상태를 정의합니다
type Status int

const (
	HitTarget    Status = iota // 목표가 도달
	HitStop                    // 손절가 도달
	NoFutureData               // 진입 이후 캔들 없음
	NoData                     // 종목 데이터 없음
	OpenAtEnd                  // 데이터 끝까지 미청산 (종가 평가)
)

// String은 상태를 문자열로 변환합니다
func (s Status) String() string {
	switch s {
	case HitTarget:
		return "HIT_TARGET"
	case HitStop:
		return "HIT_STOP"
	case NoFutureData:
		return "NO_FUTURE_DATA"
	case NoData:
		return "NO_DATA"
	case OpenAtEnd:
		return "OPEN_AT_END"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus는 문자열을 상태로 변환합니다
func ParseStatus(s string) (Status, bool) {
	for _, st := range []Status{HitTarget, HitStop, NoFutureData, NoData, OpenAtEnd} {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// IsClosed는 목표가 또는 손절가로 청산되었는지 확인합니다
func (s Status) IsClosed() bool {
	return s == HitTarget || s == HitStop
}

// TieBreak는 한 캔들에서 목표가와 손절가가 모두 닿았을 때의 처리 정책입니다
type TieBreak int

const (
	TargetFirst TieBreak = iota // 목표가 우선 (기본값, 낙관적 가정)
	StopFirst                   // 손절가 우선 (보수적 가정)
)

// Outcome은 매매 후보 하나에 대한 백테스트 결과입니다
type Outcome struct {
	Trade       trading.Trade
	ExitTime    time.Time // HasExit가 false면 zero value
	HasExit     bool
	ExitPrice   float64
	Status      Status
	RealizedPnL float64 // 가격 차이 × 포지션 수량 (OpenAtEnd는 미실현 손익)
}

// HoldingTime은 진입부터 청산까지의 시간을 반환합니다
func (o Outcome) HoldingTime() time.Duration {
	if !o.HasExit {
		return 0
	}
	return o.ExitTime.Sub(o.Trade.EntryTime)
}

// Summary는 결과 묶음의 집계 통계입니다
type Summary struct {
	TotalTrades   int     // 전체 후보 수
	Wins          int     // 목표가 도달 수
	Losses        int     // 손절가 도달 수
	WinRate       float64 // 승률 (%) - 청산 거래 기준
	GrossPnL      float64 // 청산 거래 손익 합계
	AvgPnL        float64 // 청산 거래 평균 손익
	ProfitFactor  float64 // 총이익 / |총손실| (손실 없으면 이익 유무에 따라 +Inf 또는 0)
	GrossProfit   float64 // 이익 거래 합계
	GrossLoss     float64 // 손실 거래 합계 (음수)
	AvgWin        float64 // 평균 이익
	AvgLoss       float64 // 평균 손실 (음수)
	OpenAtEnd     int     // 미청산 수
	UnrealizedPnL float64 // 미청산 평가 손익 합계
	NoData        int     // 데이터 없음
	NoFutureData  int     // 이후 캔들 없음

	MaxConsecutiveWins   int           // 최대 연속 승
	MaxConsecutiveLosses int           // 최대 연속 패
	AvgHoldingTime       time.Duration // 청산 거래 평균 보유 시간
}

// Closed는 청산 거래 수를 반환합니다
func (s Summary) Closed() int {
	return s.Wins + s.Losses
}

// TimePerformance는 진입 시간대별 성과입니다
type TimePerformance struct {
	Slot     string  // 시간대 라벨 (예: "11:00")
	Total    int     // 청산 거래 수
	Wins     int     // 승리 수
	Losses   int     // 패배 수
	WinRate  float64 // 승률 (%)
	TotalPnL float64 // 손익 합계
	AvgPnL   float64 // 평균 손익
}
