package trading

import (
	"fmt"
	"time"

	"github.com/assist-by/pinbar/internal/position"
)

// Trade는 패턴 감지기가 만든 가상 매매 후보입니다.
// 생성 이후에는 변경하지 않습니다.
type Trade struct {
	Instrument string    // 종목 식별자 (예: NIFTY)
	EntryTime  time.Time // 진입 시간 (시그널 캔들의 시작 시간)
	position.Plan
}

// NewTrade는 진입가/손절가/손익비로 목표가와 리스크를 계산한 매매 후보를 생성합니다
func NewTrade(instrument string, entryTime time.Time, entryPrice, stopPrice, ratio float64) (Trade, error) {
	plan, err := position.NewPlan(entryPrice, stopPrice, ratio)
	if err != nil {
		return Trade{}, position.NewPositionError(instrument, "plan", err)
	}
	return Trade{
		Instrument: instrument,
		EntryTime:  entryTime,
		Plan:       plan,
	}, nil
}

func (t Trade) String() string {
	return fmt.Sprintf("%s @ %s entry=%.2f stop=%.2f target=%.2f risk=%.2f",
		t.Instrument, t.EntryTime.Format("2006-01-02 15:04:05"),
		t.EntryPrice, t.StopPrice, t.TargetPrice, t.RiskDistance)
}
