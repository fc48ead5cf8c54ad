package domain

import (
	"fmt"
	"time"
)

// TradingWindow는 장중 매매 허용 구간을 정의합니다 (양 끝 포함)
type TradingWindow struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// DefaultTradingWindows는 장 초반 변동성 구간을 피한 기본 매매 시간대입니다
var DefaultTradingWindows = []TradingWindow{
	{StartHour: 11, StartMinute: 0, EndHour: 12, EndMinute: 30},
	{StartHour: 13, StartMinute: 30, EndHour: 15, EndMinute: 30},
}

// Contains는 시각의 분 단위 위치가 구간 안에 있는지 확인합니다
func (w TradingWindow) Contains(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	return w.startMinutes() <= minutes && minutes <= w.endMinutes()
}

// Validate는 시간 구간이 올바른지 확인합니다
func (w TradingWindow) Validate() error {
	if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 ||
		w.StartMinute < 0 || w.StartMinute > 59 || w.EndMinute < 0 || w.EndMinute > 59 {
		return fmt.Errorf("%w: 시간 구간 범위 오류 %s", ErrInvalidInput, w)
	}
	if w.startMinutes() > w.endMinutes() {
		return fmt.Errorf("%w: 시작 시간이 종료 시간보다 늦습니다 %s", ErrInvalidInput, w)
	}
	return nil
}

func (w TradingWindow) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.StartHour, w.StartMinute, w.EndHour, w.EndMinute)
}

func (w TradingWindow) startMinutes() int { return w.StartHour*60 + w.StartMinute }
func (w TradingWindow) endMinutes() int   { return w.EndHour*60 + w.EndMinute }

// InAnyWindow는 시각이 주어진 구간 중 하나에 속하는지 확인합니다
func InAnyWindow(t time.Time, windows []TradingWindow) bool {
	for _, w := range windows {
		if w.Contains(t) {
			return true
		}
	}
	return false
}
