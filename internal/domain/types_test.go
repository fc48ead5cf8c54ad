package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTradingWindow_Contains(t *testing.T) {
	w := TradingWindow{StartHour: 11, StartMinute: 0, EndHour: 12, EndMinute: 30}
	day := func(h, m int) time.Time { return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{name: "시작 경계", t: day(11, 0), want: true},
		{name: "종료 경계", t: day(12, 30), want: true},
		{name: "구간 전", t: day(10, 55), want: false},
		{name: "구간 후", t: day(12, 35), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.t))
		})
	}

	assert.True(t, InAnyWindow(day(14, 0), DefaultTradingWindows))
	assert.False(t, InAnyWindow(day(13, 0), DefaultTradingWindows))
	assert.False(t, InAnyWindow(day(14, 0), nil))
}

func TestTradingWindow_Validate(t *testing.T) {
	assert.NoError(t, TradingWindow{StartHour: 9, StartMinute: 15, EndHour: 15, EndMinute: 30}.Validate())
	assert.ErrorIs(t, TradingWindow{StartHour: 24}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, TradingWindow{StartHour: 13, EndHour: 12}.Validate(), ErrInvalidInput)
	assert.Equal(t, "11:00-12:30", DefaultTradingWindows[0].String())
}
