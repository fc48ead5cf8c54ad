package notification

import (
	"github.com/assist-by/pinbar/internal/backtest"
	"github.com/assist-by/pinbar/internal/trading"
)

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0099FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendSignal은 새 매매 후보 알림을 전송합니다
	SendSignal(trade trading.Trade) error

	// SendSummary는 백테스트 요약을 전송합니다
	SendSummary(report SummaryReport) error

	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error
}

// SummaryReport는 백테스트 요약 알림 내용입니다
type SummaryReport struct {
	Instrument string
	Summary    backtest.Summary
	Net        *backtest.NetReport // 비용 계산을 하지 않았으면 nil
}

// GetColorForPnL은 손익 부호에 따른 색상을 반환합니다
func GetColorForPnL(pnl float64) int {
	switch {
	case pnl > 0:
		return ColorSuccess
	case pnl < 0:
		return ColorError
	default:
		return ColorInfo
	}
}

// Nop은 아무것도 전송하지 않는 Notifier입니다
type Nop struct{}

func (Nop) SendSignal(trading.Trade) error  { return nil }
func (Nop) SendSummary(SummaryReport) error { return nil }
func (Nop) SendError(error) error           { return nil }
func (Nop) SendInfo(string) error           { return nil }
