package discord

import (
	"fmt"
	"math"
	"time"

	"github.com/assist-by/pinbar/internal/notification"
)

const footerText = "PinBar Backtester 🤖"

// SendSummary는 백테스트 요약을 전송합니다
func (c *Client) SendSummary(r notification.SummaryReport) error {
	s := r.Summary

	pf := "∞"
	if !math.IsInf(s.ProfitFactor, 1) {
		pf = fmt.Sprintf("%.2f", s.ProfitFactor)
	}

	embed := NewEmbed().
		SetTitle(fmt.Sprintf("📊 백테스트 결과: %s", r.Instrument)).
		SetColor(notification.GetColorForPnL(s.GrossPnL)).
		SetDescription(fmt.Sprintf("```\n총 후보: %d\n승/패: %d/%d (승률 %.2f%%)\n총손익: %.2f\n평균손익: %.2f\n프로핏 팩터: %s```",
			s.TotalTrades, s.Wins, s.Losses, s.WinRate, s.GrossPnL, s.AvgPnL, pf)).
		AddField("미청산", fmt.Sprintf("%d건 (%.2f)", s.OpenAtEnd, s.UnrealizedPnL), true).
		AddField("최대 연속", fmt.Sprintf("승 %d / 패 %d", s.MaxConsecutiveWins, s.MaxConsecutiveLosses), true)

	if r.Net != nil {
		embed.AddField("비용 반영",
			fmt.Sprintf("비용 %.2f\n순손익 %.2f\n비용 비중 %.1f%%", r.Net.TotalCharges, r.Net.NetPnL, r.Net.ChargeShare),
			false)
	}

	embed.SetFooter(footerText).SetTimestamp(time.Now())

	return c.sendToWebhook(c.infoWebhook, WebhookMessage{
		Embeds: []Embed{*embed},
	})
}

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(notification.ColorError).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	return c.sendToWebhook(c.errorWebhook, WebhookMessage{
		Embeds: []Embed{*embed},
	})
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(notification.ColorInfo).
		SetFooter(footerText).
		SetTimestamp(time.Now())

	return c.sendToWebhook(c.infoWebhook, WebhookMessage{
		Embeds: []Embed{*embed},
	})
}
