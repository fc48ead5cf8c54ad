package discord

import (
	"fmt"

	"github.com/assist-by/pinbar/internal/notification"
	"github.com/assist-by/pinbar/internal/trading"
)

// SendSignal은 핀바 매매 후보 알림을 Discord로 전송합니다
func (c *Client) SendSignal(t trading.Trade) error {
	stopPct := (t.StopPrice - t.EntryPrice) / t.EntryPrice * 100
	targetPct := (t.TargetPrice - t.EntryPrice) / t.EntryPrice * 100

	embed := NewEmbed().
		SetTitle(fmt.Sprintf("🚀 LONG %s (핀바)", t.Instrument)).
		SetColor(notification.ColorSuccess).
		SetDescription(fmt.Sprintf(`**시간**: %s
 **진입가**: %.2f
 **손절가**: %.2f (%.2f%%)
 **목표가**: %.2f (%.2f%%)`,
			t.EntryTime.Format("2006-01-02 15:04:05 MST"),
			t.EntryPrice,
			t.StopPrice, stopPct,
			t.TargetPrice, targetPct,
		)).
		AddField("손절 거리", fmt.Sprintf("%.2f", t.RiskDistance), true).
		AddField("목표 거리", fmt.Sprintf("%.2f", t.RewardDistance), true).
		AddField("손익비", fmt.Sprintf("1:%.2f", t.RewardRiskRatio), true).
		SetFooter(footerText).
		SetTimestamp(t.EntryTime)

	return c.sendToWebhook(c.signalWebhook, WebhookMessage{
		Embeds: []Embed{*embed},
	})
}
