package backtest

import (
	"fmt"

	"github.com/assist-by/pinbar/internal/charges"
)

// NetReport는 거래 비용을 반영한 손익 보고서입니다
type NetReport struct {
	ClosedTrades    int     // 비용을 계산한 청산 거래 수
	GrossPnL        float64 // 비용 차감 전 손익
	TotalCharges    float64 // 총 거래 비용
	NetPnL          float64 // 비용 차감 후 손익
	ChargesPerTrade float64 // 거래당 평균 비용
	NetPerTrade     float64 // 거래당 평균 순손익
	ChargeShare     float64 // 총이익 대비 비용 비중 (%) - 손익이 0 이하면 0
}

// NetOfCosts는 청산 거래마다 실제 진입가/청산가로 비용을 추정해 순손익을 계산합니다
func NetOfCosts(summary Summary, outcomes []Outcome, est *charges.Estimator, lots int) (NetReport, error) {
	report := NetReport{GrossPnL: summary.GrossPnL}

	for _, o := range outcomes {
		if !o.Status.IsClosed() {
			continue
		}
		b, err := est.Estimate(o.Trade.EntryPrice, o.ExitPrice, lots)
		if err != nil {
			return NetReport{}, fmt.Errorf("비용 계산 실패 (%s): %w", o.Trade.EntryTime.Format("2006-01-02 15:04"), err)
		}
		report.ClosedTrades++
		report.TotalCharges += b.Total
	}

	report.TotalCharges = charges.Round2(report.TotalCharges)
	report.NetPnL = report.GrossPnL - report.TotalCharges
	if report.ClosedTrades > 0 {
		report.ChargesPerTrade = report.TotalCharges / float64(report.ClosedTrades)
		report.NetPerTrade = report.NetPnL / float64(report.ClosedTrades)
	}
	if report.GrossPnL > 0 {
		report.ChargeShare = report.TotalCharges / report.GrossPnL * 100
	}
	return report, nil
}

// LotScale은 랏 수별 손익/비용 추정입니다
type LotScale struct {
	Lots      int
	GrossPnL  float64
	Charges   float64
	ChargePct float64 // 총손익 대비 비용 비중 (%)
	NetPnL    float64
}

// LotScaling은 평균 손익을 랏 수로 확대했을 때의 비용 비중을 계산합니다.
// 고정 수수료는 랏 수와 무관하므로 랏이 커질수록 비용 비중이 줄어듭니다.
func LotScaling(avgPnLPerLot, entryPrice, exitPrice float64, est *charges.Estimator, lots []int) ([]LotScale, error) {
	result := make([]LotScale, 0, len(lots))
	for _, n := range lots {
		b, err := est.Estimate(entryPrice, exitPrice, n)
		if err != nil {
			return nil, fmt.Errorf("%d랏 비용 계산 실패: %w", n, err)
		}
		gross := avgPnLPerLot * float64(n)
		ls := LotScale{
			Lots:     n,
			GrossPnL: gross,
			Charges:  b.Total,
			NetPnL:   gross - b.Total,
		}
		if gross > 0 {
			ls.ChargePct = b.Total / gross * 100
		}
		result = append(result, ls)
	}
	return result, nil
}

// Projection은 가정한 승률에서의 예상 손익입니다
type Projection struct {
	WinRate  float64
	Wins     int
	Losses   int
	GrossPnL float64
	NetPnL   float64
}

// WinRateProjection은 평균 이익/손실을 고정하고 승률만 바꿨을 때의 손익을 추정합니다.
// avgLoss는 음수로 전달합니다.
func WinRateProjection(totalTrades int, avgWin, avgLoss, chargePerTrade float64, winRates []float64) []Projection {
	result := make([]Projection, 0, len(winRates))
	for _, wr := range winRates {
		wins := int(float64(totalTrades) * wr / 100)
		losses := totalTrades - wins
		gross := float64(wins)*avgWin + float64(losses)*avgLoss
		result = append(result, Projection{
			WinRate:  wr,
			Wins:     wins,
			Losses:   losses,
			GrossPnL: gross,
			NetPnL:   gross - chargePerTrade*float64(totalTrades),
		})
	}
	return result
}
