package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/assist-by/pinbar/internal/backtest"
)

// report는 백테스트 결과 출력용 묶음입니다
type report struct {
	Instrument  string
	Summary     backtest.Summary
	Net         backtest.NetReport
	Slots       []backtest.TimePerformance
	LotScales   []backtest.LotScale
	Projections []backtest.Projection
	Sweep       []backtest.SweepResult
	Trades      []backtest.Outcome // 비어 있으면 개별 거래 내역 생략
}

// averagePrices는 청산 거래의 평균 진입가/청산가를 반환합니다
func averagePrices(outcomes []backtest.Outcome) (entry, exit float64, ok bool) {
	var n int
	for _, o := range outcomes {
		if !o.Status.IsClosed() {
			continue
		}
		entry += o.Trade.EntryPrice
		exit += o.ExitPrice
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return entry / float64(n), exit / float64(n), true
}

func formatPF(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", pf)
}

// Print는 결과를 표 형태로 출력합니다
func (r *report) Print(out io.Writer, loc *time.Location) {
	s := r.Summary
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "=== %s 백테스트 결과 (%s) ===\n", r.Instrument, loc)
	fmt.Fprintf(w, "총 후보\t%d\n", s.TotalTrades)
	fmt.Fprintf(w, "승/패\t%d/%d\n", s.Wins, s.Losses)
	fmt.Fprintf(w, "승률\t%.2f%%\n", s.WinRate)
	fmt.Fprintf(w, "총손익\t%.2f\n", s.GrossPnL)
	fmt.Fprintf(w, "평균손익\t%.2f\n", s.AvgPnL)
	fmt.Fprintf(w, "평균 이익/손실\t%.2f / %.2f\n", s.AvgWin, s.AvgLoss)
	fmt.Fprintf(w, "프로핏 팩터\t%s\n", formatPF(s.ProfitFactor))
	fmt.Fprintf(w, "최대 연속 승/패\t%d / %d\n", s.MaxConsecutiveWins, s.MaxConsecutiveLosses)
	fmt.Fprintf(w, "평균 보유 시간\t%s\n", s.AvgHoldingTime)
	fmt.Fprintf(w, "미청산\t%d건 (미실현 %.2f)\n", s.OpenAtEnd, s.UnrealizedPnL)
	fmt.Fprintf(w, "데이터 없음/이후 봉 없음\t%d / %d\n", s.NoData, s.NoFutureData)

	fmt.Fprintln(w, "\n--- 비용 반영 ---")
	fmt.Fprintf(w, "총 비용\t%.2f\n", r.Net.TotalCharges)
	fmt.Fprintf(w, "순손익\t%.2f\n", r.Net.NetPnL)
	fmt.Fprintf(w, "거래당 비용/순손익\t%.2f / %.2f\n", r.Net.ChargesPerTrade, r.Net.NetPerTrade)
	fmt.Fprintf(w, "비용 비중\t%.2f%%\n", r.Net.ChargeShare)

	if len(r.Slots) > 0 {
		fmt.Fprintln(w, "\n--- 시간대별 성과 ---")
		fmt.Fprintln(w, "시간대\t거래\t승\t패\t승률\t손익\t평균")
		for _, p := range r.Slots {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f%%\t%.2f\t%.2f\n", p.Slot, p.Total, p.Wins, p.Losses, p.WinRate, p.TotalPnL, p.AvgPnL)
		}
		if best, ok := backtest.BestSlot(r.Slots); ok {
			fmt.Fprintf(w, "최고 시간대\t%s (평균 %.2f)\n", best.Slot, best.AvgPnL)
		}
	}

	if len(r.LotScales) > 0 {
		fmt.Fprintln(w, "\n--- 랏 수별 비용 ---")
		fmt.Fprintln(w, "랏\t손익\t비용\t비중\t순손익")
		for _, l := range r.LotScales {
			fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.1f%%\t%.2f\n", l.Lots, l.GrossPnL, l.Charges, l.ChargePct, l.NetPnL)
		}
	}

	if len(r.Projections) > 0 {
		fmt.Fprintln(w, "\n--- 승률 가정별 손익 ---")
		fmt.Fprintln(w, "승률\t승\t패\t손익\t순손익")
		for _, p := range r.Projections {
			fmt.Fprintf(w, "%.0f%%\t%d\t%d\t%.2f\t%.2f\n", p.WinRate, p.Wins, p.Losses, p.GrossPnL, p.NetPnL)
		}
	}

	if len(r.Sweep) > 0 {
		fmt.Fprintln(w, "\n--- 손익비 스윕 ---")
		fmt.Fprintln(w, "손익비\t후보\t승률\t총손익\tPF")
		for _, sr := range r.Sweep {
			fmt.Fprintf(w, "%.2f\t%d\t%.2f%%\t%.2f\t%s\n",
				sr.RewardRiskRatio, sr.Trades, sr.Summary.WinRate, sr.Summary.GrossPnL, formatPF(sr.Summary.ProfitFactor))
		}
	}

	if len(r.Trades) > 0 {
		fmt.Fprintln(w, "\n--- 개별 거래 ---")
		fmt.Fprintln(w, "#\t진입 시간\t진입가\t손절가\t목표가\t위험\t청산 시간\t청산가\t상태\t손익")
		for i, o := range r.Trades {
			exitTime := "-"
			if o.HasExit {
				exitTime = o.ExitTime.In(loc).Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%.2f\t%s\t%.2f\n",
				i+1, o.Trade.EntryTime.In(loc).Format("2006-01-02 15:04"),
				o.Trade.EntryPrice, o.Trade.StopPrice, o.Trade.TargetPrice, o.Trade.RiskDistance,
				exitTime, o.ExitPrice, o.Status, o.RealizedPnL)
		}
	}
}
