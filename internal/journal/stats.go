package journal

import (
	"math"

	"crypto-journal-go/internal/models"
)

// Summary holds aggregate statistics over closed trades. Monetary and
// percentage fields carry full float precision internally; call Rounded
// before serializing.
type Summary struct {
	TotalTrades   int     `json:"total_trades"`
	TotalPnl      float64 `json:"total_pnl"`
	TotalInvested float64 `json:"total_invested"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AvgPnl        float64 `json:"avg_pnl"`
	Roi           float64 `json:"roi"`
}

// Aggregate reduces a trade collection into summary metrics in one pass.
// Open positions (nil pnl) are skipped entirely: they contribute to neither
// the P&L figures nor total_invested. Breakeven trades (pnl == 0) count
// toward neither winners nor losers. An empty qualifying set yields the
// all-zero summary.
func Aggregate(trades []models.Trade) Summary {
	var s Summary
	for _, t := range trades {
		if t.Pnl == nil {
			continue
		}
		s.TotalTrades++
		s.TotalPnl += *t.Pnl
		s.TotalInvested += t.UsdAmount
		switch {
		case *t.Pnl > 0:
			s.WinningTrades++
		case *t.Pnl < 0:
			s.LosingTrades++
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
		s.AvgPnl = s.TotalPnl / float64(s.TotalTrades)
	}
	if s.TotalInvested > 0 {
		s.Roi = s.TotalPnl / s.TotalInvested * 100
	}
	return s
}

// Rounded returns a copy with all monetary and percentage outputs rounded to
// two decimal places. Rounding happens only here, at the output boundary.
func (s Summary) Rounded() Summary {
	s.TotalPnl = round2(s.TotalPnl)
	s.TotalInvested = round2(s.TotalInvested)
	s.WinRate = round2(s.WinRate)
	s.AvgPnl = round2(s.AvgPnl)
	s.Roi = round2(s.Roi)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
