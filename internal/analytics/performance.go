// Package analytics summarizes a resolved trade ledger. All figures are
// percentage-based because the tracker records paper trades without
// position sizing.
package analytics

import (
	"sort"
	"time"

	"nsePaperTracker/internal/domain"
)

// Summary holds performance metrics over the terminal trades of a ledger.
type Summary struct {
	TotalSignals   int // every trade in the ledger, live ones included
	ResolvedTrades int // terminal trades with an executed entry
	Expired        int // signals that never triggered

	WinningTrades int
	LosingTrades  int
	WinRate       float64 // fraction of resolved trades with positive PnL

	TotalPnLPct    float64 // sum of per-trade PnL percentages
	AverageWinPct  float64
	AverageLossPct float64 // negative or zero
	ProfitFactor   float64 // gross win pct / gross loss pct
	Expectancy     float64 // expected PnL pct per resolved trade

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	ByStrategy map[domain.StrategyKind]StrategyBreakdown
	ByMonth    map[string]float64 // "2006-01" -> summed PnL pct by exit month
}

// StrategyBreakdown splits the headline numbers per strategy kind.
type StrategyBreakdown struct {
	ResolvedTrades int
	WinningTrades  int
	TotalPnLPct    float64
}

// Analyze computes a Summary over the ledger. Trades are evaluated in exit
// order so consecutive-run counts reflect the sequence actually realized.
func Analyze(trades []*domain.Trade) *Summary {
	s := &Summary{
		ByStrategy: make(map[domain.StrategyKind]StrategyBreakdown),
		ByMonth:    make(map[string]float64),
	}

	var resolved []*domain.Trade
	for _, t := range trades {
		s.TotalSignals++
		switch {
		case t.Status == domain.StatusNotTriggered:
			s.Expired++
		case t.Status.IsTerminal():
			resolved = append(resolved, t)
		}
	}
	if len(resolved) == 0 {
		return s
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].ExitTime.Before(resolved[j].ExitTime)
	})

	var grossWin, grossLoss float64
	var winRun, lossRun int
	for _, t := range resolved {
		s.ResolvedTrades++
		s.TotalPnLPct += t.PnLPct

		b := s.ByStrategy[t.Strategy]
		b.ResolvedTrades++
		b.TotalPnLPct += t.PnLPct

		if t.PnLPct > 0 {
			s.WinningTrades++
			b.WinningTrades++
			grossWin += t.PnLPct
			winRun++
			lossRun = 0
		} else {
			s.LosingTrades++
			grossLoss += -t.PnLPct
			lossRun++
			winRun = 0
		}
		if winRun > s.MaxConsecutiveWins {
			s.MaxConsecutiveWins = winRun
		}
		if lossRun > s.MaxConsecutiveLosses {
			s.MaxConsecutiveLosses = lossRun
		}
		s.ByStrategy[t.Strategy] = b

		if !t.ExitTime.IsZero() {
			s.ByMonth[t.ExitTime.Format("2006-01")] += t.PnLPct
		}
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.ResolvedTrades)
	if s.WinningTrades > 0 {
		s.AverageWinPct = grossWin / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AverageLossPct = -grossLoss / float64(s.LosingTrades)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossWin / grossLoss
	}
	s.Expectancy = s.TotalPnLPct / float64(s.ResolvedTrades)

	return s
}

// MonthlyReturn is one month's summed PnL percentage.
type MonthlyReturn struct {
	Month  time.Time
	PnLPct float64
}

// MonthlyReturns returns the per-month totals in chronological order.
func (s *Summary) MonthlyReturns() []MonthlyReturn {
	out := make([]MonthlyReturn, 0, len(s.ByMonth))
	for month, pnl := range s.ByMonth {
		date, err := time.Parse("2006-01", month)
		if err != nil {
			continue
		}
		out = append(out, MonthlyReturn{Month: date, PnLPct: pnl})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}
