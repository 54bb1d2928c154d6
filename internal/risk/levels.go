package risk

import (
	"math"

	"nsePaperTracker/internal/domain"
)

// Risk model constants. The stop distance is ATR-sized with a percentage
// floor so illiquid bars with near-zero ATR never produce a zero-width stop.
// The 2R first target applies only to the ATR model; without an ATR both
// stop and target sit one fixed percentage step from entry.
const (
	ATRMultiple    = 1.5    // Stop distance = ATRMultiple x ATR
	MinRiskPct     = 0.005  // Floor: 0.5% of entry price
	RewardMultiple = 2.0    // ATR model: first target = entry +/- RewardMultiple x risk
	FallbackPct    = 0.005  // No ATR: stop and target distance from entry
	BreakoutBuffer = 0.0005 // Close must clear trigger by 0.05% to confirm
)

// Levels holds the computed stop and target for a trade plus the risk
// distance (one "R" unit) they were derived from.
type Levels struct {
	StopLoss float64
	Target   float64
	Distance float64
}

// Distance returns the stop distance for an entry price and optional ATR:
// max(ATRMultiple x atr, MinRiskPct x entry). A nil or non-positive ATR
// falls back to the fixed percentage of entry.
func Distance(entry float64, atr *float64) float64 {
	if atr == nil || *atr <= 0 {
		return entry * FallbackPct
	}
	return math.Max(ATRMultiple**atr, entry*MinRiskPct)
}

// ComputeLevels derives stop and target from the executed entry price.
// With a positive ATR the target sits RewardMultiple risk units away; the
// no-ATR fallback is symmetric, one fixed percentage step on each side.
// Signs invert for short trades.
func ComputeLevels(side domain.Side, entry float64, atr *float64) Levels {
	dist := Distance(entry, atr)
	reward := RewardMultiple * dist
	if atr == nil || *atr <= 0 {
		reward = dist
	}
	if side == domain.Short {
		return Levels{StopLoss: entry + dist, Target: entry - reward, Distance: dist}
	}
	return Levels{StopLoss: entry - dist, Target: entry + reward, Distance: dist}
}

// ProposalLevels derives stop and target for a trade-open proposal.
// With a positive ATR the ATR model always wins. Without one, explicit
// stop/target values from the proposal take precedence over the fixed
// percentage fallback.
func ProposalLevels(p domain.TradeProposal) Levels {
	if p.ATR != nil && *p.ATR > 0 {
		return ComputeLevels(p.Side, p.EntryPrice, p.ATR)
	}
	lv := ComputeLevels(p.Side, p.EntryPrice, nil)
	if p.StopLoss != nil {
		lv.StopLoss = *p.StopLoss
	}
	if p.Target != nil {
		lv.Target = *p.Target
	}
	lv.Distance = math.Abs(p.EntryPrice - lv.StopLoss)
	return lv
}

// RiskUnit returns the fixed risk distance of an entered trade, computed
// from the frozen initial stop. Target extension always uses this unit,
// never the already-moved stop. A degenerate distance falls back to the
// percentage floor so extension can never be zero or negative.
func RiskUnit(entry, initialStop float64) float64 {
	dist := math.Abs(entry - initialStop)
	if dist <= 0 {
		return entry * MinRiskPct
	}
	return dist
}

// BreakoutLevel returns the close level a bar must clear to confirm a
// breakout entry: trigger plus a small buffer, directionally adjusted.
func BreakoutLevel(side domain.Side, trigger float64) float64 {
	if side == domain.Short {
		return trigger * (1 - BreakoutBuffer)
	}
	return trigger * (1 + BreakoutBuffer)
}

// PnLPercent returns the realized profit/loss percent for an exit.
// Profit is positive regardless of side.
func PnLPercent(side domain.Side, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	if side == domain.Short {
		return (entry - exit) / entry * 100
	}
	return (exit - entry) / entry * 100
}
