package engine

import (
	"fmt"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/markethours"
	"nsePaperTracker/internal/risk"
)

// replay advances a trade through bars in strictly chronological order,
// short-circuiting on the first terminal transition. Bars must be sorted
// ascending, localized to exchange time, and pre-filtered to the trade's
// valid window (entry bars for a swing trade never include the signal date).
//
// sessionDone reports whether the trade's entry window has concluded as of
// the current poll: the signal session for intraday trades, the entry
// validity horizon for swing trades.
//
// The function is pure computation over already-fetched bars and is safe to
// re-run over overlapping windows: every decision is derived from the
// trade's persisted snapshot, not from transient state.
func replay(t *domain.Trade, bars []domain.Bar, sessionDone bool) bool {
	changed := false

	for i := range bars {
		bar := &bars[i]

		// A resumed OPEN trade must not be judged against bars that
		// predate its recorded entry.
		if t.Status == domain.StatusOpen && !t.EntryTime.IsZero() && bar.Timestamp.Before(t.EntryTime) {
			continue
		}

		if t.Status == domain.StatusWaitingEntry {
			if tryEnter(t, bar) {
				changed = true
				// Fall through: an entry bar may also resolve
				// stop or target within the same bar.
			}
		}

		if t.Status == domain.StatusOpen {
			terminal, mutated := monitor(t, bar)
			if mutated {
				changed = true
			}
			if terminal {
				return true
			}
		}
	}

	if sessionDone {
		if resolveSessionEnd(t, bars) {
			changed = true
		}
	}

	return changed
}

// tryEnter applies the entry-confirmation policy for a pending trade.
// Touch policy (no trigger level): the bar's range must straddle the
// proposed entry, executed at the proposed price. Breakout-confirm policy
// (trigger level set): the bar must close beyond the trigger plus a small
// buffer, executed at the close to model slippage.
func tryEnter(t *domain.Trade, bar *domain.Bar) bool {
	executed := t.EntryPrice
	triggered := false

	if t.Trigger == nil {
		triggered = bar.Low <= t.EntryPrice && t.EntryPrice <= bar.High
	} else {
		level := risk.BreakoutLevel(t.Side, *t.Trigger)
		if t.Side == domain.Short {
			triggered = bar.Close < level
		} else {
			triggered = bar.Close > level
		}
		if triggered {
			executed = bar.Close
		}
	}
	if !triggered {
		return false
	}

	t.Status = domain.StatusOpen
	t.EntryTime = bar.Timestamp
	t.EntryPrice = executed

	// With an ATR captured at signal time, stop and target are recomputed
	// from the executed entry and the initial stop is frozen; it defines
	// the risk unit for every later target extension.
	if t.ATR != nil && *t.ATR > 0 {
		lv := risk.ComputeLevels(t.Side, executed, t.ATR)
		t.StopLoss = lv.StopLoss
		t.Target = lv.Target
		t.InitialStopLoss = lv.StopLoss
		t.AppendNote(fmt.Sprintf("Risk-Based SL/Target Set (Risk %.2f)", lv.Distance))
	} else {
		t.AppendNote(fmt.Sprintf("Triggered at %s", bar.Timestamp.In(markethours.IST).Format("15:04")))
	}
	return true
}

// monitor evaluates one bar for an open trade: stop-loss first, then
// target. Hitting the target ratchets the stop to breakeven and extends
// the target by one risk unit exactly once per trade; the new stop is
// re-checked within the same bar because a wick can pierce the target and
// reverse through breakeven before the next bar.
func monitor(t *domain.Trade, bar *domain.Bar) (terminal, mutated bool) {
	effStop := t.EffectiveStop()
	if stopTouched(t.Side, bar, effStop) {
		exit(t, effStop, bar, "SL Hit")
		return true, true
	}

	if !targetTouched(t.Side, bar, t.Target) {
		return false, false
	}
	if t.Ratcheted() {
		// Single-ratchet policy: keep monitoring at the extended target.
		return false, false
	}

	breakeven := t.EntryPrice
	t.TrailedStopLoss = &breakeven
	unit := risk.RiskUnit(t.EntryPrice, t.InitialStopLoss)
	if t.Side == domain.Short {
		t.Target -= unit
	} else {
		t.Target += unit
	}
	t.AppendNote("T1 Hit -> SL to BE, Target extended")

	// Same-bar wick through the fresh breakeven stop.
	if stopTouched(t.Side, bar, breakeven) {
		exit(t, breakeven, bar, "Stopped at breakeven")
		return true, true
	}
	return false, true
}

func stopTouched(side domain.Side, bar *domain.Bar, stop float64) bool {
	if side == domain.Short {
		return bar.High >= stop
	}
	return bar.Low <= stop
}

func targetTouched(side domain.Side, bar *domain.Bar, target float64) bool {
	if side == domain.Short {
		return bar.Low <= target
	}
	return bar.High >= target
}

func exit(t *domain.Trade, price float64, bar *domain.Bar, note string) {
	t.Status = domain.StatusStopLossHit
	t.ExitPrice = price
	t.ExitTime = bar.Timestamp
	t.PnLPct = risk.PnLPercent(t.Side, t.EntryPrice, price)
	t.AppendNote(note)
}

// resolveSessionEnd terminates trades whose window has closed: a pending
// trade expires, an open intraday trade is squared off at the last bar's
// close. Open swing trades survive the session and keep being checked on
// subsequent polls.
func resolveSessionEnd(t *domain.Trade, bars []domain.Bar) bool {
	switch t.Status {
	case domain.StatusWaitingEntry:
		t.Status = domain.StatusNotTriggered
		t.AppendNote("Expired (No Entry)")
		return true
	case domain.StatusOpen:
		if t.Strategy != domain.Intraday || len(bars) == 0 {
			return false
		}
		last := bars[len(bars)-1]
		t.Status = domain.StatusExitAtClose
		t.ExitPrice = last.Close
		t.ExitTime = markethours.SessionClose(last.Timestamp)
		t.PnLPct = risk.PnLPercent(t.Side, t.EntryPrice, last.Close)
		t.AppendNote("Auto-Squareoff")
		return true
	}
	return false
}
