package engine

import (
	"testing"
	"time"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/markethours"
	"nsePaperTracker/internal/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionBar(t *testing.T, hour, minute int, open, high, low, closePx float64) domain.Bar {
	t.Helper()
	return domain.Bar{
		Timestamp: time.Date(2026, 1, 5, hour, minute, 0, 0, markethours.IST),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    1000,
	}
}

func floatPtr(v float64) *float64 { return &v }

func newPendingLong(atr *float64) *domain.Trade {
	return &domain.Trade{
		ID:              "ab12cd34",
		Ticker:          "RELIANCE.NS",
		Strategy:        domain.Intraday,
		Side:            domain.Long,
		SignalDate:      time.Date(2026, 1, 5, 0, 0, 0, 0, markethours.IST),
		EntryPrice:      100.2,
		StopLoss:        97.2,
		Target:          106.2,
		InitialStopLoss: 97.2,
		ATR:             atr,
		Status:          domain.StatusWaitingEntry,
	}
}

func TestReplay_TouchEntryOpensTrade(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))

	bars := []domain.Bar{
		sessionBar(t, 9, 20, 101.0, 101.5, 100.9, 101.2), // does not straddle entry
		sessionBar(t, 9, 25, 100.8, 100.9, 100.0, 100.4), // straddles 100.2
	}

	changed := replay(trade, bars, false)
	require.True(t, changed)
	assert.Equal(t, domain.StatusOpen, trade.Status)
	assert.InDelta(t, 100.2, trade.EntryPrice, 1e-9)
	assert.Equal(t, bars[1].Timestamp, trade.EntryTime)

	// ATR present: levels recomputed from the executed entry and the
	// initial stop frozen. dist = max(1.5*2.0, 0.005*100.2) = 3.0.
	assert.InDelta(t, 97.2, trade.StopLoss, 1e-9)
	assert.InDelta(t, 106.2, trade.Target, 1e-9)
	assert.InDelta(t, 97.2, trade.InitialStopLoss, 1e-9)
	assert.Contains(t, trade.Notes, "Risk-Based SL/Target Set")
}

func TestReplay_BreakoutConfirmation(t *testing.T) {
	trade := newPendingLong(nil)
	trade.Trigger = floatPtr(100.0)

	// Close 100.04 is below the buffered level 100.05: no entry.
	changed := replay(trade, []domain.Bar{
		sessionBar(t, 9, 20, 99.8, 100.3, 99.7, 100.04),
	}, false)
	assert.False(t, changed)
	assert.Equal(t, domain.StatusWaitingEntry, trade.Status)

	// Close 100.2 confirms; the trade executes at the close, not the
	// proposed entry.
	changed = replay(trade, []domain.Bar{
		sessionBar(t, 9, 25, 100.0, 100.3, 99.9, 100.2),
	}, false)
	require.True(t, changed)
	assert.Equal(t, domain.StatusOpen, trade.Status)
	assert.InDelta(t, 100.2, trade.EntryPrice, 1e-9)
	assert.Contains(t, trade.Notes, "Triggered at 09:25")
}

func TestReplay_ShortBreakoutConfirmation(t *testing.T) {
	trade := newPendingLong(nil)
	trade.Side = domain.Short
	trade.EntryPrice = 99.8
	trade.StopLoss = 102.8
	trade.Target = 93.8
	trade.InitialStopLoss = 102.8
	trade.Trigger = floatPtr(100.0)

	// Close must be below 100.0 * 0.9995 = 99.95.
	changed := replay(trade, []domain.Bar{
		sessionBar(t, 9, 20, 100.1, 100.2, 99.96, 99.97),
	}, false)
	assert.False(t, changed)

	changed = replay(trade, []domain.Bar{
		sessionBar(t, 9, 25, 99.97, 100.0, 99.8, 99.9),
	}, false)
	require.True(t, changed)
	assert.Equal(t, domain.StatusOpen, trade.Status)
	assert.InDelta(t, 99.9, trade.EntryPrice, 1e-9)
}

func TestReplay_StopCheckedBeforeTarget(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))

	// One wide bar both pierces the stop and tags the target. The stop
	// check runs first, so the trade exits as a loss.
	bars := []domain.Bar{
		sessionBar(t, 9, 20, 100.3, 100.4, 100.1, 100.2), // entry
		sessionBar(t, 9, 21, 100.2, 106.5, 97.0, 101.0),  // both levels touched
	}

	require.True(t, replay(trade, bars, false))
	assert.Equal(t, domain.StatusStopLossHit, trade.Status)
	assert.InDelta(t, 97.2, trade.ExitPrice, 1e-9)
	assert.Less(t, trade.PnLPct, 0.0)
	assert.Contains(t, trade.Notes, "SL Hit")
}

func TestReplay_TargetHitRatchetsStopAndExtendsTarget(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))

	bars := []domain.Bar{
		sessionBar(t, 9, 20, 100.3, 100.4, 100.1, 100.2),  // entry at 100.2
		sessionBar(t, 10, 0, 103.0, 106.5, 102.8, 106.0),  // target 106.2 tagged
		sessionBar(t, 10, 5, 106.0, 107.0, 105.5, 106.8),  // still open
	}

	require.True(t, replay(trade, bars, false))

	// Target hit is never terminal: the stop ratchets to breakeven and
	// the target extends by one risk unit (|100.2 - 97.2| = 3.0).
	assert.Equal(t, domain.StatusOpen, trade.Status)
	require.NotNil(t, trade.TrailedStopLoss)
	assert.InDelta(t, 100.2, *trade.TrailedStopLoss, 1e-9)
	assert.InDelta(t, 100.2, trade.EffectiveStop(), 1e-9)
	assert.InDelta(t, 109.2, trade.Target, 1e-9)
	assert.Contains(t, trade.Notes, "T1 Hit -> SL to BE, Target extended")
}

func TestReplay_RatchetFiresOnlyOnce(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))

	entry := sessionBar(t, 9, 20, 100.3, 100.4, 100.1, 100.2)
	surge := sessionBar(t, 10, 0, 103.0, 106.5, 102.8, 106.0)

	require.True(t, replay(trade, []domain.Bar{entry, surge}, false))
	require.NotNil(t, trade.TrailedStopLoss)
	targetAfterFirst := trade.Target

	// Overlapping re-replay of the same surge bar plus a later bar that
	// again trades above the original target. The extended target 109.2
	// is not reached, so nothing moves again.
	later := sessionBar(t, 10, 5, 106.0, 108.0, 105.5, 107.0)
	changed := replay(trade, []domain.Bar{surge, later}, false)
	assert.False(t, changed)
	assert.InDelta(t, targetAfterFirst, trade.Target, 1e-9)
	assert.InDelta(t, 100.2, *trade.TrailedStopLoss, 1e-9)
	assert.Equal(t, domain.StatusOpen, trade.Status)
}

func TestReplay_SameBarBreakevenStopAfterRatchet(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))

	// One violent bar: tags the target at 106.2, then the low trades back
	// through the fresh breakeven stop at 100.2.
	bars := []domain.Bar{
		sessionBar(t, 9, 20, 100.3, 100.4, 100.1, 100.2),
		sessionBar(t, 10, 0, 100.5, 106.5, 99.8, 100.9),
	}

	require.True(t, replay(trade, bars, false))
	assert.Equal(t, domain.StatusStopLossHit, trade.Status)
	assert.InDelta(t, 100.2, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 0.0, trade.PnLPct, 1e-9)
	assert.Contains(t, trade.Notes, "Stopped at breakeven")
}

func TestReplay_ResumedOpenTradeIgnoresPreEntryBars(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))
	trade.Status = domain.StatusOpen
	trade.EntryTime = time.Date(2026, 1, 5, 10, 0, 0, 0, markethours.IST)

	// The 09:20 bar wicks below the stop but predates the entry; it must
	// not stop the trade out.
	bars := []domain.Bar{
		sessionBar(t, 9, 20, 98.0, 98.5, 96.0, 98.2),
		sessionBar(t, 10, 30, 101.0, 101.5, 100.5, 101.2),
	}

	changed := replay(trade, bars, false)
	assert.False(t, changed)
	assert.Equal(t, domain.StatusOpen, trade.Status)
}

func TestReplay_ShortPnLSign(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))
	trade.Side = domain.Short
	trade.EntryPrice = 100.0
	trade.StopLoss = 103.0
	trade.Target = 94.0
	trade.InitialStopLoss = 103.0

	bars := []domain.Bar{
		sessionBar(t, 9, 20, 100.1, 100.2, 99.9, 100.0),  // entry
		sessionBar(t, 9, 30, 101.0, 103.5, 100.8, 103.2), // stop at 103
	}

	require.True(t, replay(trade, bars, false))
	assert.Equal(t, domain.StatusStopLossHit, trade.Status)
	assert.InDelta(t, 103.0, trade.ExitPrice, 1e-9)
	// Short losing trade: exit above entry means negative PnL.
	assert.InDelta(t, -3.0, trade.PnLPct, 1e-9)
}

func TestReplay_SessionEndExpiresPendingTrade(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))

	bars := []domain.Bar{
		sessionBar(t, 15, 25, 101.0, 101.5, 100.9, 101.2),
	}

	require.True(t, replay(trade, bars, true))
	assert.Equal(t, domain.StatusNotTriggered, trade.Status)
	assert.Contains(t, trade.Notes, "Expired (No Entry)")
	assert.True(t, trade.ExitTime.IsZero())
}

func TestReplay_SessionEndSquaresOffOpenIntraday(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))

	bars := []domain.Bar{
		sessionBar(t, 9, 20, 100.3, 100.4, 100.1, 100.2),  // entry
		sessionBar(t, 15, 29, 101.0, 101.5, 100.9, 101.4), // last session bar
	}

	require.True(t, replay(trade, bars, true))
	assert.Equal(t, domain.StatusExitAtClose, trade.Status)
	assert.InDelta(t, 101.4, trade.ExitPrice, 1e-9)
	assert.Equal(t, time.Date(2026, 1, 5, 15, 30, 0, 0, markethours.IST).Unix(), trade.ExitTime.Unix())
	assert.InDelta(t, (101.4-100.2)/100.2*100, trade.PnLPct, 1e-9)
	assert.Contains(t, trade.Notes, "Auto-Squareoff")
}

func TestReplay_OpenSwingSurvivesSessionEnd(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))
	trade.Strategy = domain.Swing
	trade.Status = domain.StatusOpen
	trade.EntryTime = time.Date(2026, 1, 5, 0, 0, 0, 0, markethours.IST)

	bars := []domain.Bar{
		sessionBar(t, 9, 20, 101.0, 101.5, 100.9, 101.2),
	}

	changed := replay(trade, bars, true)
	assert.False(t, changed)
	assert.Equal(t, domain.StatusOpen, trade.Status)
}

func TestReplay_EntryAndStopWithinSameBar(t *testing.T) {
	trade := newPendingLong(floatPtr(2.0))

	// The entry bar itself trades through the recomputed stop.
	bars := []domain.Bar{
		sessionBar(t, 9, 20, 100.5, 100.6, 97.0, 97.5),
	}

	require.True(t, replay(trade, bars, false))
	assert.Equal(t, domain.StatusStopLossHit, trade.Status)
	assert.InDelta(t, 97.2, trade.ExitPrice, 1e-9)
}

func TestReplay_FallbackLevelsWhenNoATR(t *testing.T) {
	trade := newPendingLong(nil)
	lv := risk.ProposalLevels(domain.TradeProposal{Side: domain.Long, EntryPrice: trade.EntryPrice})
	trade.StopLoss = lv.StopLoss
	trade.Target = lv.Target
	trade.InitialStopLoss = lv.StopLoss

	// Symmetric fallback: stop and target one fixed percentage step out.
	assert.InDelta(t, trade.EntryPrice*(1-risk.FallbackPct), trade.StopLoss, 1e-9)
	assert.InDelta(t, trade.EntryPrice*(1+risk.FallbackPct), trade.Target, 1e-9)

	bars := []domain.Bar{
		sessionBar(t, 9, 20, 100.1, 100.3, 100.1, 100.25),
	}

	require.True(t, replay(trade, bars, false))
	assert.Equal(t, domain.StatusOpen, trade.Status)
	// Without an ATR the persisted levels are kept as-is.
	assert.InDelta(t, lv.StopLoss, trade.StopLoss, 1e-9)
	assert.InDelta(t, lv.Target, trade.Target, 1e-9)
}
