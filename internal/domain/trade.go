package domain

import "time"

// Trade represents one hypothetical position in the ledger.
// Created by the signal intake; mutated only by the lifecycle engine.
// Terminal trades are never deleted, they remain in the store as history.
type Trade struct {
	ID         string       // Opaque identifier, immutable
	Ticker     string       // Instrument symbol (e.g., "RELIANCE.NS")
	Strategy   StrategyKind // Governs bar granularity and session rules
	Side       Side         // LONG or SHORT
	SignalDate time.Time    // Calendar date the signal was generated (midnight IST)

	EntryPrice      float64  // Proposed entry; executed entry once triggered
	StopLoss        float64  // Current stop level
	Target          float64  // Current (possibly extended) target level
	InitialStopLoss float64  // Frozen at first entry; defines the risk unit
	TrailedStopLoss *float64 // Set once the breakeven ratchet fires

	// Risk parameters captured at signal time (nil when not supplied).
	ATR     *float64
	Trigger *float64
	VWAP    *float64

	Status    TradeStatus
	EntryTime time.Time // Zero value until entry is confirmed
	ExitPrice float64   // 0 while the trade is live
	ExitTime  time.Time // Zero value while the trade is live
	PnLPct    float64   // Signed percent; meaningful once ExitPrice is set
	Notes     string    // Append-only audit trail of transitions
}

// EffectiveStop returns the stop level the engine monitors: the trailed
// stop once the breakeven ratchet has fired, the current stop otherwise.
func (t *Trade) EffectiveStop() float64 {
	if t.TrailedStopLoss != nil {
		return *t.TrailedStopLoss
	}
	return t.StopLoss
}

// Ratcheted reports whether the one-time breakeven ratchet has fired.
func (t *Trade) Ratcheted() bool {
	return t.TrailedStopLoss != nil
}

// IsLive reports whether the trade is still pending or open.
func (t *Trade) IsLive() bool {
	return !t.Status.IsTerminal()
}

// AppendNote adds an entry to the audit trail.
func (t *Trade) AppendNote(note string) {
	if t.Notes == "" {
		t.Notes = note
		return
	}
	t.Notes = t.Notes + " | " + note
}
