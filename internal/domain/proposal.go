package domain

// TradeProposal is the canonical trade-open request produced by the signal
// intake and consumed by the trade store. Optional fields are nil when the
// producer did not supply them.
type TradeProposal struct {
	Ticker     string
	Side       Side
	EntryPrice float64  // Proposed entry; executed entry may differ on breakout
	ATR        *float64 // Average true range at signal time, sizes the stop
	Trigger    *float64 // Breakout level requiring a confirmed close
	VWAP       *float64 // VWAP at signal time, informational
	StopLoss   *float64 // Explicit stop, overrides the percentage fallback
	Target     *float64 // Explicit target, overrides the percentage fallback
	Label      string   // Human-readable signal name for the audit trail
}
