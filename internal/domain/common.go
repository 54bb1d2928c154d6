package domain

// Side represents the direction of a trade (LONG or SHORT).
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// StrategyKind governs bar granularity and end-of-session rules.
type StrategyKind string

const (
	// Swing positions are held across sessions on daily bars.
	Swing StrategyKind = "SWING"
	// Intraday positions live within a single session on minute bars
	// and are squared off at the close.
	Intraday StrategyKind = "INTRADAY"
)

// TradeStatus represents the lifecycle state of a tracked trade.
// Hitting the target is not a status: it ratchets the stop and the
// trade stays OPEN until a stop touch or the session close resolves it.
type TradeStatus string

const (
	StatusWaitingEntry TradeStatus = "WAITING_ENTRY"
	StatusOpen         TradeStatus = "OPEN"
	StatusStopLossHit  TradeStatus = "STOP_LOSS_HIT"
	StatusNotTriggered TradeStatus = "NOT_TRIGGERED"
	StatusExitAtClose  TradeStatus = "EXIT_AT_CLOSE"
)

// IsTerminal reports whether the status is a final state.
func (s TradeStatus) IsTerminal() bool {
	switch s {
	case StatusStopLossHit, StatusNotTriggered, StatusExitAtClose:
		return true
	}
	return false
}

// Granularity is the bar interval requested from the market data provider.
type Granularity string

const (
	GranularityMinute Granularity = "1m"
	GranularityDaily  Granularity = "1d"
)
