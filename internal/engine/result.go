package engine

// Outcome classifies what happened to one trade during an update cycle.
type Outcome int

const (
	// OutcomeUnchanged means the trade was evaluated and kept its state.
	OutcomeUnchanged Outcome = iota
	// OutcomeUpdated means at least one lifecycle transition was applied.
	OutcomeUpdated
	// OutcomeSkipped means no bars were available this cycle; the trade
	// will be retried on the next poll with no state change.
	OutcomeSkipped
	// OutcomeError means the trade could not be evaluated for a reason
	// other than missing data (e.g., an unknown ticker).
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Result reports the outcome of evaluating a single trade. Per-trade
// failures are isolated here rather than aborting the batch.
type Result struct {
	TradeID string
	Ticker  string
	Outcome Outcome
	Err     error
}
