package ports

import (
	"context"
	"time"

	"nsePaperTracker/internal/domain"
)

// TradeStore is the durable ledger of trade records.
//
// A single UpdateStatus invocation reads the ledger once via LoadAll,
// mutates trades in memory, and commits once via ReplaceAll; the store
// must make the whole-ledger replace atomic.
type TradeStore interface {
	// AddOrUpdate applies a trade-open proposal for (ticker, strategy,
	// signalDate). A new WAITING_ENTRY trade is created when no live record
	// matches; a matching WAITING_ENTRY record has its proposed parameters
	// refreshed in place; a matching OPEN or terminal record is rejected.
	// The boolean reports whether the ledger changed, the string carries a
	// human-readable reason either way.
	AddOrUpdate(ctx context.Context, proposal domain.TradeProposal, strategy domain.StrategyKind, signalDate time.Time) (bool, string, error)

	// LoadAll retrieves every trade in the ledger, live and terminal.
	LoadAll(ctx context.Context) ([]*domain.Trade, error)

	// ReplaceAll atomically replaces the entire ledger.
	ReplaceAll(ctx context.Context, trades []*domain.Trade) error
}
