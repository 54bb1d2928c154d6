package ports

import (
	"context"
	"time"

	"nsePaperTracker/internal/domain"
)

// MarketDataProvider retrieves historical/intraday OHLCV bars for a ticker.
// Implementations own their retry/backoff policy; the engine treats any
// error (including ErrNoData) as "skip this trade for the current cycle".
type MarketDataProvider interface {
	// FetchBars returns bars for [start, end) at the requested granularity,
	// sorted ascending by timestamp. Returns ErrNoData when the window holds
	// no bars; never panics on provider-side unavailability.
	FetchBars(ctx context.Context, ticker string, start, end time.Time, interval domain.Granularity) ([]domain.Bar, error)
}
