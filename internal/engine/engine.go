// Package engine implements the trade lifecycle state machine: it polls
// historical/intraday bars for every live trade in the ledger and advances
// each through entry confirmation, stop/target monitoring, breakeven
// ratcheting and end-of-session resolution.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/markethours"
	"nsePaperTracker/internal/metrics"
	"nsePaperTracker/internal/ports"
)

const (
	defaultMaxConcurrentFetches = 4
	defaultSwingEntrySessions   = 5
)

// Config holds the engine's dependencies and tuning knobs.
type Config struct {
	Provider ports.MarketDataProvider
	Store    ports.TradeStore
	Logger   ports.Logger
	Metrics  *metrics.Metrics // optional

	// MaxConcurrentFetches bounds the worker pool fetching bars in
	// parallel. Trades are independent; only the ledger write is serial.
	MaxConcurrentFetches int

	// SwingEntrySessions is the number of trading sessions after the
	// signal date during which a pending swing trade may still trigger.
	SwingEntrySessions int

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Engine advances trades against market bars. A single-flight mutex makes
// concurrent UpdateStatus invocations mutually exclusive so two overlapping
// full-ledger rewrites can never lose updates.
type Engine struct {
	provider           ports.MarketDataProvider
	store              ports.TradeStore
	logger             ports.Logger
	metrics            *metrics.Metrics
	maxConcurrent      int
	swingEntrySessions int
	now                func() time.Time

	mu sync.Mutex
}

// New creates a new lifecycle engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Provider == nil || cfg.Store == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for engine")
	}
	maxConcurrent := cfg.MaxConcurrentFetches
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentFetches
	}
	swingSessions := cfg.SwingEntrySessions
	if swingSessions <= 0 {
		swingSessions = defaultSwingEntrySessions
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		provider:           cfg.Provider,
		store:              cfg.Store,
		logger:             cfg.Logger,
		metrics:            cfg.Metrics,
		maxConcurrent:      maxConcurrent,
		swingEntrySessions: swingSessions,
		now:                now,
	}, nil
}

// UpdateStatus loads the ledger, advances every non-terminal trade against
// fresh bars, and commits all mutations in one atomic ledger replace.
// Per-trade failures are isolated: a trade that cannot be evaluated this
// cycle is skipped and retried on the next poll. Returns the number of
// trades actually mutated.
func (e *Engine) UpdateStatus(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := e.now()

	trades, err := e.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load ledger: %w", err)
	}

	var live []*domain.Trade
	for _, t := range trades {
		if t.IsLive() {
			live = append(live, t)
		}
	}

	results := make([]Result, len(live))
	sem := make(chan struct{}, e.maxConcurrent)
	var wg sync.WaitGroup
	for i, t := range live {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, t *domain.Trade) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.processTrade(ctx, t)
		}(i, t)
	}
	wg.Wait()

	mutated := 0
	for _, res := range results {
		switch res.Outcome {
		case OutcomeUpdated:
			mutated++
		case OutcomeSkipped:
			e.logger.Debug(ctx, "Trade skipped this cycle", map[string]interface{}{
				"tradeID": res.TradeID, "ticker": res.Ticker, "reason": fmt.Sprint(res.Err),
			})
		case OutcomeError:
			e.logger.Error(ctx, res.Err, "Trade could not be evaluated", map[string]interface{}{
				"tradeID": res.TradeID, "ticker": res.Ticker,
			})
		}
		e.observeOutcome(res.Outcome)
	}

	if mutated > 0 {
		if err := e.store.ReplaceAll(ctx, trades); err != nil {
			return 0, fmt.Errorf("failed to commit ledger: %w", err)
		}
	}

	e.observeCycle(started, mutated, trades)
	e.logger.Info(ctx, "Update cycle finished", map[string]interface{}{
		"live": len(live), "mutated": mutated, "elapsed": e.now().Sub(started).String(),
	})
	return mutated, nil
}

// processTrade fetches the relevant bar window for one trade and replays
// it through the state machine. It never mutates persisted state on a
// fetch failure.
func (e *Engine) processTrade(ctx context.Context, t *domain.Trade) Result {
	res := Result{TradeID: t.ID, Ticker: t.Ticker}
	now := e.now()

	if !markethours.CoversYear(t.SignalDate.In(markethours.IST).Year()) {
		// Session math degrades to weekday-only checks for this trade.
		e.logger.Warn(ctx, "Signal date outside holiday calendar coverage", map[string]interface{}{
			"tradeID": t.ID, "ticker": t.Ticker, "signalDate": t.SignalDate.Format("2006-01-02"),
		})
	}

	window, err := e.selectWindow(t, now)
	if err != nil {
		res.Outcome, res.Err = OutcomeSkipped, err
		return res
	}

	bars, err := e.provider.FetchBars(ctx, t.Ticker, window.start, window.end, window.granularity)
	if err != nil {
		if errors.Is(err, ports.ErrNoData) {
			res.Outcome, res.Err = OutcomeSkipped, err
		} else {
			res.Outcome, res.Err = OutcomeError, err
			if e.metrics != nil {
				e.metrics.FetchErrors.Inc()
			}
		}
		return res
	}

	filtered := window.filter(bars)
	if len(filtered) == 0 {
		res.Outcome, res.Err = OutcomeSkipped, ports.ErrNoData
		return res
	}

	if replay(t, filtered, window.sessionDone) {
		res.Outcome = OutcomeUpdated
	}
	return res
}

// barWindow describes the fetch window and in-window filter for one trade.
type barWindow struct {
	start, end  time.Time
	granularity domain.Granularity
	sessionDone bool
	filter      func([]domain.Bar) []domain.Bar
}

// selectWindow picks the bar window per strategy kind. Intraday trades use
// minute bars for the signal date's session (falling forward to the next
// trading day when the signal date is not a session); swing trades use
// daily bars strictly after the signal date, which keeps the signal day's
// own bar out of the entry check.
func (e *Engine) selectWindow(t *domain.Trade, now time.Time) (barWindow, error) {
	switch t.Strategy {
	case domain.Intraday:
		sessionDay := markethours.Midnight(t.SignalDate)
		if !markethours.IsTradingDay(sessionDay) {
			sessionDay = markethours.NextTradingDay(sessionDay)
		}
		return barWindow{
			start:       sessionDay,
			end:         sessionDay.AddDate(0, 0, 1),
			granularity: domain.GranularityMinute,
			sessionDone: markethours.SessionDone(sessionDay, now),
			filter: func(bars []domain.Bar) []domain.Bar {
				kept := bars[:0:0]
				for _, b := range bars {
					if markethours.SameDay(b.Timestamp, sessionDay) && markethours.InSession(b.Timestamp) {
						kept = append(kept, b)
					}
				}
				return kept
			},
		}, nil

	case domain.Swing:
		signalDay := markethours.Midnight(t.SignalDate)
		expiry := markethours.AddTradingDays(signalDay, e.swingEntrySessions)
		return barWindow{
			start:       signalDay,
			end:         now,
			granularity: domain.GranularityDaily,
			sessionDone: markethours.SessionDone(expiry, now),
			filter: func(bars []domain.Bar) []domain.Bar {
				kept := bars[:0:0]
				for _, b := range bars {
					if markethours.Midnight(b.Timestamp).After(signalDay) {
						kept = append(kept, b)
					}
				}
				return kept
			},
		}, nil
	}
	return barWindow{}, fmt.Errorf("trade %s has unknown strategy %q: %w", t.ID, t.Strategy, ports.ErrInvalidRequest)
}

func (e *Engine) observeOutcome(o Outcome) {
	if e.metrics == nil {
		return
	}
	e.metrics.TradeOutcomes.WithLabelValues(o.String()).Inc()
}

func (e *Engine) observeCycle(started time.Time, mutated int, trades []*domain.Trade) {
	if e.metrics == nil {
		return
	}
	e.metrics.UpdateCycles.Inc()
	e.metrics.TradesMutated.Add(float64(mutated))
	e.metrics.CycleDuration.Observe(e.now().Sub(started).Seconds())

	pending, open := 0, 0
	for _, t := range trades {
		switch t.Status {
		case domain.StatusWaitingEntry:
			pending++
		case domain.StatusOpen:
			open++
		}
	}
	e.metrics.PendingTrades.Set(float64(pending))
	e.metrics.OpenTrades.Set(float64(open))
}
