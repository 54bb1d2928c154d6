package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/engine"
	"nsePaperTracker/internal/intake"
	"nsePaperTracker/internal/markethours"
	"nsePaperTracker/internal/ports"
)

// TrackerService orchestrates signal intake, the trade ledger and the
// lifecycle engine behind one application-facing surface.
type TrackerService struct {
	logger       ports.Logger
	store        ports.TradeStore
	engine       *engine.Engine
	pollInterval time.Duration
	now          func() time.Time
}

// Config holds the service dependencies.
type Config struct {
	Logger       ports.Logger
	Store        ports.TradeStore
	Engine       *engine.Engine
	PollInterval time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewTrackerService creates a new application service instance.
func NewTrackerService(cfg Config) (*TrackerService, error) {
	if cfg.Logger == nil || cfg.Store == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("missing required dependencies for TrackerService")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("configuration PollInterval must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TrackerService{
		logger:       cfg.Logger,
		store:        cfg.Store,
		engine:       cfg.Engine,
		pollInterval: cfg.PollInterval,
		now:          now,
	}, nil
}

// SubmitSignal normalizes a raw signal payload and registers it in the
// ledger as a pending trade. The returned string explains the outcome
// ("trade added", "trade updated", or a rejection reason).
func (s *TrackerService) SubmitSignal(ctx context.Context, payload map[string]interface{}, strategy domain.StrategyKind) (bool, string, error) {
	op := "SubmitSignal"

	proposal, err := intake.Normalize(payload)
	if err != nil {
		s.logger.Warn(ctx, op+": Rejected malformed signal", map[string]interface{}{"reason": err.Error()})
		return false, "invalid signal", err
	}

	signalDate := markethours.Midnight(s.now().In(markethours.IST))
	accepted, reason, err := s.store.AddOrUpdate(ctx, proposal, strategy, signalDate)
	if err != nil {
		s.logger.Error(ctx, err, op+": Failed to register signal", map[string]interface{}{"ticker": proposal.Ticker})
		return false, reason, err
	}

	s.logger.Info(ctx, op+": Signal processed", map[string]interface{}{
		"ticker":   proposal.Ticker,
		"strategy": string(strategy),
		"accepted": accepted,
		"reason":   reason,
	})
	return accepted, reason, nil
}

// UpdateStatus runs one engine cycle over the whole ledger.
func (s *TrackerService) UpdateStatus(ctx context.Context) (int, error) {
	return s.engine.UpdateStatus(ctx)
}

// LoadAll returns the full trade ledger in signal-date order.
func (s *TrackerService) LoadAll(ctx context.Context) ([]*domain.Trade, error) {
	return s.store.LoadAll(ctx)
}

// Start begins the tracker's poll loop and blocks until the context is
// cancelled or a shutdown signal arrives.
func (s *TrackerService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Tracker Service...", map[string]interface{}{
		"pollInterval": s.pollInterval.String(),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	// Run one cycle immediately so a restart catches up before the first
	// tick.
	if _, err := s.engine.UpdateStatus(ctx); err != nil {
		s.logger.Error(ctx, err, "Initial update cycle failed")
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Tracker Service stopped.")
			return nil
		case <-ticker.C:
			if _, err := s.engine.UpdateStatus(ctx); err != nil {
				// A failed cycle is retried on the next tick; only a
				// cancelled context ends the loop.
				s.logger.Error(ctx, err, "Update cycle failed")
			}
		}
	}
}
