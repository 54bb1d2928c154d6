package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/markethours"
	"nsePaperTracker/internal/ports"
	"nsePaperTracker/internal/risk"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const signalDateLayout = "2006-01-02"

// Store implements the ports.TradeStore interface using SQLite.
type Store struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite trade store.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewStore creates a new SQLite trade store instance.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/live_trades.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// Open database connection
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// Single connection: the ledger is rewritten wholesale once per cycle,
	// so the Go driver must never interleave writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db, logger: cfg.Logger}

	if err := store.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Trade ledger opened", map[string]interface{}{"path": dbPath})

	return store, nil
}

// initializeSchema creates tables if they don't exist.
func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		ticker TEXT NOT NULL,
		strategy TEXT NOT NULL,
		side TEXT NOT NULL,
		signal_date TEXT NOT NULL,
		entry_price REAL NOT NULL,
		stop_loss REAL NOT NULL,
		target REAL NOT NULL,
		initial_stop_loss REAL NOT NULL,
		trailed_stop_loss REAL DEFAULT NULL,
		atr REAL DEFAULT NULL,
		trigger_price REAL DEFAULT NULL,
		vwap REAL DEFAULT NULL,
		status TEXT NOT NULL,
		entry_time TIMESTAMP DEFAULT NULL,
		exit_price REAL DEFAULT NULL,
		exit_time TIMESTAMP DEFAULT NULL,
		pnl_pct REAL NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_trades_key ON trades (ticker, signal_date, strategy);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades (status);
	`
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		s.logger.Info(context.Background(), "Closing trade ledger")
		return s.db.Close()
	}
	return nil
}

// AddOrUpdate applies a trade-open proposal for (ticker, strategy, signalDate).
// A fresh key yields a new WAITING_ENTRY row; a pending row is refreshed in
// place; an open or terminal row rejects the proposal so live risk is never
// silently overwritten.
func (s *Store) AddOrUpdate(ctx context.Context, p domain.TradeProposal, strategy domain.StrategyKind, signalDate time.Time) (bool, string, error) {
	dateStr := signalDate.In(markethours.IST).Format(signalDateLayout)

	existing, err := s.findByKey(ctx, p.Ticker, strategy, dateStr)
	if err != nil {
		return false, "", fmt.Errorf("failed to look up trade for %s: %w", p.Ticker, err)
	}

	lv := risk.ProposalLevels(p)

	if existing != nil {
		switch {
		case existing.Status == domain.StatusWaitingEntry:
			existing.Side = p.Side
			existing.EntryPrice = p.EntryPrice
			existing.StopLoss = lv.StopLoss
			existing.Target = lv.Target
			existing.InitialStopLoss = lv.StopLoss
			existing.ATR = p.ATR
			existing.Trigger = p.Trigger
			existing.VWAP = p.VWAP
			if !containsNote(existing.Notes, "(Updated)") {
				existing.AppendNote("(Updated)")
			}
			if err := s.updateTrade(ctx, existing); err != nil {
				return false, "", err
			}
			s.logger.Debug(ctx, "Pending trade refreshed", map[string]interface{}{"tradeID": existing.ID, "ticker": p.Ticker})
			return true, "trade updated", nil
		case existing.Status == domain.StatusOpen:
			return false, "trade active, cannot update", nil
		default:
			return false, "trade already resolved, cannot update", nil
		}
	}

	trade := &domain.Trade{
		ID:              uuid.NewString()[:8],
		Ticker:          p.Ticker,
		Strategy:        strategy,
		Side:            p.Side,
		SignalDate:      markethours.Midnight(signalDate),
		EntryPrice:      p.EntryPrice,
		StopLoss:        lv.StopLoss,
		Target:          lv.Target,
		InitialStopLoss: lv.StopLoss,
		ATR:             p.ATR,
		Trigger:         p.Trigger,
		VWAP:            p.VWAP,
		Status:          domain.StatusWaitingEntry,
		Notes:           p.Label,
	}

	if err := s.insertTrade(ctx, s.db, trade); err != nil {
		return false, "", err
	}
	s.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": trade.ID, "ticker": trade.Ticker, "strategy": strategy})
	return true, "trade added", nil
}

const tradeColumns = `
	id, ticker, strategy, side, signal_date, entry_price, stop_loss, target,
	initial_stop_loss, trailed_stop_loss, atr, trigger_price, vwap, status,
	entry_time, exit_price, exit_time, pnl_pct, notes`

// findByKey retrieves the most recent trade for (ticker, strategy, signalDate).
// Returns nil, nil when no row matches.
func (s *Store) findByKey(ctx context.Context, ticker string, strategy domain.StrategyKind, dateStr string) (*domain.Trade, error) {
	query := `SELECT` + tradeColumns + `
	FROM trades
	WHERE ticker = ? AND strategy = ? AND signal_date = ?
	ORDER BY rowid DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, ticker, strategy, dateStr)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return trade, nil
}

// LoadAll retrieves every trade in the ledger, oldest signal first.
func (s *Store) LoadAll(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT` + tradeColumns + ` FROM trades ORDER BY signal_date ASC, rowid ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all trades: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during LoadAll: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// ReplaceAll atomically replaces the entire ledger inside one transaction.
func (s *Store) ReplaceAll(ctx context.Context, trades []*domain.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades`); err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}
	for _, trade := range trades {
		if err := s.insertTrade(ctx, tx, trade); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger replace: %w", err)
	}
	s.logger.Debug(ctx, "Ledger replaced", map[string]interface{}{"trades": len(trades)})
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) insertTrade(ctx context.Context, db execer, t *domain.Trade) error {
	const query = `
	INSERT INTO trades (id, ticker, strategy, side, signal_date, entry_price, stop_loss, target,
	                    initial_stop_loss, trailed_stop_loss, atr, trigger_price, vwap, status,
	                    entry_time, exit_price, exit_time, pnl_pct, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, query,
		t.ID, t.Ticker, t.Strategy, t.Side, t.SignalDate.In(markethours.IST).Format(signalDateLayout),
		t.EntryPrice, t.StopLoss, t.Target, t.InitialStopLoss,
		nullFloat(t.TrailedStopLoss), nullFloat(t.ATR), nullFloat(t.Trigger), nullFloat(t.VWAP),
		t.Status, nullTime(t.EntryTime), nullExitPrice(t), nullTime(t.ExitTime), t.PnLPct, t.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert trade %s (%s): %w", t.ID, t.Ticker, err)
	}
	return nil
}

func (s *Store) updateTrade(ctx context.Context, t *domain.Trade) error {
	const query = `
	UPDATE trades
	SET side = ?, entry_price = ?, stop_loss = ?, target = ?, initial_stop_loss = ?,
	    trailed_stop_loss = ?, atr = ?, trigger_price = ?, vwap = ?, status = ?,
	    entry_time = ?, exit_price = ?, exit_time = ?, pnl_pct = ?, notes = ?
	WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		t.Side, t.EntryPrice, t.StopLoss, t.Target, t.InitialStopLoss,
		nullFloat(t.TrailedStopLoss), nullFloat(t.ATR), nullFloat(t.Trigger), nullFloat(t.VWAP),
		t.Status, nullTime(t.EntryTime), nullExitPrice(t), nullTime(t.ExitTime), t.PnLPct, t.Notes,
		t.ID)
	if err != nil {
		return fmt.Errorf("failed to update trade %s: %w", t.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for trade %s: %w", t.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %s not found for update: %w", t.ID, ports.ErrNotFound)
	}
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(sc scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var (
		signalDate               string
		strategy, side, status   string
		trailed, atr, trig, vwap sql.NullFloat64
		entryTime, exitTime      sql.NullTime
		exitPrice                sql.NullFloat64
	)
	err := sc.Scan(
		&t.ID, &t.Ticker, &strategy, &side, &signalDate, &t.EntryPrice, &t.StopLoss, &t.Target,
		&t.InitialStopLoss, &trailed, &atr, &trig, &vwap, &status,
		&entryTime, &exitPrice, &exitTime, &t.PnLPct, &t.Notes)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	t.Strategy = domain.StrategyKind(strategy)
	t.Side = domain.Side(side)
	t.Status = domain.TradeStatus(status)

	parsed, err := time.ParseInLocation(signalDateLayout, signalDate, markethours.IST)
	if err != nil {
		return nil, fmt.Errorf("malformed signal_date %q: %w", signalDate, err)
	}
	t.SignalDate = parsed

	if trailed.Valid {
		t.TrailedStopLoss = &trailed.Float64
	}
	if atr.Valid {
		t.ATR = &atr.Float64
	}
	if trig.Valid {
		t.Trigger = &trig.Float64
	}
	if vwap.Valid {
		t.VWAP = &vwap.Float64
	}
	if entryTime.Valid {
		t.EntryTime = entryTime.Time.In(markethours.IST)
	}
	if exitTime.Valid {
		t.ExitTime = exitTime.Time.In(markethours.IST)
	}
	if exitPrice.Valid {
		t.ExitPrice = exitPrice.Float64
	}
	return t, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// nullExitPrice keeps unresolved trades with a NULL exit instead of a
// misleading zero.
func nullExitPrice(t *domain.Trade) sql.NullFloat64 {
	if t.ExitTime.IsZero() && t.ExitPrice == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: t.ExitPrice, Valid: true}
}

func containsNote(notes, marker string) bool {
	return strings.Contains(notes, marker)
}
