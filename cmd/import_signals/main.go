package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"nsePaperTracker/config"
	"nsePaperTracker/internal/adapters/logger"
	"nsePaperTracker/internal/adapters/sqlite"
	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/intake"
	"nsePaperTracker/internal/markethours"
)

// signalFile is the on-disk format: a JSON array of raw signal payloads as
// exported by the screener dashboards.
type signalFile []map[string]interface{}

func main() {
	filePath := flag.String("file", "", "path to a JSON array of signal payloads")
	strategyFlag := flag.String("strategy", "SWING", "strategy kind: SWING or INTRADAY")
	signalDateFlag := flag.String("date", "", "signal date as YYYY-MM-DD (defaults to today, IST)")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("FATAL: -file is required")
	}

	strategy, err := parseStrategy(*strategyFlag)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	signalDate := markethours.Midnight(time.Now().In(markethours.IST))
	if *signalDateFlag != "" {
		signalDate, err = time.ParseInLocation("2006-01-02", *signalDateFlag, markethours.IST)
		if err != nil {
			log.Fatalf("FATAL: invalid -date %q: %v", *signalDateFlag, err)
		}
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 3. Initialize Trade Store
	store, err := sqlite.NewStore(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade store: %v", err)
	}
	defer store.Close()

	// 4. Read and register signals
	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to read signal file: %v", err)
	}
	var signals signalFile
	if err := json.Unmarshal(raw, &signals); err != nil {
		log.Fatalf("FATAL: Failed to parse signal file: %v", err)
	}

	added, skipped, rejected := 0, 0, 0
	for i, payload := range signals {
		proposal, err := intake.Normalize(payload)
		if err != nil {
			appLogger.Warn(ctx, "Skipping malformed signal", map[string]interface{}{"index": i, "reason": err.Error()})
			rejected++
			continue
		}
		accepted, reason, err := store.AddOrUpdate(ctx, proposal, strategy, signalDate)
		if err != nil {
			log.Fatalf("FATAL: Failed to register signal for %s: %v", proposal.Ticker, err)
		}
		if accepted {
			added++
		} else {
			skipped++
		}
		appLogger.Info(ctx, "Signal processed", map[string]interface{}{
			"ticker": proposal.Ticker,
			"reason": reason,
		})
	}

	fmt.Printf("Imported %d signals for %s (%s): %d registered, %d skipped, %d rejected\n",
		len(signals), signalDate.Format("2006-01-02"), strategy, added, skipped, rejected)
}

func parseStrategy(s string) (domain.StrategyKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SWING":
		return domain.Swing, nil
	case "INTRADAY":
		return domain.Intraday, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want SWING or INTRADAY)", s)
}
