package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"nsePaperTracker/config"
	"nsePaperTracker/internal/adapters/logger"
	"nsePaperTracker/internal/adapters/sqlite"
	"nsePaperTracker/internal/analytics"
	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/utils"
)

func main() {
	csvPath := flag.String("csv", "", "optional path to export the full ledger as CSV")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger and Store
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	store, err := sqlite.NewStore(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade store: %v", err)
	}
	defer store.Close()

	trades, err := store.LoadAll(context.Background())
	if err != nil {
		log.Fatalf("FATAL: Failed to load ledger: %v", err)
	}
	if len(trades) == 0 {
		fmt.Println("Ledger is empty.")
		return
	}

	if *csvPath != "" {
		if err := utils.WriteTradesToCSV(trades, *csvPath); err != nil {
			log.Fatalf("FATAL: Failed to export CSV: %v", err)
		}
		fmt.Printf("Ledger exported to %s\n", *csvPath)
	}

	summary := analytics.Analyze(trades)

	fmt.Println("## Ledger Summary")
	fmt.Printf("Signals: %d  Resolved: %d  Expired: %d\n\n",
		summary.TotalSignals, summary.ResolvedTrades, summary.Expired)

	if summary.ResolvedTrades == 0 {
		fmt.Println("No resolved trades yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Metric\tValue\t")
	fmt.Fprintf(w, "Win Rate\t%.1f%%\t\n", summary.WinRate*100)
	fmt.Fprintf(w, "Total PnL\t%.2f%%\t\n", summary.TotalPnLPct)
	fmt.Fprintf(w, "Avg Win\t%.2f%%\t\n", summary.AverageWinPct)
	fmt.Fprintf(w, "Avg Loss\t%.2f%%\t\n", summary.AverageLossPct)
	fmt.Fprintf(w, "Profit Factor\t%.2f\t\n", summary.ProfitFactor)
	fmt.Fprintf(w, "Expectancy\t%.2f%%\t\n", summary.Expectancy)
	fmt.Fprintf(w, "Max Win Streak\t%d\t\n", summary.MaxConsecutiveWins)
	fmt.Fprintf(w, "Max Loss Streak\t%d\t\n", summary.MaxConsecutiveLosses)
	w.Flush()

	fmt.Println("\n## By Strategy")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Strategy\tTrades\tWins\tTotal PnL\t")
	for _, kind := range []domain.StrategyKind{domain.Swing, domain.Intraday} {
		b, ok := summary.ByStrategy[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f%%\t\n", kind, b.ResolvedTrades, b.WinningTrades, b.TotalPnLPct)
	}
	w.Flush()

	months := summary.MonthlyReturns()
	if len(months) > 0 {
		fmt.Println("\n## Monthly PnL")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
		fmt.Fprintln(w, "Month\tPnL\t")
		for _, m := range months {
			fmt.Fprintf(w, "%s\t%.2f%%\t\n", m.Month.Format("2006-01"), m.PnLPct)
		}
		w.Flush()
	}
}
