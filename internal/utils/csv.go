package utils

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"nsePaperTracker/internal/domain"
)

// WriteTradesToCSV exports the ledger in a spreadsheet-friendly layout.
func WriteTradesToCSV(trades []*domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{
		"id", "ticker", "strategy", "side", "signal_date", "status",
		"entry_price", "stop_loss", "target", "trailed_stop_loss",
		"entry_time", "exit_time", "exit_price", "pnl_pct", "notes",
	})

	for _, t := range trades {
		writer.Write([]string{
			t.ID,
			t.Ticker,
			string(t.Strategy),
			string(t.Side),
			t.SignalDate.Format("2006-01-02"),
			string(t.Status),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(t.StopLoss, 'f', -1, 64),
			strconv.FormatFloat(t.Target, 'f', -1, 64),
			formatOptFloat(t.TrailedStopLoss),
			formatOptTime(t.EntryTime),
			formatOptTime(t.ExitTime),
			strconv.FormatFloat(t.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(t.PnLPct, 'f', 2, 64),
			t.Notes,
		})
	}
	return writer.Error()
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatOptTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
