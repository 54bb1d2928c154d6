// Package intake normalizes heterogeneous signal payloads into the canonical
// trade-open proposal consumed by the trade store. Producers disagree on key
// spelling ("Entry Price" vs "EntryPrice") and on which optional risk fields
// they carry; this adapter performs validation and defaulting only, no
// market logic.
package intake

import (
	"fmt"
	"strconv"
	"strings"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/ports"
)

// Key aliases accepted per canonical field, checked in order. Entry price
// aliases mirror the producers' fallback chain: proposed entry first, then
// last traded price, then the safe-entry level.
var (
	tickerKeys  = []string{"Ticker", "ticker", "Symbol", "symbol"}
	entryKeys   = []string{"Entry Price", "EntryPrice", "entry_price", "Current Price", "CurrentPrice", "current_price", "Safe Entry", "SafeEntry", "safe_entry"}
	sideKeys    = []string{"Side", "side", "Direction", "direction"}
	atrKeys     = []string{"ATR", "atr"}
	triggerKeys = []string{"TriggerHigh", "TriggerPrice", "trigger_price", "Trigger", "trigger"}
	vwapKeys    = []string{"VWAP", "vwap"}
	stopKeys    = []string{"Stop Loss", "StopLoss", "stop_loss"}
	targetKeys  = []string{"Target Price", "TargetPrice", "Target", "target"}
	labelKeys   = []string{"Signal", "signal", "Label", "label"}
)

// Normalize converts a loosely-typed signal payload into a TradeProposal.
// Ticker and one of the entry-price aliases are mandatory; everything else
// is optional. Side defaults to Long. Returns ports.ErrInvalidSignal when a
// mandatory field is missing or unparseable.
func Normalize(payload map[string]interface{}) (domain.TradeProposal, error) {
	var p domain.TradeProposal

	ticker, ok := lookupString(payload, tickerKeys)
	if !ok || strings.TrimSpace(ticker) == "" {
		return p, fmt.Errorf("ticker: %w", ports.ErrInvalidSignal)
	}
	p.Ticker = strings.TrimSpace(ticker)

	entry, ok := lookupFloat(payload, entryKeys)
	if !ok || entry <= 0 {
		return p, fmt.Errorf("entry price for %s: %w", p.Ticker, ports.ErrInvalidSignal)
	}
	p.EntryPrice = entry

	side, err := parseSide(payload)
	if err != nil {
		return p, fmt.Errorf("%s: %w", p.Ticker, err)
	}
	p.Side = side

	p.ATR = lookupOptFloat(payload, atrKeys)
	p.Trigger = lookupOptFloat(payload, triggerKeys)
	p.VWAP = lookupOptFloat(payload, vwapKeys)
	p.StopLoss = lookupOptFloat(payload, stopKeys)
	p.Target = lookupOptFloat(payload, targetKeys)

	if label, ok := lookupString(payload, labelKeys); ok && label != "" {
		p.Label = label
	} else {
		p.Label = "Manual"
	}

	return p, nil
}

// parseSide maps the producers' side spellings onto domain.Side.
// Absent side means Long.
func parseSide(payload map[string]interface{}) (domain.Side, error) {
	raw, ok := lookupString(payload, sideKeys)
	if !ok || raw == "" {
		return domain.Long, nil
	}
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LONG", "BUY", "B":
		return domain.Long, nil
	case "SHORT", "SELL", "S":
		return domain.Short, nil
	}
	return "", fmt.Errorf("unrecognized side %q: %w", raw, ports.ErrInvalidSignal)
}

func lookupString(payload map[string]interface{}, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := payload[k]; ok && v != nil {
			if s, ok := v.(string); ok {
				return s, true
			}
			return fmt.Sprintf("%v", v), true
		}
	}
	return "", false
}

// lookupFloat coerces the first present alias to float64. JSON decoding
// yields float64, but CSV-sourced payloads carry strings and hand-built
// ones may carry ints.
func lookupFloat(payload map[string]interface{}, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func lookupOptFloat(payload map[string]interface{}, keys []string) *float64 {
	if f, ok := lookupFloat(payload, keys); ok {
		return &f
	}
	return nil
}
