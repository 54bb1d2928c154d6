package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/ports"

	"github.com/jpillora/backoff"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Yahoo rejects requests without a browser-ish user agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

// Client implements the ports.MarketDataProvider interface against the
// Yahoo Finance chart API. Retry/backoff lives here: callers see either
// bars or a final error, never transient failures.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      ports.Logger
	maxAttempts int
	minDelay    time.Duration
	maxDelay    time.Duration
}

// Config holds configuration specific to the Yahoo chart client.
type Config struct {
	BaseURL       string // Override for tests; defaults to the public endpoint
	Logger        ports.Logger
	Timeout       time.Duration // Per-request timeout (e.g., 10 * time.Second)
	MaxAttempts   int           // Attempts per fetch before giving up
	MinRetryDelay time.Duration
	MaxRetryDelay time.Duration
}

// New creates a new Yahoo chart client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	minDelay := cfg.MinRetryDelay
	if minDelay <= 0 {
		minDelay = 500 * time.Millisecond
	}
	maxDelay := cfg.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		logger:      cfg.Logger,
		maxAttempts: maxAttempts,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
	}, nil
}

// chartResponse mirrors the subset of the chart API payload we consume.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchBars retrieves OHLCV bars for [start, end) at the given granularity.
// Bars are returned sorted ascending; epoch timestamps carry no zone, so
// they are materialized as UTC instants and localized by the caller.
func (c *Client) FetchBars(ctx context.Context, ticker string, start, end time.Time, interval domain.Granularity) ([]domain.Bar, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", string(interval))
	q.Set("includePrePost", "false")
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	body, err := c.getWithRetry(ctx, ticker, reqURL)
	if err != nil {
		return nil, err
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", ticker, err)
	}
	if parsed.Chart.Error != nil {
		c.logger.Warn(ctx, "Chart API returned an error payload", map[string]interface{}{
			"ticker": ticker, "code": parsed.Chart.Error.Code, "description": parsed.Chart.Error.Description,
		})
		if parsed.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("ticker %s: %w", ticker, ports.ErrUnknownTicker)
		}
		return nil, fmt.Errorf("chart error %s for %s: %w", parsed.Chart.Error.Code, ticker, ports.ErrProviderUnavailable)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("ticker %s: %w", ticker, ports.ErrNoData)
	}

	result := parsed.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Thinly traded minutes come back as nulls; they carry no price
		// information and are dropped.
		if i >= len(quote.Open) || quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		bar := domain.Bar{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      *quote.Open[i],
			High:      *quote.High[i],
			Low:       *quote.Low[i],
			Close:     *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("ticker %s: %w", ticker, ports.ErrNoData)
	}

	// The API serves ascending timestamps; sort defensively anyway since
	// the engine's replay depends on strict chronological order.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	return bars, nil
}

// getWithRetry performs the GET with exponential backoff on transient
// failures (network errors, 429, 5xx). Non-retryable statuses fail fast.
func (c *Client) getWithRetry(ctx context.Context, ticker, reqURL string) ([]byte, error) {
	b := &backoff.Backoff{
		Min:    c.minDelay,
		Max:    c.maxDelay,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := b.Duration()
			c.logger.Debug(ctx, "Retrying chart fetch", map[string]interface{}{
				"ticker": ticker, "attempt": attempt, "delay": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch %s: %w", ticker, ports.ErrContextCanceled)
			}
		}

		body, retryable, err := c.get(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("fetch %s failed after %d attempts: %w", ticker, c.maxAttempts, lastErr)
}

func (c *Client) get(ctx context.Context, reqURL string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, fmt.Errorf("%w: %v", ports.ErrTimeout, err)
		}
		return nil, true, fmt.Errorf("%w: %v", ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, true, fmt.Errorf("failed to read chart response: %w", readErr)
		}
		return data, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ports.ErrUnknownTicker
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, ports.ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", ports.ErrProviderUnavailable, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: unexpected status %d", ports.ErrInvalidRequest, resp.StatusCode)
	}
}
