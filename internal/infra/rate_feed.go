package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// rateResponse is the payload the feed expects, e.g.
// {"base":"USDT","quote":"AED","rate":"3.6725"}. rate may be a JSON string or number.
type rateResponse struct {
	Base  string          `json:"base"`
	Quote string          `json:"quote"`
	Rate  decimal.Decimal `json:"rate"`
}

// RateFeed polls a USDT -> fiat base rate used to jitter generated order rates.
type RateFeed struct {
	onUpdate     func(decimal.Decimal)
	rate         decimal.Decimal
	mu           sync.RWMutex
	pollInterval time.Duration
	apiURL       string
	httpClient   *http.Client
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	retryDelay   time.Duration
}

// NewRateFeed creates a feed polling apiURL every pollIntervalSec seconds.
func NewRateFeed(apiURL string, pollIntervalSec int, onUpdate func(decimal.Decimal)) *RateFeed {
	interval := 60 * time.Second
	if pollIntervalSec > 0 {
		interval = time.Duration(pollIntervalSec) * time.Second
	}
	return &RateFeed{
		onUpdate:     onUpdate,
		rate:         decimal.Zero,
		pollInterval: interval,
		apiURL:       apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryDelay: time.Second,
	}
}

// Start returns immediately. The first fetch runs in the polling goroutine,
// which keeps going until ctx is done or Stop is called.
func (f *RateFeed) Start(ctx context.Context) error {
	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Rate polling panic recovered", slog.Any("panic", r))
			}
		}()

		if err := f.fetchRate(ctx); err != nil {
			slog.Warn("Initial rate fetch failed", slog.Any("error", err))
			// Continue anyway - will retry on next tick
		}

		ticker := time.NewTicker(f.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Rate polling stopped")
				return
			case <-ticker.C:
				if err := f.fetchRate(ctx); err != nil {
					slog.Warn("Rate fetch failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

// fetchRate fetches the current rate with up to three attempts and exponential backoff.
func (f *RateFeed) fetchRate(ctx context.Context) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if i > 0 {
			delay := f.retryDelay * time.Duration(1<<uint(i-1))
			slog.Info("Retrying rate fetch", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := f.doFetch(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Warn("Rate fetch attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
	}
	return lastErr
}

func (f *RateFeed) doFetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return err
	}

	var data rateResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return err
	}
	if !data.Rate.IsPositive() {
		return fmt.Errorf("non-positive rate %s", data.Rate)
	}

	f.mu.Lock()
	oldRate := f.rate
	f.rate = data.Rate
	f.mu.Unlock()

	if !oldRate.Equal(data.Rate) {
		slog.Info("Base rate updated",
			slog.String("rate", data.Rate.String()),
			slog.String("old_rate", oldRate.String()),
			slog.String("quote", data.Quote),
		)
		if f.onUpdate != nil {
			f.onUpdate(data.Rate)
		}
	}

	return nil
}

// Stop stops the polling
func (f *RateFeed) Stop() {
	if f.cancel != nil {
		f.cancel()
		f.wg.Wait()
	}
}

// GetRate returns the latest rate, or zero before the first successful fetch.
func (f *RateFeed) GetRate() decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rate
}
