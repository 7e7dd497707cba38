package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"blip_sim/internal/domain"

	"github.com/shopspring/decimal"
)

func TestRateFeed_FetchRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("Expected user agent %q, got %q", DefaultUserAgent, r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"base":"USDT","quote":"AED","rate":"3.6725"}`))
	}))
	defer server.Close()

	var notified decimal.Decimal
	feed := NewRateFeed(server.URL, 1, func(d decimal.Decimal) { notified = d })

	if err := feed.fetchRate(context.Background()); err != nil {
		t.Fatalf("fetchRate failed: %v", err)
	}

	want := decimal.RequireFromString("3.6725")
	if !feed.GetRate().Equal(want) {
		t.Errorf("Expected rate %s, got %s", want, feed.GetRate())
	}
	if !notified.Equal(want) {
		t.Errorf("Expected onUpdate with %s, got %s", want, notified)
	}
}

func TestRateFeed_NumericRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rate":83.12}`))
	}))
	defer server.Close()

	feed := NewRateFeed(server.URL, 1, nil)
	if err := feed.fetchRate(context.Background()); err != nil {
		t.Fatalf("fetchRate failed: %v", err)
	}
	if !feed.GetRate().Equal(decimal.RequireFromString("83.12")) {
		t.Errorf("Expected 83.12, got %s", feed.GetRate())
	}
}

func TestRateFeed_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	feed := NewRateFeed(server.URL, 1, nil)
	feed.retryDelay = time.Millisecond

	if err := feed.fetchRate(context.Background()); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
	if !feed.GetRate().IsZero() {
		t.Errorf("Rate should stay zero, got %s", feed.GetRate())
	}
}

func TestRateFeed_RejectsNonPositiveRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rate":"0"}`))
	}))
	defer server.Close()

	feed := NewRateFeed(server.URL, 1, nil)
	feed.retryDelay = time.Millisecond

	if err := feed.fetchRate(context.Background()); err == nil {
		t.Error("Expected error for zero rate")
	}
}

func TestRateFeed_StartStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rate":"3.67"}`))
	}))
	defer server.Close()

	feed := NewRateFeed(server.URL, 60, nil)
	if err := feed.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer feed.Stop()

	want := decimal.RequireFromString("3.67")
	deadline := time.Now().Add(2 * time.Second)
	for !feed.GetRate().Equal(want) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !feed.GetRate().Equal(want) {
		t.Errorf("Expected initial fetch to set rate, got %s", feed.GetRate())
	}
}

func TestRateFeed_StartDoesNotWaitForFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	feed := NewRateFeed(server.URL, 60, nil)

	start := time.Now()
	if err := feed.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected Start to return immediately, took %v", elapsed)
	}

	stopped := make(chan struct{})
	go func() {
		feed.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Stop to abort the in-flight fetch")
	}
	if !feed.GetRate().IsZero() {
		t.Errorf("Rate should stay zero, got %s", feed.GetRate())
	}
}

func TestRateFeed_ImplementsInterface(t *testing.T) {
	var _ domain.RateProvider = (*RateFeed)(nil)
}
