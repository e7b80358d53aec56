package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockwizard/internal/domain"
)

func TestCachedQuoteProviderReadThrough(t *testing.T) {
	next := &fakeQuotes{prices: map[string]float64{"AAPL": 100, "BTC": 60000}}
	cache := newFakeCache()
	p := NewCachedQuoteProvider(next, cache, 5*time.Minute)
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }
	ctx := context.Background()

	quotes, err := p.GetLatest(ctx, []string{"aapl", "BTC"})
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if len(quotes) != 2 || quotes[0].Symbol != "AAPL" || quotes[1].Symbol != "BTC" {
		t.Fatalf("GetLatest() = %+v, want input order", quotes)
	}
	if cache.puts != 2 {
		t.Errorf("cache puts = %d, want 2", cache.puts)
	}

	now = now.Add(4 * time.Minute)
	next.prices["AAPL"] = 999
	quotes, _ = p.GetLatest(ctx, []string{"AAPL", "BTC"})
	if len(next.calls) != 1 {
		t.Errorf("provider calls = %d, want 1 (served from cache)", len(next.calls))
	}
	if quotes[0].Close != 100 {
		t.Errorf("cached close = %v, want 100", quotes[0].Close)
	}

	now = now.Add(2 * time.Minute)
	quotes, _ = p.GetLatest(ctx, []string{"AAPL"})
	if len(next.calls) != 2 || quotes[0].Close != 999 {
		t.Errorf("after expiry: calls = %d, close = %v, want refetch", len(next.calls), quotes[0].Close)
	}
}

func TestCachedQuoteProviderFetchesOnlyMisses(t *testing.T) {
	next := &fakeQuotes{prices: map[string]float64{"AAPL": 100, "MSFT": 400}}
	cache := newFakeCache()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	cache.Put(context.Background(), domain.Quote{Symbol: "AAPL", Close: 101}, now.Add(time.Minute))

	p := NewCachedQuoteProvider(next, cache, time.Minute)
	p.now = func() time.Time { return now }

	quotes, err := p.GetLatest(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if len(next.calls) != 1 || len(next.calls[0]) != 1 || next.calls[0][0] != "MSFT" {
		t.Errorf("provider calls = %v, want only MSFT", next.calls)
	}
	if quotes[0].Close != 101 || quotes[1].Close != 400 {
		t.Errorf("quotes = %+v", quotes)
	}
}

func TestCachedQuoteProviderBypassesBrokenCache(t *testing.T) {
	next := &fakeQuotes{prices: map[string]float64{"AAPL": 100}}
	cache := newFakeCache()
	cache.getErr = errors.New("database is locked")
	p := NewCachedQuoteProvider(next, cache, time.Minute)

	quotes, err := p.GetLatest(context.Background(), []string{"AAPL"})
	if err != nil || len(quotes) != 1 {
		t.Fatalf("GetLatest() = %v, %v, want provider result", quotes, err)
	}
}

func TestCachedQuoteProviderEmptyAndFailure(t *testing.T) {
	next := &fakeQuotes{err: domain.ErrFetchFailed}
	p := NewCachedQuoteProvider(next, newFakeCache(), time.Minute)

	quotes, err := p.GetLatest(context.Background(), nil)
	if err != nil || len(quotes) != 0 || len(next.calls) != 0 {
		t.Errorf("GetLatest(nil) = %v, %v with %d calls", quotes, err, len(next.calls))
	}
	if _, err := p.GetLatest(context.Background(), []string{"AAPL"}); !errors.Is(err, domain.ErrFetchFailed) {
		t.Errorf("GetLatest() error = %v, want ErrFetchFailed", err)
	}
}
