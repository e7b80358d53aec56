package marketstack

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"stockwizard/internal/domain"
)

func newTestServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Query().Get("access_key") != "test-key" {
			t.Errorf("access_key = %q, want test-key", r.URL.Query().Get("access_key"))
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetLatestEmptyMakesNoRequest(t *testing.T) {
	var hits int32
	srv := newTestServer(t, http.StatusOK, `{"data":[]}`, &hits)
	c := NewClient(srv.URL, "test-key", time.Minute)

	quotes, err := c.GetLatest(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("GetLatest() = %v, want empty", quotes)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("server hits = %d, want 0", hits)
	}
}

func TestGetLatestParsesAndCaches(t *testing.T) {
	var hits int32
	body := `{"pagination":{"count":2},"data":[
		{"symbol":"AAPL","name":"Apple Inc","open":100,"high":106,"low":99,"close":105,"volume":1000,"date":"2024-06-21T00:00:00+0000"},
		{"symbol":"MSFT","open":400,"high":410,"low":395,"close":390,"volume":500,"date":"2024-06-21T00:00:00+0000"}
	]}`
	srv := newTestServer(t, http.StatusOK, body, &hits)
	c := NewClient(srv.URL, "test-key", time.Minute)
	now := time.Date(2024, 6, 22, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	quotes, err := c.GetLatest(context.Background(), []string{"aapl", "MSFT"})
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("len(quotes) = %d, want 2", len(quotes))
	}
	if quotes[0].Symbol != "AAPL" || quotes[0].Name != "Apple Inc" || quotes[0].Close != 105 {
		t.Errorf("quotes[0] = %+v", quotes[0])
	}
	if quotes[1].Name != "" {
		t.Errorf("quotes[1].Name = %q, want empty when the provider omits it", quotes[1].Name)
	}
	if want := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC); !quotes[0].Date.Equal(want) {
		t.Errorf("quotes[0].Date = %v, want %v", quotes[0].Date, want)
	}

	if _, err := c.GetLatest(context.Background(), []string{"AAPL", "MSFT"}); err != nil {
		t.Fatalf("GetLatest() cached error = %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("server hits = %d, want 1 (second call served from cache)", hits)
	}

	now = now.Add(61 * time.Second)
	if _, err := c.GetLatest(context.Background(), []string{"AAPL", "MSFT"}); err != nil {
		t.Fatalf("GetLatest() after expiry error = %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("server hits = %d, want 2 after cache expiry", hits)
	}
}

func TestGetLatestFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-2xx", http.StatusTooManyRequests, `{"error":{"code":"rate_limit_reached"}}`},
		{"missing data", http.StatusOK, `{"error":{"code":"invalid_access_key"}}`},
		{"data not a list", http.StatusOK, `{"data":{"symbol":"AAPL"}}`},
		{"invalid json", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := newTestServer(t, tt.status, tt.body, &hits)
			c := NewClient(srv.URL, "test-key", time.Minute)

			_, err := c.GetLatest(context.Background(), []string{"AAPL"})
			if !errors.Is(err, domain.ErrFetchFailed) {
				t.Fatalf("GetLatest() error = %v, want ErrFetchFailed", err)
			}
			if len(c.cache) != 0 {
				t.Errorf("failed response was cached")
			}
		})
	}
}

func TestSearch(t *testing.T) {
	var hits int32
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		gotLimit = r.URL.Query().Get("limit")
		if r.URL.Path != "/tickers" {
			t.Errorf("path = %s, want /tickers", r.URL.Path)
		}
		w.Write([]byte(`{"data":[
			{"symbol":"AAPL","name":"Apple Inc","stock_exchange":{"name":"NASDAQ Stock Exchange","acronym":"NASDAQ"}},
			{"symbol":"aapl.xc","name":"Apple Inc CDR"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Minute)
	matches, err := c.Search(context.Background(), "apple", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotLimit != "8" {
		t.Errorf("limit = %s, want 8", gotLimit)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Exchange != "NASDAQ Stock Exchange" {
		t.Errorf("matches[0].Exchange = %q", matches[0].Exchange)
	}
	if matches[1].Exchange != "Unknown" || matches[1].Symbol != "AAPL.XC" {
		t.Errorf("matches[1] = %+v, want Unknown exchange and uppercase symbol", matches[1])
	}

	if _, err := c.Search(context.Background(), "   ", 5); err != nil {
		t.Fatalf("Search(blank) error = %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("server hits = %d, want 1 (blank query makes no request)", hits)
	}
}

func TestHistory(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"data":[
			{"symbol":"AAPL","close":103,"date":"2024-06-21T00:00:00+0000"},
			{"symbol":"AAPL","close":102,"date":"2024-06-20T00:00:00+0000"},
			{"symbol":"AAPL","close":101,"date":"2024-06-19T00:00:00+0000"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Minute)
	quotes, err := c.History(context.Background(), "aapl", domain.Range1M)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if gotLimit != "90" {
		t.Errorf("limit = %s, want 90", gotLimit)
	}
	if len(quotes) != 3 || quotes[0].Close != 101 || quotes[2].Close != 103 {
		t.Errorf("History() = %+v, want oldest first", quotes)
	}
}

func TestHistoryTooFewPoints(t *testing.T) {
	var hits int32
	srv := newTestServer(t, http.StatusOK, `{"data":[{"symbol":"AAPL","close":1,"date":"2024-06-21"}]}`, &hits)
	c := NewClient(srv.URL, "test-key", time.Minute)

	if _, err := c.History(context.Background(), "AAPL", domain.Range1D); !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("History() error = %v, want ErrFetchFailed", err)
	}
}
