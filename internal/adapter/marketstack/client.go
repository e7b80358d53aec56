package marketstack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"stockwizard/internal/domain"
	"stockwizard/internal/utils"
)

// DefaultSearchLimit is the ticker search page size used when none is given
const DefaultSearchLimit = 8

// Client implements domain.QuoteProvider and domain.TickerSearcher on top of
// the marketstack REST API. Successful responses are cached in memory per
// endpoint and query for the configured TTL.
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
	ttl        time.Duration
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	body      []byte
	fetchedAt time.Time
}

// NewClient creates a new marketstack client
func NewClient(baseURL, accessKey string, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

// FlexibleTime handles the timestamp formats marketstack returns
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom JSON unmarshalling for flexible timestamp parsing
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		return nil
	}
	t, err := utils.ParseFlexibleTime(s)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

type eodBar struct {
	Symbol string       `json:"symbol"`
	Name   string       `json:"name"`
	Open   float64      `json:"open"`
	High   float64      `json:"high"`
	Low    float64      `json:"low"`
	Close  float64      `json:"close"`
	Volume float64      `json:"volume"`
	Date   FlexibleTime `json:"date"`
}

func (b eodBar) toQuote() domain.Quote {
	return domain.Quote{
		Symbol: strings.ToUpper(b.Symbol),
		Name:   b.Name,
		Open:   b.Open,
		Close:  b.Close,
		High:   b.High,
		Low:    b.Low,
		Volume: b.Volume,
		Date:   b.Date.Time,
	}
}

type ticker struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	StockExchange *struct {
		Name    string `json:"name"`
		Acronym string `json:"acronym"`
	} `json:"stock_exchange"`
}

// GetLatest fetches the latest end-of-day quote for each symbol.
// An empty symbol set returns an empty result without a network call.
func (c *Client) GetLatest(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	symbols = domain.NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return []domain.Quote{}, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("limit", strconv.Itoa(len(symbols)))

	var bars []eodBar
	if err := c.get(ctx, "/eod/latest", params, &bars); err != nil {
		return nil, err
	}

	quotes := make([]domain.Quote, 0, len(bars))
	for _, b := range bars {
		quotes = append(quotes, b.toQuote())
	}
	return quotes, nil
}

// History fetches end-of-day quotes for the range, oldest first.
// Fewer than two points is reported as ErrFetchFailed.
func (c *Client) History(ctx context.Context, symbol string, r domain.HistoryRange) ([]domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrValidationFailed)
	}

	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("limit", strconv.Itoa(r.Points()))

	var bars []eodBar
	if err := c.get(ctx, "/eod", params, &bars); err != nil {
		return nil, err
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: not enough history for %s", domain.ErrFetchFailed, symbol)
	}

	// API returns newest first
	quotes := make([]domain.Quote, len(bars))
	for i, b := range bars {
		quotes[len(bars)-1-i] = b.toQuote()
	}
	return quotes, nil
}

// Search looks up tickers matching query. limit <= 0 uses DefaultSearchLimit.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.TickerMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.TickerMatch{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(limit))

	var tickers []ticker
	if err := c.get(ctx, "/tickers", params, &tickers); err != nil {
		return nil, err
	}

	matches := make([]domain.TickerMatch, 0, len(tickers))
	for _, t := range tickers {
		exchange := "Unknown"
		if t.StockExchange != nil && t.StockExchange.Name != "" {
			exchange = t.StockExchange.Name
		}
		matches = append(matches, domain.TickerMatch{
			Symbol:   strings.ToUpper(t.Symbol),
			Name:     t.Name,
			Exchange: exchange,
		})
	}
	return matches, nil
}

// get performs a GET on endpoint and decodes the "data" array into out
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	key := endpoint + "?" + params.Encode()
	if body, ok := c.lookup(key); ok {
		return decodeData(body, out)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("access_key", c.accessKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: marketstack %s: %v", domain.ErrFetchFailed, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: marketstack %s returned status %d", domain.ErrFetchFailed, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read marketstack response: %v", domain.ErrFetchFailed, err)
	}

	if err := decodeData(body, out); err != nil {
		return err
	}
	c.store(key, body)
	return nil
}

// decodeData checks that the payload carries a "data" array and decodes it
func decodeData(body []byte, out any) error {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return fmt.Errorf("%w: invalid marketstack response: %v", domain.ErrFetchFailed, err)
	}
	jval, err := jsonpath.Get("$.data", jobj)
	if err != nil {
		return fmt.Errorf("%w: marketstack response has no data", domain.ErrFetchFailed)
	}
	if _, ok := jval.([]any); !ok {
		return fmt.Errorf("%w: marketstack data is not a list", domain.ErrFetchFailed)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: invalid marketstack response: %v", domain.ErrFetchFailed, err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: unexpected marketstack data: %v", domain.ErrFetchFailed, err)
	}
	return nil
}

func (c *Client) lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		delete(c.cache, key)
		return nil, false
	}
	return entry.body, true
}

func (c *Client) store(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.cache {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.cache, k)
		}
	}
	c.cache[key] = cacheEntry{body: body, fetchedAt: now}
}
