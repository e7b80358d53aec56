package newsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"stockwizard/internal/domain"
	"stockwizard/internal/utils"
)

// DefaultSize is the number of articles shown on the stock detail page
const DefaultSize = 5

// Client implements domain.NewsProvider with the newsdata.io API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new newsdata.io client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	SourceID    string `json:"source_id"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link"`
}

// GetNews fetches business news mentioning symbol
func (c *Client) GetNews(ctx context.Context, symbol string, size int) ([]domain.NewsArticle, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return []domain.NewsArticle{}, nil
	}
	if size <= 0 {
		size = DefaultSize
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("q", symbol)
	params.Set("language", "en")
	params.Set("category", "business")
	params.Set("size", strconv.Itoa(size))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/news?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: newsdata: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: newsdata returned status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read newsdata response: %v", domain.ErrFetchFailed, err)
	}

	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, fmt.Errorf("%w: invalid newsdata response: %v", domain.ErrFetchFailed, err)
	}
	if _, err := jsonpath.Get("$.results", jobj); err != nil {
		return nil, fmt.Errorf("%w: newsdata response has no results", domain.ErrFetchFailed)
	}

	var payload struct {
		Results []article `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: unexpected newsdata results: %v", domain.ErrFetchFailed, err)
	}

	articles := make([]domain.NewsArticle, 0, len(payload.Results))
	for _, a := range payload.Results {
		item := domain.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			ImageURL:    a.ImageURL,
			Source:      a.SourceID,
			Link:        a.Link,
		}
		if t, err := utils.ParseFlexibleTime(a.PubDate); err == nil {
			item.PublishedAt = t
		}
		articles = append(articles, item)
	}
	return articles, nil
}
