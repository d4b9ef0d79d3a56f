package cryptopanic

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/httpx"
)

const (
	baseURL        = "https://cryptopanic.com"
	defaultTimeout = 5 * time.Second

	// SourceName is attached to every news item
	SourceName = "CryptoPanic"
)

var errNoAPIKey = errors.New("cryptopanic api key not configured")

// CryptoPanic reads recent headlines from the CryptoPanic posts API
type CryptoPanic struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
}

// New creates a new CryptoPanic client. Without an API key every call fails.
func New(apiKey string, timeout time.Duration) *CryptoPanic {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CryptoPanic{
		client:  httpx.New(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// NewWithBaseURL creates a client with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string, timeout time.Duration) *CryptoPanic {
	c := New(apiKey, timeout)
	c.baseURL = url
	return c
}

func (c *CryptoPanic) Name() string {
	return "cryptopanic"
}

// FetchNews returns the posts tagged with ticker in upstream order. An empty
// results array is a valid empty answer; a missing one is an error.
func (c *CryptoPanic) FetchNews(ctx context.Context, ticker core.Ticker) ([]core.NewsItem, error) {
	if c.apiKey == "" {
		return nil, core.WrapError(core.ErrDataUnavailable, errNoAPIKey)
	}

	q := url.Values{}
	q.Set("auth_token", c.apiKey)
	q.Set("currencies", ticker.String())
	u := fmt.Sprintf("%s/api/v1/posts/?%s", c.baseURL, q.Encode())

	var resp postsResponse
	if err := c.client.GetJSON(ctx, u, nil, &resp); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("cryptopanic %s: %w", ticker, err))
	}
	if resp.Results == nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("cryptopanic %s: missing results", ticker))
	}

	items := make([]core.NewsItem, 0, len(*resp.Results))
	for _, p := range *resp.Results {
		items = append(items, core.NewsItem{
			Title:       p.Title,
			Source:      SourceName,
			URL:         p.URL,
			PublishedAt: p.PublishedAt,
		})
	}
	return items, nil
}

// CryptoPanic API response types
type postsResponse struct {
	Results *[]post `json:"results"`
}

type post struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}
