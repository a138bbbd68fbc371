package pulse

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"confluence-backtest/internal/httpx"
	"confluence-backtest/internal/interfaces"
	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/news"
	"confluence-backtest/internal/types"
)

const (
	defaultAPIBaseURL = "https://api.alternative.me"
	scrapePageURL     = "https://alternative.me/crypto/fear-and-greed-index/"
)

// Client fetches the market pulse from the alternative.me fear & greed API,
// degrading to a page scrape and then to headline sentiment when the API is
// unreachable. A total failure returns an error; callers treat that as
// "no gate" rather than aborting a run.
type Client struct {
	http    *httpx.Client
	baseURL string
	news    *news.Service
}

var _ interfaces.PulseProvider = (*Client)(nil)

// Option configures the pulse client
type Option func(*Client)

// WithBaseURL overrides the fear & greed API base URL (used in tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHeadlineFallback enables the scraped-headline fallback source
func WithHeadlineFallback(svc *news.Service) Option {
	return func(c *Client) {
		c.news = svc
	}
}

// NewClient creates a pulse client
func NewClient(opts ...Option) *Client {
	c := &Client{baseURL: defaultAPIBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	c.http = httpx.NewClient(
		httpx.WithBaseURL(c.baseURL),
		httpx.WithTimeout(10*time.Second),
		httpx.WithLogging(true),
	)
	return c
}

// fngResponse is the alternative.me /fng/ payload
type fngResponse struct {
	Name string `json:"name"`
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// Pulse fetches the current sentiment payload, trying the JSON API first,
// then the index page, then headline sentiment.
func (c *Client) Pulse(ctx context.Context) (*types.Pulse, error) {
	p, err := c.fetchIndex(ctx)
	if err == nil {
		return p, nil
	}
	logger.Warn(ctx, "Fear & greed API unavailable, trying page scrape", "error", err)

	p, scrapeErr := c.scrapeIndex(ctx)
	if scrapeErr == nil {
		return p, nil
	}
	logger.Warn(ctx, "Fear & greed page scrape failed", "error", scrapeErr)

	if c.news != nil {
		p, newsErr := c.headlinePulse(ctx)
		if newsErr == nil {
			return p, nil
		}
		logger.Warn(ctx, "Headline sentiment fallback failed", "error", newsErr)
	}

	return nil, fmt.Errorf("all pulse sources failed: %w", err)
}

// fetchIndex reads the JSON API
func (c *Client) fetchIndex(ctx context.Context) (*types.Pulse, error) {
	resp, err := c.http.GET(ctx, "/fng/?limit=1")
	if err != nil {
		return nil, err
	}

	var fng fngResponse
	if err := resp.ParseJSON(&fng); err != nil {
		return nil, err
	}
	if len(fng.Data) == 0 {
		return nil, fmt.Errorf("fear & greed response contained no data points")
	}

	value, err := strconv.Atoi(fng.Data[0].Value)
	if err != nil {
		return nil, fmt.Errorf("invalid fear & greed value %q: %w", fng.Data[0].Value, err)
	}

	sentiment := sentimentFromLabel(fng.Data[0].ValueClassification)
	if sentiment == "" {
		sentiment = sentimentFromIndex(value)
	}

	return &types.Pulse{
		Sentiment:      sentiment,
		FearGreedIndex: value,
		Source:         "alternative.me",
	}, nil
}

// scrapeIndex parses the index value off the public page
func (c *Client) scrapeIndex(ctx context.Context) (*types.Pulse, error) {
	page := httpx.NewClient(httpx.WithTimeout(10 * time.Second))
	resp, err := page.GET(ctx, scrapePageURL, httpx.BrowserHeaders())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fear & greed page: %w", err)
	}

	text := strings.TrimSpace(doc.Find(".fng-circle").First().Text())
	if text == "" {
		return nil, fmt.Errorf("fear & greed value not found on page")
	}

	value, err := strconv.Atoi(text)
	if err != nil {
		return nil, fmt.Errorf("non-numeric fear & greed value %q: %w", text, err)
	}

	return &types.Pulse{
		Sentiment:      sentimentFromIndex(value),
		FearGreedIndex: value,
		Source:         "alternative.me/page",
	}, nil
}

// headlinePulse synthesizes a pulse from scraped headline sentiment
func (c *Client) headlinePulse(ctx context.Context) (*types.Pulse, error) {
	sentiment, err := c.news.Sentiment(ctx)
	if err != nil {
		return nil, err
	}

	// Map the -1..+1 headline score onto the 0..100 index scale.
	value := int(50 + sentiment.Score*50)
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return &types.Pulse{
		Sentiment:      sentimentFromIndex(value),
		FearGreedIndex: value,
		Source:         "headlines",
	}, nil
}

// sentimentFromLabel maps the API classification to the sentiment enum
func sentimentFromLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "extreme fear":
		return types.SentimentExtremeFear
	case "fear":
		return types.SentimentFear
	case "neutral":
		return types.SentimentNeutral
	case "greed":
		return types.SentimentGreed
	case "extreme greed":
		return types.SentimentExtremeGreed
	default:
		return ""
	}
}

// sentimentFromIndex buckets a 0..100 index into the sentiment enum
func sentimentFromIndex(value int) string {
	switch {
	case value <= 20:
		return types.SentimentExtremeFear
	case value <= 40:
		return types.SentimentFear
	case value <= 60:
		return types.SentimentNeutral
	case value <= 80:
		return types.SentimentGreed
	default:
		return types.SentimentExtremeGreed
	}
}
