package news

import (
	"context"
	"sync"
	"time"

	"confluence-backtest/internal/logger"
	"confluence-backtest/internal/trace"
)

// Service provides market-wide headline sentiment with caching
type Service struct {
	scraper  *Scraper
	analyzer *Analyzer
	cache    *sentimentCache
	cfg      *ServiceConfig
}

// ServiceConfig configures the headline sentiment service
type ServiceConfig struct {
	MaxArticles    int           // Maximum headlines to scrape per fetch
	CacheDuration  time.Duration // How long to cache sentiment data
	ScraperTimeout time.Duration // Timeout for scraping operations
	Enabled        bool          // Whether headline sentiment is enabled
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    15,
		CacheDuration:  1 * time.Hour,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

// cacheKey is the single cache slot: sentiment here is market-wide, not
// per-symbol.
const cacheKey = "market"

// sentimentCache stores sentiment results temporarily
type sentimentCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	sentiment Sentiment
	timestamp time.Time
}

// newSentimentCache creates a new cache
func newSentimentCache(ttl time.Duration) *sentimentCache {
	return &sentimentCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

func (c *sentimentCache) get(key string) (Sentiment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok {
		return Sentiment{}, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return Sentiment{}, false
	}
	return entry.sentiment, true
}

func (c *sentimentCache) set(key string, s Sentiment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{sentiment: s, timestamp: time.Now()}
}

// NewService creates a headline sentiment service
func NewService(cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		scraper:  NewScraper(cfg.ScraperTimeout),
		analyzer: NewAnalyzer(),
		cache:    newSentimentCache(cfg.CacheDuration),
		cfg:      cfg,
	}
}

// Sentiment returns the current market-wide headline sentiment, scraping
// fresh headlines unless a cached result is still valid
func (s *Service) Sentiment(ctx context.Context) (Sentiment, error) {
	ctx, span := trace.StartSpan(ctx, "news.Sentiment")
	defer span.End()

	if cached, ok := s.cache.get(cacheKey); ok {
		logger.Debug(ctx, "Using cached headline sentiment", "score", cached.Score)
		return cached, nil
	}

	articles, err := s.scraper.Headlines(ctx, s.cfg.MaxArticles)
	if err != nil {
		return Sentiment{}, err
	}

	sentiment := s.analyzer.Analyze(ctx, articles)
	s.cache.set(cacheKey, sentiment)

	return sentiment, nil
}
