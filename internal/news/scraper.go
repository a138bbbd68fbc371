package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"confluence-backtest/internal/logger"
)

// Article is a scraped news headline with optional body text.
type Article struct {
	Title       string
	URL         string
	Content     string
	Source      string
	PublishedAt string
}

// Scraper handles scraping crypto news headlines from multiple sources
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source defines a news source configuration
type Source struct {
	Name      string
	BaseURL   string
	ListPath  string
	Selectors ArticleSelectors
	RateLimit time.Duration
}

// ArticleSelectors defines CSS selectors for extracting article data
type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	PublishedAt      string
}

// NewScraper creates a news scraper with the default crypto sources
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

// defaultSources returns the crypto news sources to scrape
func defaultSources() []Source {
	return []Source{
		{
			Name:     "CoinDesk",
			BaseURL:  "https://www.coindesk.com",
			ListPath: "/markets",
			Selectors: ArticleSelectors{
				ArticleContainer: "div.article-card",
				Title:            "h2 a, h3 a",
				URL:              "h2 a, h3 a",
				PublishedAt:      "time",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:     "CoinTelegraph",
			BaseURL:  "https://cointelegraph.com",
			ListPath: "/tags/markets",
			Selectors: ArticleSelectors{
				ArticleContainer: "article",
				Title:            "a span",
				URL:              "a",
				PublishedAt:      "time",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:     "Decrypt",
			BaseURL:  "https://decrypt.co",
			ListPath: "/news",
			Selectors: ArticleSelectors{
				ArticleContainer: "article",
				Title:            "h3 a, h2 a",
				URL:              "h3 a, h2 a",
				PublishedAt:      "time",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Headlines fetches recent market headlines from all configured sources
func (s *Scraper) Headlines(ctx context.Context, maxArticles int) ([]Article, error) {
	logger.Info(ctx, "Starting headline scraping", "sources", len(s.sources))

	all := []Article{}
	perSource := maxArticles / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	for _, source := range s.sources {
		articles, err := s.scrapeSource(ctx, source, perSource)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name)
			continue
		}
		all = append(all, articles...)

		// Rate limiting between sources
		time.Sleep(source.RateLimit)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no headlines scraped from any source")
	}

	logger.Info(ctx, "Headline scraping completed", "articles", len(all))
	return all, nil
}

// scrapeSource scrapes headlines from a single source
func (s *Scraper) scrapeSource(ctx context.Context, source Source, maxArticles int) ([]Article, error) {
	articles := []Article{}

	c := colly.NewCollector(
		colly.AllowedDomains(domainOf(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)

	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			// Some layouts nest the headline deeper than the configured
			// selector; fall back to the first anchor in the card.
			title = strings.TrimSpace(firstAnchorText(e.DOM))
		}
		if title == "" {
			return
		}

		articleURL := e.ChildAttr(source.Selectors.URL, "href")
		if articleURL != "" && !strings.HasPrefix(articleURL, "http") {
			articleURL = source.BaseURL + articleURL
		}

		articles = append(articles, Article{
			Title:       title,
			URL:         articleURL,
			Source:      source.Name,
			PublishedAt: strings.TrimSpace(e.ChildText(source.Selectors.PublishedAt)),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	listURL := source.BaseURL + source.ListPath
	if err := c.Visit(listURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", listURL, err)
	}

	c.Wait()

	return articles, nil
}

// firstAnchorText returns the text of the first non-empty anchor in a card
func firstAnchorText(sel *goquery.Selection) string {
	var text string
	sel.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		t := strings.TrimSpace(a.Text())
		if t != "" {
			text = t
			return false
		}
		return true
	})
	return text
}

// domainOf extracts the host from a base URL for colly's domain allowlist
func domainOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}
