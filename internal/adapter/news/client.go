// Package news searches Google News RSS for flash-flood coverage of a
// location. There is no official API; the client queries the public RSS
// search endpoint and parses the feed.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// enoughArticles stops the query ladder once a search variant has
// produced a usable result set.
const enoughArticles = 5

// Article is one news item from the feed.
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Source    string `json:"source"`
}

// Client searches Google News RSS.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a news search client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Search fetches flash-flood news for a human-readable location such as
// "Nashville, Davidson County, Tennessee". It walks a ladder of query
// variants from specific to broad, deduplicates by link, and stops as
// soon as a variant yields enough articles. A query variant that fails
// is logged and skipped rather than failing the whole search.
func (c *Client) Search(ctx context.Context, location string) ([]Article, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, nil
	}

	var articles []Article
	seen := make(map[string]bool)

	for _, query := range queryLadder(location) {
		items, err := c.fetchFeed(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("news query failed", "query", query, "error", err)
			continue
		}

		for _, item := range items {
			if seen[item.Link] {
				continue
			}
			seen[item.Link] = true
			articles = append(articles, item)
		}

		if len(articles) >= enoughArticles {
			break
		}
	}
	return articles, nil
}

// queryLadder builds search variants for a location, most specific first.
// Comma-separated locations get a "City State" variant since full
// "City, County, State" strings often match nothing.
func queryLadder(location string) []string {
	queries := []string{"flash flood " + location + " after:2015-01-01"}

	if strings.Contains(location, ",") {
		parts := strings.Split(location, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 {
			cityState := parts[0] + " " + parts[len(parts)-1]
			queries = append(queries, "flash flood "+cityState+" after:2015-01-01")
		}
	}

	return append(queries, "flash flood "+location)
}

func (c *Client) fetchFeed(ctx context.Context, query string) ([]Article, error) {
	params := url.Values{
		"q":    {query},
		"hl":   {"en-US"},
		"gl":   {"US"},
		"ceid": {"US:en"},
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("news", "error").Inc()
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamAPIDuration.WithLabelValues("news").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues("news", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("news feed error: status %d: %s", resp.StatusCode, body)
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("news", "error").Inc()
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("news", "success").Inc()

	articles := make([]Article, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		source := item.Source.Name
		if source == "" {
			source = "Google News"
		}
		articles = append(articles, Article{
			Title:     item.Title,
			Link:      item.Link,
			Published: item.PubDate,
			Summary:   item.Description,
			Source:    source,
		})
	}
	return articles, nil
}

// RSS feed types, trimmed to the elements Google News emits.

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	PubDate     string    `xml:"pubDate"`
	Description string    `xml:"description"`
	Source      rssSource `xml:"source"`
}

type rssSource struct {
	URL  string `xml:"url,attr"`
	Name string `xml:",chardata"`
}
