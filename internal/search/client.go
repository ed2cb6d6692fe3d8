// Package search implements the web-search proxy: a thin client over public
// search endpoints (DuckDuckGo HTML, Wikipedia summaries, Google
// suggestions) with a fail-soft-to-empty policy. Upstream failures degrade
// to empty results; they never propagate to the caller. That parity choice
// is deliberate — the desktop simulation renders an empty result list rather
// than an error page.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Result types accepted by Query, mirroring the proxy's type parameter.
const (
	TypeSearch      = "search"
	TypeImages      = "images"
	TypeVideos      = "videos"
	TypeSuggestions = "suggestions"
)

// Result is one search hit.
type Result struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Image   string `json:"image,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Knowledge is the Wikipedia-backed knowledge panel.
type Knowledge struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Image   string `json:"image,omitempty"`
	URL     string `json:"url"`
}

// Response is the proxy's JSON shape.
type Response struct {
	Results     []Result   `json:"results"`
	Related     []string   `json:"related"`
	Knowledge   *Knowledge `json:"knowledge,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/111.0"

// Options configures a Client. Zero values select production endpoints;
// tests point the URLs at local fixtures.
type Options struct {
	SearchURL  string // DuckDuckGo HTML endpoint
	SuggestURL string // Google suggestions endpoint
	WikiURL    string // Wikipedia REST summary base
	MediaURL   string // SearXNG-compatible JSON endpoint for images/videos
	UserAgent  string
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Client performs proxied searches.
type Client struct {
	http       *http.Client
	searchURL  string
	suggestURL string
	wikiURL    string
	mediaURL   string
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a search client.
func NewClient(opts Options) *Client {
	if opts.SearchURL == "" {
		opts.SearchURL = "https://html.duckduckgo.com/html/"
	}
	if opts.SuggestURL == "" {
		opts.SuggestURL = "https://suggestqueries.google.com/complete/search"
	}
	if opts.WikiURL == "" {
		opts.WikiURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"
	}
	if opts.MediaURL == "" {
		opts.MediaURL = "https://searx.be/search"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		searchURL:  opts.SearchURL,
		suggestURL: opts.SuggestURL,
		wikiURL:    opts.WikiURL,
		mediaURL:   opts.MediaURL,
		userAgent:  opts.UserAgent,
		logger:     opts.Logger,
	}
}

// Query dispatches on the proxy's type parameter. An empty query returns an
// empty response without touching the network.
func (c *Client) Query(ctx context.Context, q, typ string) *Response {
	if q == "" {
		return &Response{Results: []Result{}, Related: []string{}}
	}
	switch typ {
	case TypeSuggestions:
		return &Response{Suggestions: c.Suggestions(ctx, q)}
	case TypeImages, TypeVideos:
		if resp := c.media(ctx, q, typ); resp != nil {
			return resp
		}
		// Media endpoint down: fall back to text results, like the original.
		return c.Search(ctx, q, false)
	default:
		return c.Search(ctx, q, true)
	}
}

// Search scrapes the HTML results page. withKnowledge additionally fetches
// the Wikipedia knowledge panel.
func (c *Client) Search(ctx context.Context, q string, withKnowledge bool) *Response {
	resp := &Response{Results: []Result{}, Related: []string{}}

	body, err := c.get(ctx, c.searchURL+"?q="+url.QueryEscape(q))
	if err != nil {
		c.logger.Debug("search upstream failed", "error", err)
		return resp
	}
	results, related, err := parseResultsPage(body)
	if err != nil {
		c.logger.Debug("search parse failed", "error", err)
		return resp
	}
	resp.Results = results
	resp.Related = related

	if withKnowledge {
		resp.Knowledge = c.knowledge(ctx, q)
	}
	return resp
}

// Suggestions fetches query completions. Failures yield an empty slice.
func (c *Client) Suggestions(ctx context.Context, q string) []string {
	body, err := c.get(ctx, c.suggestURL+"?client=chrome&q="+url.QueryEscape(q))
	if err != nil {
		c.logger.Debug("suggestions upstream failed", "error", err)
		return []string{}
	}

	// Response shape: [query, [suggestions...], ...]
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) < 2 {
		return []string{}
	}
	var suggestions []string
	if err := json.Unmarshal(payload[1], &suggestions); err != nil {
		return []string{}
	}
	return suggestions
}

// knowledge fetches the Wikipedia summary for q. Only "standard" pages
// produce a panel; disambiguation and missing pages return nil.
func (c *Client) knowledge(ctx context.Context, q string) *Knowledge {
	body, err := c.get(ctx, c.wikiURL+url.PathEscape(q))
	if err != nil {
		return nil
	}

	var summary struct {
		Type      string `json:"type"`
		Title     string `json:"title"`
		Extract   string `json:"extract"`
		Thumbnail struct {
			Source string `json:"source"`
		} `json:"thumbnail"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := json.Unmarshal(body, &summary); err != nil || summary.Type != "standard" {
		return nil
	}
	return &Knowledge{
		Title:   summary.Title,
		Extract: summary.Extract,
		Image:   summary.Thumbnail.Source,
		URL:     summary.ContentURLs.Desktop.Page,
	}
}

// media queries a SearXNG-compatible JSON endpoint for image/video grids.
// Returns nil when the endpoint fails, so the caller can fall back.
func (c *Client) media(ctx context.Context, q, typ string) *Response {
	u := fmt.Sprintf("%s?q=%s&categories=%s&format=json", c.mediaURL, url.QueryEscape(q), typ)
	body, err := c.get(ctx, u)
	if err != nil {
		c.logger.Debug("media upstream failed", "error", err)
		return nil
	}

	var payload struct {
		Results []struct {
			Title     string `json:"title"`
			URL       string `json:"url"`
			ImgSrc    string `json:"img_src"`
			Thumbnail string `json:"thumbnail"`
			Engine    string `json:"engine"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	resp := &Response{Results: []Result{}, Related: []string{}}
	for i, item := range payload.Results {
		image := item.ImgSrc
		if image == "" {
			image = item.Thumbnail
		}
		resp.Results = append(resp.Results, Result{
			ID:     i,
			Title:  item.Title,
			URL:    item.URL,
			Image:  image,
			Source: item.Engine,
		})
	}
	return resp
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream status %d", res.StatusCode)
	}
	return io.ReadAll(io.LimitReader(res.Body, 4<<20))
}
