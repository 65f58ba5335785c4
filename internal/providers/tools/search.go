package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/pkg/log"
	"github.com/sandevgo/coeus/pkg/retry"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	DefaultSearchURL   = "https://html.duckduckgo.com/html/"
	defaultResultCount = 5
	maxResultCount     = 10
	maxPageText        = 3000
)

type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Content string `json:"content,omitempty"`
}

// WebSearch queries the DuckDuckGo HTML endpoint and optionally extracts page text.
type WebSearch struct {
	baseURL string
	client  *http.Client
	retrier *retry.Retrier
	pages   *Fetch
}

func NewWebSearch(baseURL string, pages *Fetch) *WebSearch {
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	cfg := retry.NewDefaultConfig()
	cfg.MaxRetries = 2
	return &WebSearch{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultFetchTimeout},
		retrier: retry.NewRetrier(cfg),
		pages:   pages,
	}
}

func (s *WebSearch) Search(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		Query          string `json:"query"`
		MaxResults     int    `json:"max_results"`
		IncludeContent bool   `json:"include_content"`
	}](args)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.New("query is empty")
	}
	count := input.MaxResults
	if count <= 0 {
		count = defaultResultCount
	}
	count = min(count, maxResultCount)

	results, err := s.query(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) > count {
		results = results[:count]
	}

	if input.IncludeContent && s.pages != nil && len(results) > 0 {
		text, err := s.pages.Text(ctx, results[0].URL)
		if err != nil {
			log.FromCtx(ctx).Debug().Err(err).Str("url", results[0].URL).Msg("page extraction failed")
		} else {
			if len(text) > maxPageText {
				text = text[:maxPageText] + "..."
			}
			results[0].Content = text
		}
	}

	return map[string]any{"query": query, "results": results}, nil
}

func (s *WebSearch) query(ctx context.Context, query string) ([]SearchResult, error) {
	var results []SearchResult
	err := s.retrier.Do(ctx, func() error {
		form := url.Values{"q": {query}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, strings.NewReader(form.Encode()))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", core.CoeusUserAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("search request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			statusErr := fmt.Errorf("search returned HTTP %d", resp.StatusCode)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(statusErr)
			}
			return statusErr
		}

		doc, err := html.Parse(resp.Body)
		if err != nil {
			return fmt.Errorf("parse search page: %w", err)
		}
		results = parseResults(doc)
		return nil
	})
	return results, err
}

// parseResults collects result__a anchors and attaches the following result__snippet.
func parseResults(doc *html.Node) []SearchResult {
	var results []SearchResult
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			switch {
			case hasClass(n, "result__a"):
				results = append(results, SearchResult{
					Title: collapse(textContent(n)),
					URL:   resolveResultURL(attr(n, "href")),
				})
				return
			case hasClass(n, "result__snippet") && len(results) > 0:
				results[len(results)-1].Snippet = collapse(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	out := results[:0]
	for _, r := range results {
		if r.URL != "" && r.Title != "" {
			out = append(out, r)
		}
	}
	return out
}

// resolveResultURL unwraps DuckDuckGo redirect links (/l/?uddg=...).
func resolveResultURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (s *WebSearch) Tools() []core.Tool {
	return []core.Tool{
		{
			Name:        "web_search",
			Description: "Search the web and return titles, URLs and snippets",
			Parameters: map[string]core.ToolParameter{
				"query":           stringParam("The search query"),
				"max_results":     {Type: "integer", Description: "Maximum number of results (1-10), default 5"},
				"include_content": {Type: "boolean", Description: "Also fetch the text of the top result"},
			},
			Required: []string{"query"},
			Handler:  s.Search,
		},
	}
}

