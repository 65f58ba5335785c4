package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="result results_links">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=%s&amp;rut=abc">Go   <b>Programming</b></a></h2>
  <a class="result__snippet" href="#">The Go programming language.</a>
</div>
<div class="result">
  <h2><a class="result__a" href="https://example.org/second">Second</a></h2>
  <a class="result__snippet">Another snippet</a>
</div>
<div class="result">
  <h2><a class="result__a" href="javascript:void(0)">Broken</a></h2>
</div>
</body></html>`

func TestWebSearch_Search(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>Landing page body</p></body></html>`)
	}))
	defer page.Close()

	var gotQuery string
	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotQuery = r.PostForm.Get("q")
		fmt.Fprintf(w, resultsPage, url.QueryEscape(page.URL+"/go"))
	}))
	defer ddg.Close()

	search := NewWebSearch(ddg.URL, NewFetchWithTimeout(defaultFetchTimeout, fastRetry()))

	t.Run("parses results", func(t *testing.T) {
		out, err := search.Search(context.Background(), json.RawMessage(`{"query": "golang"}`))
		require.NoError(t, err)
		assert.Equal(t, "golang", gotQuery)

		results := out.(map[string]any)["results"].([]SearchResult)
		require.Len(t, results, 2)
		assert.Equal(t, "Go Programming", results[0].Title)
		assert.Equal(t, page.URL+"/go", results[0].URL)
		assert.Equal(t, "The Go programming language.", results[0].Snippet)
		assert.Equal(t, "https://example.org/second", results[1].URL)
		assert.Empty(t, results[0].Content)
	})

	t.Run("limits and extracts top page", func(t *testing.T) {
		out, err := search.Search(context.Background(), json.RawMessage(`{"query": "golang", "max_results": 1, "include_content": true}`))
		require.NoError(t, err)

		results := out.(map[string]any)["results"].([]SearchResult)
		require.Len(t, results, 1)
		assert.True(t, strings.Contains(results[0].Content, "Landing page body"))
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := search.Search(context.Background(), json.RawMessage(`{"query": " "}`))
		assert.Error(t, err)
	})
}

func TestResolveResultURL(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{href: "//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F&rut=x", want: "https://go.dev/"},
		{href: "https://example.com/a", want: "https://example.com/a"},
		{href: "/relative", want: ""},
		{href: "javascript:void(0)", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveResultURL(tt.href))
		})
	}
}
