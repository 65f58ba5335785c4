package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/inbucket/html2text"
	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/pkg/retry"
)

const (
	maxResponseSize     = 1 << 20
	defaultFetchTimeout = 15 * time.Second
)

type Fetch struct {
	client  *http.Client
	retrier *retry.Retrier
}

func NewFetchWithTimeout(timeout time.Duration, retryCfg *retry.Config) *Fetch {
	if retryCfg == nil {
		retryCfg = retry.NewDefaultConfig()
	}
	return &Fetch{
		client:  &http.Client{Timeout: timeout},
		retrier: retry.NewRetrier(retryCfg),
	}
}

func NewFetch() *Fetch {
	return NewFetchWithTimeout(defaultFetchTimeout, nil)
}

func (f *Fetch) FetchURL(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		URL string `json:"url"`
	}](args)
	if err != nil {
		return nil, err
	}
	return f.Text(ctx, input.URL)
}

// Text fetches rawURL and renders the body as plain text.
// Client errors are not retried.
func (f *Fetch) Text(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("failed to fetch url: invalid url %q", rawURL)
	}

	var body string
	err = f.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", core.CoeusUserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return retry.Permanent(err)
			}
			return fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			statusErr := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(statusErr)
			}
			return statusErr
		}

		body, err = html2text.FromReader(io.LimitReader(resp.Body, maxResponseSize), html2text.Options{
			PrettyTables: true,
		})
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return body, nil
}

func (f *Fetch) Tools() []core.Tool {
	return []core.Tool{
		{
			Name:        "fetch_url",
			Description: "Fetch content from a URL (HTTP GET) as plain text",
			Parameters: map[string]core.ToolParameter{
				"url": stringParam("The http or https URL to fetch"),
			},
			Required: []string{"url"},
			Handler:  f.FetchURL,
		},
	}
}
