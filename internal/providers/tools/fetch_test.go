package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxRetries:    2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1.0,
	}
}

func TestFetch_FetchURL(t *testing.T) {
	tests := []struct {
		name         string
		args         string
		handler      http.HandlerFunc
		timeout      time.Duration
		wantErr      string
		wantContains string
	}{
		{
			name: "html rendered as text",
			args: `{"url": "REPLACE_URL"}`,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, `<html><body><h1>Test Page</h1><p>Hello World</p></body></html>`)
			},
			wantContains: "Hello World",
		},
		{
			name: "json passes through",
			args: `{"url": "REPLACE_URL"}`,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"message": "Hello JSON"}`)
			},
			wantContains: `{"message": "Hello JSON"}`,
		},
		{
			name: "404 error",
			args: `{"url": "REPLACE_URL"}`,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: "HTTP 404",
		},
		{
			name: "500 error",
			args: `{"url": "REPLACE_URL"}`,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: "HTTP 500",
		},
		{
			name:    "invalid JSON args",
			args:    `{"invalid`,
			wantErr: "invalid arguments",
		},
		{
			name:    "missing URL",
			args:    `{}`,
			wantErr: "invalid url",
		},
		{
			name:    "non http scheme",
			args:    `{"url": "file:///etc/passwd"}`,
			wantErr: "invalid url",
		},
		{
			name: "large response gets truncated",
			args: `{"url": "REPLACE_URL"}`,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte(strings.Repeat("a", maxResponseSize+100)))
			},
			wantContains: strings.Repeat("a", 1024),
		},
		{
			name: "timeout handling",
			args: `{"url": "REPLACE_URL"}`,
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(500 * time.Millisecond)
			},
			timeout: 100 * time.Millisecond,
			wantErr: "failed to fetch url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.handler != nil {
				server := httptest.NewServer(tt.handler)
				defer server.Close()
				args = strings.Replace(args, "REPLACE_URL", server.URL, 1)
			}

			timeout := tt.timeout
			if timeout == 0 {
				timeout = defaultFetchTimeout
			}
			fetch := NewFetchWithTimeout(timeout, fastRetry())

			out, err := fetch.FetchURL(context.Background(), json.RawMessage(args))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			text := out.(string)
			assert.Contains(t, text, tt.wantContains)
			assert.LessOrEqual(t, len(text), maxResponseSize+100)
		})
	}
}

func TestFetch_RetryBehavior(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantAttempts int32
		wantErr      bool
	}{
		{name: "server errors are retried", status: http.StatusBadGateway, wantAttempts: 3},
		{name: "client errors are not retried", status: http.StatusForbidden, wantAttempts: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) < 3 || tt.status < 500 {
					w.WriteHeader(tt.status)
					return
				}
				fmt.Fprint(w, "Success after retries")
			}))
			defer server.Close()

			out, err := NewFetchWithTimeout(time.Second, fastRetry()).Text(context.Background(), server.URL)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Contains(t, out, "Success after retries")
			}
			assert.Equal(t, tt.wantAttempts, attempts.Load())
		})
	}
}

func TestFetch_UserAgent(t *testing.T) {
	var receivedUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	_, err := NewFetch().Text(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, core.CoeusUserAgent, receivedUA)
}
