package rag

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

// getTokenizer returns nil when the encoding cannot be loaded (tiktoken
// fetches its BPE ranks on first use, which fails offline).
func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			tk = enc
		}
	})
	return tk
}

// CountTokens approximates how many model tokens text costs. Without a
// tokenizer it falls back to the word count.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if enc := getTokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return len(strings.Fields(text))
}
