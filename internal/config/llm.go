package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/coeus/pkg/log"
)

type LLMConfig struct {
	Provider string `env:"COEUS_LLM_PROVIDER" envDefault:"ollama"`
	BaseURL  string `env:"COEUS_LLM_BASE_URL" envDefault:"http://localhost:11434"`
	APIKey   string `env:"COEUS_LLM_API_KEY"`
	Model    string `env:"COEUS_LLM_MODEL" envDefault:"qwen3:8b"`
	NumCtx   int    `env:"COEUS_NUM_CTX" envDefault:"4096"`

	mu sync.RWMutex
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

func (c *LLMConfig) GetProvider() string { return c.Provider }
func (c *LLMConfig) GetBaseURL() string  { return c.BaseURL }
func (c *LLMConfig) GetAPIKey() string   { return c.APIKey }
func (c *LLMConfig) GetNumCtx() int      { return c.NumCtx }

func (c *LLMConfig) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Model
}

// SetModel switches the model for the running process and exports it so child
// processes (MCP servers, shell tool) see the same value.
func (c *LLMConfig) SetModel(model string) error {
	if model == "" {
		return fmt.Errorf("model name is empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Model = model
	return os.Setenv("COEUS_LLM_MODEL", model)
}
