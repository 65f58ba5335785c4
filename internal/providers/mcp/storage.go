package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sandevgo/coeus/pkg/log"
)

const watchSettleDelay = 200 * time.Millisecond

// FileStorage persists the server list as mcp_config.json.
type FileStorage struct {
	path string
	mu   sync.RWMutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load reads the config, creating an empty one when the file is missing.
func (c *FileStorage) Load(ctx context.Context) (*Config, error) {
	c.mu.RLock()
	data, err := os.ReadFile(c.path)
	c.mu.RUnlock()

	if errors.Is(err, os.ErrNotExist) {
		if _, statErr := os.Stat(filepath.Dir(c.path)); statErr != nil {
			return nil, fmt.Errorf("config directory does not exist: %w", statErr)
		}

		log.FromCtx(ctx).Info().Str("path", c.path).Msg("mcp config not found, creating default")
		cfg := &Config{MCPServers: make(map[string]ServerConfig)}
		if err := c.Save(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mcp config: %w", err)
	}

	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse mcp config: %w", err)
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]ServerConfig)
	}
	return cfg, nil
}

// Save writes to a temp file and renames it into place.
func (c *FileStorage) Save(ctx context.Context, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Watch emits the parsed config after every change to the file. The parent
// directory is watched so atomic renames and re-creations are seen.
// Unparseable states are logged and skipped.
func (c *FileStorage) Watch(ctx context.Context) (<-chan Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config dir: %w", err)
	}

	updates := make(chan Config)
	target := filepath.Clean(c.path)

	go func() {
		defer close(updates)
		defer watcher.Close()

		timer := time.NewTimer(time.Hour)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
					continue
				}
				timer.Reset(watchSettleDelay)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.FromCtx(ctx).Error().Err(err).Msg("mcp config watcher error")
			case <-timer.C:
				c.mu.RLock()
				data, err := os.ReadFile(c.path)
				c.mu.RUnlock()
				if err != nil {
					continue
				}

				cfg, err := parseConfig(data)
				if err != nil {
					log.FromCtx(ctx).Error().Err(err).Msg("failed to parse mcp config")
					continue
				}

				select {
				case updates <- *cfg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return updates, nil
}
