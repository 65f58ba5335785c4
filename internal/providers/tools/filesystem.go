package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/sandevgo/coeus/internal/core"
)

const (
	maxReadSize   = 1 << 20
	maxMatchCount = 100
)

var ErrOutsideSandbox = errors.New("path escapes the workspace")

// Filesystem exposes file tools confined to BasePath.
type Filesystem struct {
	BasePath string
}

func NewFilesystem(basePath string) (*Filesystem, error) {
	if basePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		basePath = wd
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}
	return &Filesystem{BasePath: abs}, nil
}

func (fs *Filesystem) resolvePath(p string) (string, error) {
	if p == "" {
		p = "."
	}
	var full string
	if filepath.IsAbs(p) {
		full = filepath.Clean(p)
	} else {
		full = filepath.Join(fs.BasePath, p)
	}

	rel, err := filepath.Rel(fs.BasePath, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideSandbox, p)
	}
	return full, nil
}

func (fs *Filesystem) display(path string) string {
	if rel, err := filepath.Rel(fs.BasePath, path); err == nil {
		return rel
	}
	return path
}

type pathArgs struct {
	Path string `json:"path"`
}

func (fs *Filesystem) ReadFile(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[pathArgs](args)
	if err != nil {
		return nil, err
	}
	path, err := fs.resolvePath(input.Path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", input.Path)
	}
	if info.Size() > maxReadSize {
		return nil, fmt.Errorf("file too large (%s)", humanize.Bytes(uint64(info.Size())))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return string(content), nil
}

func (fs *Filesystem) WriteFile(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}](args)
	if err != nil {
		return nil, err
	}
	path, err := fs.resolvePath(input.Path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(path, []byte(input.Content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	return map[string]any{"path": fs.display(path), "bytes": len(input.Content)}, nil
}

func (fs *Filesystem) EditFile(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		Path    string `json:"path"`
		Find    string `json:"find"`
		Replace string `json:"replace"`
	}](args)
	if err != nil {
		return nil, err
	}
	path, err := fs.resolvePath(input.Path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	content := string(raw)

	n := strings.Count(content, input.Find)
	if input.Find == "" || n == 0 {
		return nil, errors.New("exact string not found in file")
	}

	if err := os.WriteFile(path, []byte(strings.ReplaceAll(content, input.Find, input.Replace)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	return map[string]any{"path": fs.display(path), "replacements": n}, nil
}

type dirEntry struct {
	Name string `json:"name"`
	Dir  bool   `json:"dir"`
	Size string `json:"size,omitempty"`
}

func (fs *Filesystem) ListDir(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[pathArgs](args)
	if err != nil {
		return nil, err
	}
	path, err := fs.resolvePath(input.Path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	out := make([]dirEntry, 0, len(entries))
	for _, entry := range entries {
		item := dirEntry{Name: entry.Name(), Dir: entry.IsDir()}
		if !entry.IsDir() {
			if info, err := entry.Info(); err == nil {
				item.Size = humanize.Bytes(uint64(info.Size()))
			}
		}
		out = append(out, item)
	}
	return map[string]any{"path": fs.display(path), "entries": out}, nil
}

func (fs *Filesystem) FileExists(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[pathArgs](args)
	if err != nil {
		return nil, err
	}
	path, err := fs.resolvePath(input.Path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return map[string]any{"path": input.Path, "exists": false}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to stat: %w", err)
	}
	return map[string]any{"path": input.Path, "exists": true, "dir": info.IsDir()}, nil
}

func (fs *Filesystem) SearchFiles(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		Path  string `json:"path"`
		Query string `json:"query"`
	}](args)
	if err != nil {
		return nil, err
	}
	if input.Query == "" {
		return nil, errors.New("query is empty")
	}
	root, err := fs.resolvePath(input.Path)
	if err != nil {
		return nil, err
	}

	var results strings.Builder
	matches := 0

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}

		n, stop := fs.grepFile(path, input.Query, &results, maxMatchCount-matches)
		matches += n
		if stop {
			results.WriteString("... (too many matches, stopping search)\n")
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if matches == 0 {
		return "No matches found.", nil
	}
	return results.String(), nil
}

// grepFile appends matching lines to out. Binary files are skipped.
func (fs *Filesystem) grepFile(path, query string, out *strings.Builder, budget int) (int, bool) {
	file, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer file.Close()

	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return 0, false
		}
	}
	if _, err := file.Seek(0, 0); err != nil {
		return 0, false
	}

	found := 0
	lineNum := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if !utf8.ValidString(line) || !strings.Contains(line, query) {
			continue
		}

		text := strings.TrimSpace(line)
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Fprintf(out, "%s:%d: %s\n", fs.display(path), lineNum, text)
		found++
		if found >= budget {
			return found, true
		}
	}
	return found, false
}

func (fs *Filesystem) GetFileInfo(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[pathArgs](args)
	if err != nil {
		return nil, err
	}
	path, err := fs.resolvePath(input.Path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return map[string]any{
		"path":     fs.display(path),
		"size":     info.Size(),
		"human":    humanize.Bytes(uint64(info.Size())),
		"dir":      info.IsDir(),
		"mode":     info.Mode().String(),
		"modified": info.ModTime().Format(time.RFC3339),
	}, nil
}

func (fs *Filesystem) Tools() []core.Tool {
	path := stringParam("Path relative to the workspace")
	return []core.Tool{
		{
			Name:        "read_file",
			Description: "Read a text file from the workspace",
			Parameters:  map[string]core.ToolParameter{"path": path},
			Required:    []string{"path"},
			Handler:     fs.ReadFile,
		},
		{
			Name:        "write_file",
			Description: "Write content to a file in the workspace, creating directories as needed",
			Parameters: map[string]core.ToolParameter{
				"path":    path,
				"content": stringParam("The content to write"),
			},
			Required: []string{"path", "content"},
			Handler:  fs.WriteFile,
		},
		{
			Name:        "edit_file",
			Description: "Edit a file by replacing an exact string with a new one",
			Parameters: map[string]core.ToolParameter{
				"path":    path,
				"find":    stringParam("The exact string to find"),
				"replace": stringParam("The replacement string"),
			},
			Required: []string{"path", "find", "replace"},
			Handler:  fs.EditFile,
		},
		{
			Name:        "list_directory",
			Description: "List the contents of a workspace directory",
			Parameters:  map[string]core.ToolParameter{"path": path},
			Handler:     fs.ListDir,
		},
		{
			Name:        "file_exists",
			Description: "Check whether a file or directory exists in the workspace",
			Parameters:  map[string]core.ToolParameter{"path": path},
			Required:    []string{"path"},
			Handler:     fs.FileExists,
		},
		{
			Name:        "search_files",
			Description: "Search for a string in workspace files recursively",
			Parameters: map[string]core.ToolParameter{
				"path":  path,
				"query": stringParam("The string to search for"),
			},
			Required: []string{"query"},
			Handler:  fs.SearchFiles,
		},
		{
			Name:        "get_file_info",
			Description: "Get metadata about a file (size, mode, modtime)",
			Parameters:  map[string]core.ToolParameter{"path": path},
			Required:    []string{"path"},
			Handler:     fs.GetFileInfo,
		},
	}
}
