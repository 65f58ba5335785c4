package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/sandevgo/coeus/internal/core"
)

const (
	maxOutputLines     = 200
	defaultExecTimeout = 5 * time.Minute
)

// Shell runs commands through the system shell. Only registered when enabled in config.
type Shell struct {
	WorkDir string
	Timeout time.Duration
}

func NewShell(workDir string) *Shell {
	return &Shell{WorkDir: workDir, Timeout: defaultExecTimeout}
}

type CommandResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

func (s *Shell) ExecuteCommand(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		Command string `json:"command"`
	}](args)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Command) == "" {
		return nil, errors.New("command is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", input.Command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", input.Command)
	}
	cmd.Dir = s.WorkDir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	res := CommandResult{
		Stdout: truncateLines(stdout.String()),
		Stderr: truncateLines(stderr.String()),
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case runErr != nil:
		return nil, fmt.Errorf("failed to run command: %w", runErr)
	}
	return res, nil
}

// truncateLines keeps the last maxOutputLines lines.
func truncateLines(output string) string {
	output = strings.TrimSpace(output)
	lines := strings.Split(output, "\n")
	if len(lines) <= maxOutputLines {
		return output
	}
	return fmt.Sprintf("... (output truncated, showing last %d lines)\n%s",
		maxOutputLines, strings.Join(lines[len(lines)-maxOutputLines:], "\n"))
}

func (s *Shell) Tools() []core.Tool {
	return []core.Tool{
		{
			Name:        "execute_command",
			Description: "Execute a shell command in the workspace",
			Parameters: map[string]core.ToolParameter{
				"command": stringParam("The shell command to execute"),
			},
			Required: []string{"command"},
			Handler:  s.ExecuteCommand,
		},
	}
}
