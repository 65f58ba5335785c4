package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/sandevgo/coeus/internal/core"
)

type Calculator struct {
	env map[string]any
}

func NewCalculator() *Calculator {
	return &Calculator{
		env: map[string]any{
			"pi":    math.Pi,
			"e":     math.E,
			"sqrt":  math.Sqrt,
			"pow":   math.Pow,
			"sin":   math.Sin,
			"cos":   math.Cos,
			"tan":   math.Tan,
			"log":   math.Log,
			"log10": math.Log10,
			"exp":   math.Exp,
			"floor": math.Floor,
			"ceil":  math.Ceil,
		},
	}
}

func (c *Calculator) Calculate(ctx context.Context, args json.RawMessage) (any, error) {
	input, err := decode[struct {
		Expression string `json:"expression"`
	}](args)
	if err != nil {
		return nil, err
	}

	expression := strings.TrimSpace(input.Expression)
	if expression == "" {
		return nil, errors.New("expression is empty")
	}

	program, err := expr.Compile(expression, expr.Env(c.env))
	if err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	out, err := expr.Run(program, c.env)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	switch v := out.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("result is not a finite number: %v", v)
		}
	case int, bool:
	default:
		return nil, fmt.Errorf("expression must produce a number, got %T", out)
	}

	return map[string]any{"expression": expression, "result": out}, nil
}

func (c *Calculator) Tools() []core.Tool {
	return []core.Tool{
		{
			Name:        "calculate",
			Description: "Evaluate an arithmetic expression. Supports + - * / % ** and sqrt, pow, sin, cos, tan, log, log10, exp, floor, ceil, pi, e.",
			Parameters: map[string]core.ToolParameter{
				"expression": stringParam("The expression to evaluate, e.g. (2 + 3) * sqrt(16)"),
			},
			Required: []string{"expression"},
			Handler:  c.Calculate,
		},
	}
}
