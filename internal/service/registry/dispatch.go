package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/coeus/internal/core"
	"github.com/sandevgo/coeus/pkg/log"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/sync/errgroup"
)

// DispatchBatch runs calls concurrently on a bounded pool and waits for all of them.
// Every failure is captured in its own Result; nothing aborts the siblings.
// The batch resolves its tools against one snapshot of the registry.
func (r *Registry) DispatchBatch(ctx context.Context, calls []core.ToolCall) Batch {
	results := make([]Result, len(calls))
	if len(calls) == 0 {
		return Batch{Results: results}
	}

	resolved := make([]*entry, len(calls))
	r.mu.RLock()
	for i, call := range calls {
		if e, ok := r.tools[call.Name]; ok {
			resolved[i] = &e
		}
	}
	concurrency := r.concurrency
	r.mu.RUnlock()

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, call := range calls {
		g.Go(func() error {
			results[i] = r.invoke(ctx, call, resolved[i])
			return nil
		})
	}
	_ = g.Wait()

	return Batch{Results: results}
}

func (r *Registry) invoke(ctx context.Context, call core.ToolCall, e *entry) (res Result) {
	logger := log.FromCtx(ctx)
	res = Result{Call: call, limit: r.maxOutput}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if e == nil {
		res.Err = fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
		logger.Warn().Str("tool", call.Name).Msg("model called unknown tool")
		return res
	}

	args, err := DecodeArguments(call.Arguments)
	if err != nil {
		res.Err = err
		return res
	}
	if err := validate(e.schema, args); err != nil {
		res.Err = err
		return res
	}

	callCtx := ctx
	if r.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.callTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			res.Value = nil
			res.Err = fmt.Errorf("tool %s panicked: %v", call.Name, p)
			logger.Error().Str("tool", call.Name).Interface("panic", p).Msg("tool handler panicked")
		}
	}()

	start := time.Now()
	res.Value, res.Err = e.tool.Handler(callCtx, args)
	if errors.Is(res.Err, context.DeadlineExceeded) && ctx.Err() == nil {
		res.Err = fmt.Errorf("tool %s timed out after %s", call.Name, r.callTimeout)
	}

	ev := logger.Debug()
	if res.Err != nil {
		ev = logger.Warn().Err(res.Err)
	}
	ev.Str("tool", call.Name).Dur("took", time.Since(start)).Msg("tool finished")

	return res
}

func validate(schema *gojsonschema.Schema, args json.RawMessage) error {
	if schema == nil {
		return nil
	}
	out, err := schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if out.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(out.Errors()))
	for _, desc := range out.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidArguments, strings.Join(msgs, "; "))
}
