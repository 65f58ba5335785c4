package srv

import (
	"context"
	"errors"
)

// hooks runs release functions at shutdown, last registered first.
type hooks struct {
	fns []func() error
}

func (h *hooks) Start(context.Context) error { return nil }

func (h *hooks) Shutdown(context.Context) error {
	var errs []error
	for i := len(h.fns) - 1; i >= 0; i-- {
		if h.fns[i] == nil {
			continue
		}
		if err := h.fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnShutdown wraps release functions (database handles, pools) as a Service.
func OnShutdown(fns ...func() error) Service {
	return &hooks{fns: fns}
}

type stopOnReturn struct {
	Service
	stop context.CancelFunc
}

func (s *stopOnReturn) Start(ctx context.Context) error {
	defer s.stop()
	return s.Service.Start(ctx)
}

// StopOnReturn cancels the process context when the wrapped Start returns,
// e.g. when the user leaves an interactive session.
func StopOnReturn(s Service, stop context.CancelFunc) Service {
	return &stopOnReturn{Service: s, stop: stop}
}
