package srv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnShutdown(t *testing.T) {
	var order []string
	closer := func(name string, err error) func() error {
		return func() error {
			order = append(order, name)
			return err
		}
	}
	errPool := errors.New("pool busy")

	s := OnShutdown(closer("db", nil), nil, closer("pool", errPool))
	require.NoError(t, s.Start(context.Background()))

	err := s.Shutdown(context.Background())
	assert.ErrorIs(t, err, errPool)
	assert.Equal(t, []string{"pool", "db"}, order)
}

type returningService struct{ started chan struct{} }

func (b *returningService) Start(ctx context.Context) error {
	close(b.started)
	return nil
}

func (b *returningService) Shutdown(context.Context) error { return nil }

func TestStopOnReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := &returningService{started: make(chan struct{})}

	require.NoError(t, StopOnReturn(inner, cancel).Start(ctx))
	<-inner.started
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
