package world

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/warehouse/internal/core/observability/log"
)

// System is logic that runs against a World, usually over a few storages.
// Run should return nil once ctx is done.
type System interface {
	Name() string
	Run(ctx context.Context, w *World) error
}

// SystemError reports the system that failed a Run.
type SystemError struct {
	System string
	Err    error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("world: system %s: %v", e.System, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}

// SystemFunc adapts a function to System.
type SystemFunc struct {
	Label string
	Fn    func(ctx context.Context, w *World) error
}

func (f SystemFunc) Name() string { return f.Label }

func (f SystemFunc) Run(ctx context.Context, w *World) error { return f.Fn(ctx, w) }

// Run runs every system on its own goroutine and waits for all of them. The
// first failure cancels the context of the others and is returned as a
// *SystemError. A system stopping with a context error is not a failure.
func (w *World) Run(ctx context.Context, systems ...System) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range systems {
		g.Go(func() error {
			w.logger.Debug("system started", log.String("system", s.Name()))
			err := s.Run(ctx, w)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				w.logger.Error("system failed", log.String("system", s.Name()), log.Error(err))
				return &SystemError{System: s.Name(), Err: err}
			}
			w.logger.Debug("system stopped", log.String("system", s.Name()))
			return nil
		})
	}
	return g.Wait()
}
