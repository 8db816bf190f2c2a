package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

// Start runs every worker until ctx is cancelled. The first worker error
// cancels the others and is returned once all have exited.
func (m *Manager) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range m.workers {
		w := w
		g.Go(func() error { return w.Start(gctx) })
	}
	return g.Wait()
}
