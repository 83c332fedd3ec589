package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Worker is a background loop owned by the container
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// deliveryStats is implemented by workers that count deliveries
type deliveryStats interface {
	Stats() (sent, failed int, lastError error)
}

// Status describes one worker for the health endpoint
type Status struct {
	Name      string
	Running   bool
	Sent      int
	Failed    int
	LastError string
}

// Group runs workers as a unit. Start is all or nothing: when one worker
// fails to start, the ones already running are stopped again. Stop runs in
// reverse start order.
type Group struct {
	logger *zap.Logger

	mu      sync.Mutex
	workers []Worker
	running []Worker
	cancel  context.CancelFunc
}

// NewGroup creates an empty worker group
func NewGroup(logger *zap.Logger) *Group {
	return &Group{logger: logger}
}

// Add registers w. Workers cannot be added while the group runs.
func (g *Group) Add(w Worker) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		return fmt.Errorf("cannot add %s: worker group is running", w.Name())
	}
	for _, existing := range g.workers {
		if existing.Name() == w.Name() {
			return fmt.Errorf("worker %s already added", w.Name())
		}
	}
	g.workers = append(g.workers, w)
	return nil
}

// Start starts every worker under a context derived from ctx
func (g *Group) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		return fmt.Errorf("worker group already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, w := range g.workers {
		if err := w.Start(runCtx); err != nil {
			g.logger.Error("Failed to start worker, rolling back",
				zap.String("worker_name", w.Name()),
				zap.Int("started", len(g.running)),
				zap.Error(err))
			cancel()
			if stopErr := g.stopRunning(); stopErr != nil {
				err = errors.Join(err, stopErr)
			}
			return fmt.Errorf("start %s: %w", w.Name(), err)
		}
		g.running = append(g.running, w)
		g.logger.Info("Worker started", zap.String("worker_name", w.Name()))
	}

	g.cancel = cancel
	return nil
}

// Stop cancels the group context and stops the workers, last started first
func (g *Group) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel == nil {
		return nil
	}
	g.cancel()
	g.cancel = nil
	return g.stopRunning()
}

// stopRunning must be called with mu held
func (g *Group) stopRunning() error {
	var errs []error
	for i := len(g.running) - 1; i >= 0; i-- {
		w := g.running[i]
		if err := w.Stop(); err != nil {
			g.logger.Error("Failed to stop worker", zap.String("worker_name", w.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		g.logger.Info("Worker stopped", zap.String("worker_name", w.Name()))
	}
	g.running = nil
	return errors.Join(errs...)
}

// Status reports every added worker in the order it was added
func (g *Group) Status() []Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	statuses := make([]Status, 0, len(g.workers))
	for _, w := range g.workers {
		s := Status{Name: w.Name()}
		for _, r := range g.running {
			if r == w {
				s.Running = true
				break
			}
		}
		if ds, ok := w.(deliveryStats); ok {
			var lastErr error
			s.Sent, s.Failed, lastErr = ds.Stats()
			if lastErr != nil {
				s.LastError = lastErr.Error()
			}
		}
		statuses = append(statuses, s)
	}
	return statuses
}
