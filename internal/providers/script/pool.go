package script

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const acquireTimeout = 5 * time.Second

// Pool manages reusable runtimes. It satisfies the analyzer's script port.
type Pool struct {
	config   Config
	logger   *zap.Logger
	runtimes chan *Runtime
	size     int
	mu       sync.RWMutex
	closed   bool
}

// NewPool creates a pool of config.PoolSize runtimes
func NewPool(config Config, logger *zap.Logger) (*Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := config.PoolSize
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config:   config,
		logger:   logger,
		runtimes: make(chan *Runtime, size),
		size:     size,
	}
	for i := 0; i < size; i++ {
		rt, err := New(config, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.runtimes <- rt
	}
	return pool, nil
}

// Acquire takes a runtime from the pool
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	select {
	case rt := <-p.runtimes:
		return rt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(acquireTimeout):
		return nil, ErrTimeout
	}
}

// Release resets a runtime and returns it to the pool
func (p *Pool) Release(rt *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return rt.Close()
	}

	if err := rt.Reset(); err != nil {
		rt.Close()
		if fresh, ferr := New(p.config, p.logger); ferr == nil {
			p.runtimes <- fresh
		}
		return err
	}

	select {
	case p.runtimes <- rt:
		return nil
	default:
		return rt.Close()
	}
}

// Eval runs script on a pooled runtime
func (p *Pool) Eval(ctx context.Context, script string, bindings map[string]any) (any, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := p.Release(rt); err != nil {
			p.logger.Warn("failed to release script runtime", zap.Error(err))
		}
	}()

	return rt.Execute(ctx, script, bindings)
}

// Close closes the pool and all idle runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.runtimes)
	for rt := range p.runtimes {
		rt.Close()
	}
	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":      p.size,
		"available": len(p.runtimes),
		"in_use":    p.size - len(p.runtimes),
		"closed":    p.closed,
	}
}
