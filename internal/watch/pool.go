package watch

import (
	"context"
	"sync"
)

// pool owns the goroutines of one Watcher run. After close it refuses new
// goroutines until reopened, so wg.Add never races with wg.Wait.
type pool struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
	active int
}

// spawn runs fn in a tracked goroutine. It returns false once the pool is
// closed.
func (p *pool) spawn(fn func()) bool {
	if fn == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.active++
	p.wg.Add(1)
	go func() {
		defer func() {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
			p.wg.Done()
		}()
		fn()
	}()
	return true
}

// running returns the number of goroutines that have not returned yet.
func (p *pool) running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// close stops new spawns and waits for the tracked goroutines, bounded by ctx.
func (p *pool) close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reopen allows spawning again. Callers only reopen after close returned nil.
func (p *pool) reopen() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = false
}
