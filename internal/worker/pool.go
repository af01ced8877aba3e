// internal/worker/pool.go
package worker

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// Pool runs tasks on a bounded number of goroutines
type Pool struct {
	p *pool.ContextPool
}

// NewPool creates a pool with size workers. A size below one uses the
// number of CPUs.
func NewPool(ctx context.Context, size int) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	return &Pool{
		p: pool.New().WithMaxGoroutines(size).WithContext(ctx),
	}
}

// Submit queues a task, blocking while all workers are busy. Tasks observe
// ctx and should return early once it is cancelled.
func (p *Pool) Submit(task func(ctx context.Context) error) {
	p.p.Go(task)
}

// Wait blocks until every submitted task has returned and joins their errors
func (p *Pool) Wait() error {
	return p.p.Wait()
}
