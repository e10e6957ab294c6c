package worker

import (
	"context"
	"sync"
)

type ProcessFunc[J any] func(ctx context.Context, job J) error

// Pool runs a fixed number of goroutines draining a buffered job channel.
type Pool[J any] struct {
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup

	mu       sync.Mutex
	firstErr error
	failed   int
}

func NewPool[J any](numWorkers int, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool[J]{
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
	}
}

func (p *Pool[J]) Start(ctx context.Context) {
	for i := 1; i <= p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool[J]) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(ctx, job); err != nil {
				p.recordErr(err)
			}
		}
	}
}

func (p *Pool[J]) recordErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.firstErr == nil {
		p.firstErr = err
	}
	p.failed++
}

// Submit blocks while the buffer is full.
func (p *Pool[J]) Submit(job J) {
	p.jobs <- job
}

// Stop closes the queue, waits for the workers to exit and returns the first
// processing error, if any.
func (p *Pool[J]) Stop() error {
	close(p.jobs)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.firstErr
}

// Failed reports how many jobs returned an error.
func (p *Pool[J]) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}
