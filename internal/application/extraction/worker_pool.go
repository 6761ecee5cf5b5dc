package extraction

import (
	"context"
	"errors"
	"sync"
)

var errPoolStopped = errors.New("worker pool stopped")

// ItemJob is one batch item queued for processing.
type ItemJob struct {
	Index int
	Item  BatchItem
}

// ItemResult is the outcome of one ItemJob.
type ItemResult struct {
	Index  int
	ID     string
	Result Result
	Err    error
}

// ProcessFunc processes a single job.
type ProcessFunc func(ctx context.Context, job ItemJob) ItemResult

// DocumentWorkerPool manages a pool of workers extracting batch items
// concurrently.
type DocumentWorkerPool struct {
	workerCount int
	jobChan     chan ItemJob
	resultChan  chan ItemResult
	process     ProcessFunc
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	stopOnce    sync.Once
}

// NewDocumentWorkerPool creates a new worker pool.
func NewDocumentWorkerPool(ctx context.Context, workerCount int, process ProcessFunc) *DocumentWorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &DocumentWorkerPool{
		workerCount: workerCount,
		jobChan:     make(chan ItemJob, workerCount*2),
		resultChan:  make(chan ItemResult, workerCount*2),
		process:     process,
		ctx:         poolCtx,
		cancel:      cancel,
	}
}

// Start starts the worker goroutines.
func (p *DocumentWorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop closes the job queue, waits for in-flight jobs and closes the results
// channel. Results must be drained concurrently or Stop blocks.
func (p *DocumentWorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobChan)
		p.wg.Wait()
		p.cancel()
		close(p.resultChan)
	})
}

// Submit queues a job. It fails once the pool context is done.
func (p *DocumentWorkerPool) Submit(job ItemJob) error {
	select {
	case p.jobChan <- job:
		return nil
	case <-p.ctx.Done():
		return errPoolStopped
	}
}

// Results returns the results channel.
func (p *DocumentWorkerPool) Results() <-chan ItemResult {
	return p.resultChan
}

func (p *DocumentWorkerPool) worker() {
	defer p.wg.Done()

	for job := range p.jobChan {
		if p.ctx.Err() != nil {
			return
		}

		result := p.process(p.ctx, job)

		select {
		case p.resultChan <- result:
		case <-p.ctx.Done():
			return
		}
	}
}
