package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/agentcore/pkg/process"
)

// DefaultWorkerCount is the worker pool size when none is configured.
const DefaultWorkerCount = 4

// WorkerPool runs processes on a fixed set of workers. Each process's
// plan/act loop stays strictly sequential on one worker; the pool only
// provides cross-process parallelism.
type WorkerPool struct {
	platform    *Platform
	workerCount int

	queue    chan *process.AgentProcess
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewWorkerPool creates a pool of workerCount workers over platform.
// workerCount <= 0 uses DefaultWorkerCount.
func NewWorkerPool(platform *Platform, workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	return &WorkerPool{
		platform:    platform,
		workerCount: workerCount,
		queue:       make(chan *process.AgentProcess, workerCount*4),
		stopCh:      make(chan struct{}),
	}
}

// Start spawns the worker goroutines. Safe to call more than once;
// subsequent calls are no-ops.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started {
		slog.Warn("worker pool already started, ignoring duplicate Start call")
		return
	}
	wp.started = true

	slog.Info("starting worker pool", "worker_count", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		workerID := fmt.Sprintf("worker-%d", i)
		wp.wg.Add(1)
		go wp.runWorker(ctx, workerID)
	}
}

// Stop signals workers to finish their current processes and exit, then
// waits for them.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() { close(wp.stopCh) })
	wp.wg.Wait()
	slog.Info("worker pool stopped")
}

// Submit queues a process for execution. Returns an error when the pool
// is stopped or the queue is full.
func (wp *WorkerPool) Submit(p *process.AgentProcess) error {
	select {
	case <-wp.stopCh:
		return fmt.Errorf("worker pool is stopped")
	default:
	}
	select {
	case wp.queue <- p:
		return nil
	default:
		return fmt.Errorf("worker pool queue is full")
	}
}

func (wp *WorkerPool) runWorker(ctx context.Context, workerID string) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.stopCh:
			return
		case <-ctx.Done():
			return
		case p := <-wp.queue:
			wp.runProcess(ctx, workerID, p)
		}
	}
}

// runProcess drives one process to a terminal or WAITING status. A
// WAITING process keeps its tool executor — it will be resumed; terminal
// processes stay tracked for result queries until Release is called.
func (wp *WorkerPool) runProcess(ctx context.Context, workerID string, p *process.AgentProcess) {
	log := slog.With("worker", workerID, "process_id", p.ID(), "agent", p.Agent().Name())
	log.Info("process picked up")

	err := p.Run(ctx)
	switch {
	case err == nil:
		log.Info("process completed")
	case process.IsTerminalError(err):
		log.Warn("process ended", "status", p.Status().String(), "error", err)
	default:
		log.Info("process suspended", "status", p.Status().String())
	}
}
