package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocChat/internal/config"
	"github.com/akolanti/DocChat/internal/data/blobStore"
	"github.com/akolanti/DocChat/internal/job"
	"github.com/akolanti/DocChat/internal/metrics"
	"github.com/akolanti/DocChat/internal/rag"
	"github.com/akolanti/DocChat/pkg/logger_i"
)

// Pool drains the ingest job queue. It starts with MinWorkers, grows by one per
// dispatcher signal up to MaxWorkers, and retires workers idle for IdleTimeout.
type Pool struct {
	jobService *job.Service
	ragService rag.Service
	blobs      blobStore.BlobStore

	stopChannel        chan struct{}
	stopOnce           sync.Once
	workerWaitGroup    sync.WaitGroup
	currentWorkerCount int64

	minWorkers  int64
	maxWorkers  int64
	idleTimeout time.Duration
	jobTimeout  time.Duration
	logger      *logger_i.Logger
}

type PoolConfig struct {
	JobService  *job.Service
	RagService  rag.Service
	Blobs       blobStore.BlobStore
	MinWorkers  int64
	MaxWorkers  int64
	IdleTimeout time.Duration
	JobTimeout  time.Duration
}

func NewPool(cfg PoolConfig) *Pool {
	if cfg.MinWorkers < 1 {
		cfg.MinWorkers = config.MinWorkerCount
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = max(config.MaxWorkerCount, cfg.MinWorkers)
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = config.IdleWorkerTimeout
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = config.IngestJobTimeout
	}
	return &Pool{
		jobService:  cfg.JobService,
		ragService:  cfg.RagService,
		blobs:       cfg.Blobs,
		stopChannel: make(chan struct{}),
		minWorkers:  cfg.MinWorkers,
		maxWorkers:  cfg.MaxWorkers,
		idleTimeout: cfg.IdleTimeout,
		jobTimeout:  cfg.JobTimeout,
		logger:      logger_i.NewLogger("WorkerPool"),
	}
}

func (p *Pool) Start() {
	p.logger.Info("Initializing worker pool", "min", p.minWorkers, "max", p.maxWorkers)
	for i := int64(0); i < p.minWorkers; i++ {
		p.createWorker()
	}
	go p.dispatcher()
}

// Stop retires every worker after its current job and waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChannel) })
	p.workerWaitGroup.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) WorkerCount() int64 {
	return atomic.LoadInt64(&p.currentWorkerCount)
}

func (p *Pool) dispatcher() {
	p.logger.Info("Dispatcher started")
	for {
		select {
		case <-p.jobService.DispatcherChannel:
			if p.WorkerCount() < p.maxWorkers {
				p.logger.Debug("Creating new worker", "workerCount", p.WorkerCount())
				p.createWorker()
			}
		case <-p.stopChannel:
			return
		}
	}
}

func (p *Pool) createWorker() {
	p.workerWaitGroup.Add(1)
	atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go p.worker()
}

func (p *Pool) worker() {
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case currentJob := <-p.jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			p.executeJob(currentJob)
			idle.Reset(p.idleTimeout)

		case <-p.stopChannel:
			atomic.AddInt64(&p.currentWorkerCount, -1)
			p.removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			if p.tryRetire() {
				p.removeWorker("Idle worker timeout")
				return
			}
			idle.Reset(p.idleTimeout)
		}
	}
}

// tryRetire claims a slot in the worker count, never letting the pool shrink below minWorkers.
func (p *Pool) tryRetire() bool {
	for {
		current := atomic.LoadInt64(&p.currentWorkerCount)
		if current <= p.minWorkers {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.currentWorkerCount, current, current-1) {
			return true
		}
	}
}

// removeWorker expects the caller to have already decremented the count.
func (p *Pool) removeWorker(reason string) {
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("Removed worker", "reason", reason, "workerCount", p.WorkerCount())
	p.workerWaitGroup.Done()
}
