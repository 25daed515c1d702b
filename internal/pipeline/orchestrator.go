package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/pdfoutline/internal/config"
	"github.com/dgallion1/pdfoutline/internal/storage"
)

var (
	ErrQueueFull      = errors.New("job queue is full")
	ErrAlreadyRunning = errors.New("file is already being processed")
)

// Orchestrator manages the processing queue and its workers.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	conv  Converter
	store *storage.Store
	locks *PathLocks
	log   *slog.Logger
	cfg   config.Config

	activeMu sync.Mutex
	active   map[string]string // upload name -> job ID

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, store *storage.Store, conv Converter, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		conv:   conv,
		store:  store,
		locks:  NewPathLocks(),
		log:    log,
		cfg:    cfg,
		active: make(map[string]string),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.conv, o.store, o.locks, o.log, o.cfg.MaxUploadBytes)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
					o.release(job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a job. Only one job per upload may be queued or running.
func (o *Orchestrator) Submit(job *Job) error {
	o.activeMu.Lock()
	if prev := o.running(job.Filename); prev != nil {
		o.activeMu.Unlock()
		return fmt.Errorf("%w: %s (job %s)", ErrAlreadyRunning, job.Filename, prev.ID)
	}
	o.jobs.Put(job)
	o.active[job.Filename] = job.ID
	o.activeMu.Unlock()

	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		o.release(job)
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

func (o *Orchestrator) release(job *Job) {
	o.activeMu.Lock()
	defer o.activeMu.Unlock()
	if o.active[job.Filename] == job.ID {
		delete(o.active, job.Filename)
	}
}

// Active returns the job currently queued or running for an upload.
func (o *Orchestrator) Active(filename string) *Job {
	o.activeMu.Lock()
	defer o.activeMu.Unlock()
	return o.running(filename)
}

// running looks up the unfinished job for filename. A job that reached a
// terminal status no longer counts even before its worker releases it.
// Callers hold activeMu.
func (o *Orchestrator) running(filename string) *Job {
	id, ok := o.active[filename]
	if !ok {
		return nil
	}
	job := o.jobs.Get(id)
	if job == nil || job.Snapshot().Status.Done() {
		return nil
	}
	return job
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Locks returns the path locks shared with the workers so other writers of
// processed files can serialize with them.
func (o *Orchestrator) Locks() *PathLocks {
	return o.locks
}

// Store returns the storage the pipeline reads and writes.
func (o *Orchestrator) Store() *storage.Store {
	return o.store
}
