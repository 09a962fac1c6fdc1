package accesslog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type worker struct {
	id         int
	workerPool chan chan *Entry
	jobChannel chan *Entry
	logger     *slog.Logger
}

func newWorker(id int, workerPool chan chan *Entry, logger *slog.Logger) *worker {
	return &worker{
		id:         id,
		workerPool: workerPool,
		jobChannel: make(chan *Entry),
		logger:     logger,
	}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(*Entry)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			w.workerPool <- w.jobChannel

			select {
			case e := <-w.jobChannel:
				process(e)
			case <-ctx.Done():
				w.logger.Debug("access log worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

type RecorderConfig struct {
	MaxWorkers   int
	QueueSize    int
	WriteTimeout time.Duration
}

// Recorder persists entries off the request path through a bounded queue and
// a fixed worker pool.
type Recorder struct {
	repo         RepositoryAPI
	logger       *slog.Logger
	writeTimeout time.Duration

	queue      chan *Entry
	workerPool chan chan *Entry
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	dispatched chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func NewRecorder(repo RepositoryAPI, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Recorder{
		repo:         repo,
		logger:       logger,
		writeTimeout: cfg.WriteTimeout,
		queue:        make(chan *Entry, cfg.QueueSize),
		workerPool:   make(chan chan *Entry, cfg.MaxWorkers),
		maxWorkers:   cfg.MaxWorkers,
		ctx:          ctx,
		cancel:       cancel,
		dispatched:   make(chan struct{}),
	}

	for i := 0; i < r.maxWorkers; i++ {
		newWorker(i, r.workerPool, logger).start(ctx, &r.wg, r.persist)
	}
	go r.dispatch()

	logger.Info("access log recorder started", "max_workers", r.maxWorkers, "queue_size", cfg.QueueSize)
	return r
}

func (r *Recorder) dispatch() {
	defer close(r.dispatched)
	for e := range r.queue {
		jobChannel := <-r.workerPool
		jobChannel <- e
	}
}

// Record enqueues e without blocking. Entries are dropped when the queue is
// full or the recorder has been shut down.
func (r *Recorder) Record(e *Entry) {
	if e == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("access log recorder closed, dropping entry", "endpoint", e.Endpoint, "action", e.Action)
		return
	}

	select {
	case r.queue <- e:
	default:
		r.logger.Warn("access log queue full, dropping entry",
			"endpoint", e.Endpoint,
			"action", e.Action,
			"queue_capacity", cap(r.queue))
	}
}

func (r *Recorder) persist(e *Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.repo.Insert(ctx, e.ToDataModel()); err != nil {
		r.logger.Error("failed to persist access log", "error", err, "endpoint", e.Endpoint, "action", e.Action)
	}
}

// Shutdown stops accepting entries and returns once everything queued so far
// has been written.
func (r *Recorder) Shutdown() {
	r.once.Do(func() {
		r.logger.Info("shutting down access log recorder", "pending", len(r.queue))

		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()

		<-r.dispatched
		r.cancel()
		r.wg.Wait()

		r.logger.Info("access log recorder shutdown complete")
	})
}
