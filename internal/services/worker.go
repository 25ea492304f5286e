package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/job-application-agent/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueTask(taskID uuid.UUID)
}

// WorkerOptions tunes the pool. Zero values fall back to defaults.
type WorkerOptions struct {
	Concurrency  int
	QueueSize    int
	PollInterval time.Duration
	// StaleAfter is how long a task may sit queued before the poller
	// re-enqueues it.
	StaleAfter time.Duration
	// StuckAfter is how long a task may stay processing without an update
	// before the poller assumes its runner died and requeues it.
	StuckAfter time.Duration
}

func (o WorkerOptions) withDefaults() WorkerOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 100
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 10 * time.Second
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = 30 * time.Second
	}
	if o.StuckAfter <= 0 {
		o.StuckAfter = 10 * time.Minute
	}
	return o
}

type worker struct {
	taskRepo repositories.TaskRepository
	runner   TaskRunner
	opts     WorkerOptions
	jobQueue chan uuid.UUID
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func NewWorker(
	taskRepo repositories.TaskRepository,
	runner TaskRunner,
	opts WorkerOptions,
	logger *zap.Logger,
) Worker {
	opts = opts.withDefaults()
	return &worker{
		taskRepo: taskRepo,
		runner:   runner,
		opts:     opts,
		jobQueue: make(chan uuid.UUID, opts.QueueSize),
		stopChan: make(chan struct{}),
		logger:   logger.Named("worker"),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.logger.Info("🚀 Starting worker", zap.Int("concurrency", w.opts.Concurrency))

	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.processTasks(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingTasks(ctx)

	w.logger.Info("✅ Worker started successfully")
}

// Stop implements Worker. In-flight tasks finish before it returns.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.logger.Info("✅ Worker stopped")
	})
}

// EnqueueTask implements Worker. It never blocks: when the queue is full the
// task stays queued in the database for the poller.
func (w *worker) EnqueueTask(taskID uuid.UUID) {
	select {
	case <-w.stopChan:
		w.logger.Warn("⚠️ Worker stopped, cannot enqueue task", zap.String("task_id", taskID.String()))
		return
	default:
	}

	select {
	case w.jobQueue <- taskID:
		w.logger.Debug("📥 Task enqueued", zap.String("task_id", taskID.String()))
	default:
		w.logger.Warn("⚠️ Queue full, leaving task for the poller", zap.String("task_id", taskID.String()))
	}
}

func (w *worker) processTasks(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker", workerID))
	log.Debug("👷 Worker goroutine started")

	for {
		select {
		case <-w.stopChan:
			log.Debug("👷 Worker goroutine stopped")
			return
		case <-ctx.Done():
			return
		case taskID := <-w.jobQueue:
			if err := w.runner.Run(ctx, taskID); err != nil {
				log.Error("❌ Failed to process task", zap.String("task_id", taskID.String()), zap.Error(err))
			}
		}
	}
}

func (w *worker) pollPendingTasks(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	w.logger.Debug("🔄 Starting pending tasks poller")

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("🔄 Pending tasks poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.requeueStuckTasks()
			w.enqueuePendingTasks()
		}
	}
}

func (w *worker) enqueuePendingTasks() {
	pending, err := w.taskRepo.FindPendingTasks(10, w.opts.StaleAfter)
	if err != nil {
		w.logger.Warn("⚠️ Failed to fetch pending tasks", zap.Error(err))
		return
	}

	if len(pending) > 0 {
		w.logger.Info("📋 Found pending tasks", zap.Int("count", len(pending)))
	}

	for _, task := range pending {
		w.EnqueueTask(task.ID)
	}
}

// requeueStuckTasks returns processing tasks whose runner went away to the
// queue. Requeue re-checks the age so a task that finished meanwhile stays put.
func (w *worker) requeueStuckTasks() {
	stuck, err := w.taskRepo.FindStuckTasks(10, w.opts.StuckAfter)
	if err != nil {
		w.logger.Warn("⚠️ Failed to fetch stuck tasks", zap.Error(err))
		return
	}

	for _, task := range stuck {
		requeued, err := w.taskRepo.Requeue(task.ID, w.opts.StuckAfter)
		if err != nil {
			w.logger.Warn("⚠️ Failed to requeue stuck task", zap.String("task_id", task.ID.String()), zap.Error(err))
			continue
		}
		if !requeued {
			continue
		}
		w.logger.Warn("♻️ Requeued stuck task", zap.String("task_id", task.ID.String()))
		w.EnqueueTask(task.ID)
	}
}
