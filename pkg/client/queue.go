package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yeisme/filevault/pkg/internal/types"
)

const (
	DefaultQueueCapacity    = 16
	DefaultProgressInterval = 200 * time.Millisecond

	progressStep = 10
	progressCap  = 90
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("upload queue closed")

// Uploader sends one file. *Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (types.UploadResult, error)
}

// UploadTask is one queued file. The callbacks run on the worker goroutine
// and may be nil.
type UploadTask struct {
	Name string
	Data []byte

	// OnProgress receives 0, then +10 per interval up to 90, then 100 on
	// success. The values are synthetic, not transferred bytes.
	OnProgress func(percent int)
	// OnDone receives the outcome once the task finished.
	OnDone func(Result)
}

// Result is the outcome of a task.
type Result struct {
	Task UploadTask
	File types.UploadResult
	Err  error
}

// QueueOptions tune an UploadQueue; zero values take the defaults.
type QueueOptions struct {
	Capacity         int
	ProgressInterval time.Duration
}

// UploadQueue runs uploads one at a time in FIFO order. A failed task never
// stops the queue.
type UploadQueue struct {
	ctx      context.Context
	uploader Uploader
	interval time.Duration

	mu     sync.RWMutex
	closed bool
	tasks  chan UploadTask
	wg     sync.WaitGroup
}

// NewUploadQueue starts the worker. ctx bounds every upload.
func NewUploadQueue(ctx context.Context, uploader Uploader, opts QueueOptions) *UploadQueue {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultQueueCapacity
	}

	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}

	q := &UploadQueue{
		ctx:      ctx,
		uploader: uploader,
		interval: opts.ProgressInterval,
		tasks:    make(chan UploadTask, opts.Capacity),
	}

	q.wg.Add(1)

	go q.work()

	return q
}

// Enqueue appends task, blocking while the queue is full.
func (q *UploadQueue) Enqueue(ctx context.Context, task UploadTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of tasks waiting.
func (q *UploadQueue) Len() int {
	return len(q.tasks)
}

// Close stops intake, finishes the queued tasks and waits for the worker.
func (q *UploadQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
	}
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *UploadQueue) work() {
	defer q.wg.Done()

	for task := range q.tasks {
		q.run(task)
	}
}

func (q *UploadQueue) run(task UploadTask) {
	progress := func(p int) {
		if task.OnProgress != nil {
			task.OnProgress(p)
		}
	}

	progress(0)

	stop := make(chan struct{})
	ticking := make(chan struct{})

	go func() {
		defer close(ticking)

		ticker := time.NewTicker(q.interval)
		defer ticker.Stop()

		pct := 0

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if pct < progressCap {
					pct = min(pct+progressStep, progressCap)
					progress(pct)
				}
			}
		}
	}()

	file, err := q.uploader.Upload(q.ctx, task.Name, task.Data)

	close(stop)
	<-ticking

	if err == nil {
		progress(100)
	}

	if task.OnDone != nil {
		task.OnDone(Result{Task: task, File: file, Err: err})
	}
}
