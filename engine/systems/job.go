package systems

import (
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/fusen/engine/core"
)

// JobTask is a unit of off-context work. It must honour ctx.
type JobTask func(ctx context.Context)

// JobSystem is a fixed pool of workers running submitted tasks in any order.
type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	quit       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
		quit:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for {
				select {
				case job := <-js.jobQueue:
					js.run(job)
				case <-js.quit:
					return
				}
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	defer func() {
		// a panicking job must not take a worker down with it
		if r := recover(); r != nil {
			core.LogError("job panicked: %v", r)
		}
	}()
	job(js.ctx)
}

/**
 * @brief Shuts the job system down. Running jobs see their context
 * cancelled; queued jobs are discarded. Safe to call more than once.
 */
func (js *JobSystem) Shutdown() error {
	js.once.Do(func() {
		js.cancel()
		close(js.quit)
		js.wg.Wait()
	})
	return nil
}

// AddWorkNonBlocking queues the job from a new goroutine and returns immediately.
func (js *JobSystem) AddWorkNonBlocking(ctx context.Context, job JobTask) {
	go js.Submit(ctx, job)
}

/**
 * @brief Submits the provided job to be queued for execution, blocking while
 * the queue is full. Returns false if ctx ends or the system shuts down first.
 */
func (js *JobSystem) Submit(ctx context.Context, job JobTask) bool {
	select {
	case js.jobQueue <- job:
		return true
	case <-js.quit:
		return false
	case <-ctx.Done():
		return false
	}
}
