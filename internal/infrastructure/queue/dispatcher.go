// Package queue runs storefront operations off the caller's goroutine and
// delivers their results to the view that requested them.
package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/metrics"
)

const (
	defaultWorkers = 4
	defaultTimeout = 15 * time.Second
	channelBuffer  = 64
)

// ErrStopped is returned by Submit once the dispatcher has shut down.
var ErrStopped = errors.New("dispatcher stopped")

// Task is one asynchronous operation bound to a view. Run performs the
// backend work and Apply receives its outcome. A successful result is dropped
// once a newer task has been submitted for the same ViewKey; errors and
// AlwaysApply results are applied regardless.
type Task struct {
	ViewKey string
	Name    string
	Run     func(ctx context.Context) (any, error)
	Apply   func(result any, err error)

	// AlwaysApply marks tasks whose outcome the user must see, such as
	// mutations.
	AlwaysApply bool
	// Done, when set, is called once the task has finished, applied or not.
	Done func()
}

type envelope struct {
	task       Task
	generation uint64
}

// Dispatcher shards tasks over a fixed set of workers by view key, so tasks
// for one view run in submission order.
type Dispatcher struct {
	workers []chan envelope
	timeout time.Duration
	log     zerolog.Logger

	mu          sync.Mutex
	generations map[string]uint64

	// closeMu is held shared by senders so Stop never closes a queue under
	// a pending send.
	closeMu sync.RWMutex
	stopped bool

	// quit is closed when the Start context ends or Stop runs.
	quit     chan struct{}
	quitOnce sync.Once

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers workers, each task
// bounded by timeout. Non-positive values fall back to the defaults.
func NewDispatcher(numWorkers int, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	d := &Dispatcher{
		workers:     make([]chan envelope, numWorkers),
		timeout:     timeout,
		log:         log,
		generations: make(map[string]uint64),
		quit:        make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan envelope, channelBuffer)
	}
	return d
}

// Start launches the workers. They exit when ctx is cancelled or Stop is
// called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		select {
		case <-ctx.Done():
			d.closeQuit()
		case <-d.quit:
		}
	}()
}

func (d *Dispatcher) closeQuit() {
	d.quitOnce.Do(func() { close(d.quit) })
}

// Submit queues t and returns the generation it was stamped with. Any result
// still pending for the same view becomes stale. Submit returns ErrStopped
// after Stop or once the Start context is done.
func (d *Dispatcher) Submit(t Task) (uint64, error) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.stopped {
		return 0, ErrStopped
	}
	select {
	case <-d.quit:
		return 0, ErrStopped
	default:
	}

	d.mu.Lock()
	d.generations[t.ViewKey]++
	gen := d.generations[t.ViewKey]
	d.mu.Unlock()

	idx := d.shardIndex(t.ViewKey)

	depth := metrics.TasksQueueDepth.WithLabelValues(strconv.Itoa(idx))
	depth.Inc()
	select {
	case d.workers[idx] <- envelope{task: t, generation: gen}:
		return gen, nil
	case <-d.quit:
		depth.Dec()
		return 0, ErrStopped
	}
}

// Invalidate marks every pending result for viewKey as stale, as when the
// view is closed.
func (d *Dispatcher) Invalidate(viewKey string) {
	d.mu.Lock()
	d.generations[viewKey]++
	d.mu.Unlock()
}

// Stop closes the queues and waits for queued tasks to drain.
func (d *Dispatcher) Stop() {
	d.closeMu.Lock()
	if d.stopped {
		d.closeMu.Unlock()
		return
	}
	d.stopped = true
	d.closeQuit()
	for _, ch := range d.workers {
		close(ch)
	}
	d.closeMu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) current(viewKey string, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generations[viewKey] == gen
}

// shardIndex maps a view key deterministically to a worker index.
func (d *Dispatcher) shardIndex(viewKey string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(viewKey))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan envelope) {
	defer d.wg.Done()
	depth := metrics.TasksQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.execute(ctx, id, env)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, workerID int, env envelope) {
	t := env.task
	if t.Done != nil {
		defer t.Done()
	}
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	result, err := t.Run(runCtx)
	cancel()
	metrics.TaskDuration.Observe(time.Since(start).Seconds())

	if err == nil && !t.AlwaysApply && !d.current(t.ViewKey, env.generation) {
		metrics.TasksCompletedTotal.WithLabelValues("stale").Inc()
		d.log.Debug().
			Str("task", t.Name).
			Str("view", t.ViewKey).
			Uint64("generation", env.generation).
			Msg("dropping stale result")
		return
	}

	if err != nil {
		metrics.TasksCompletedTotal.WithLabelValues("error").Inc()
		d.log.Warn().Err(err).
			Str("task", t.Name).
			Str("view", t.ViewKey).
			Int("worker_id", workerID).
			Msg("task failed")
	} else {
		metrics.TasksCompletedTotal.WithLabelValues("applied").Inc()
	}
	if t.Apply != nil {
		t.Apply(result, err)
	}
}
