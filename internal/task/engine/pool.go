// Package engine runs tasks on a bounded set of worker goroutines.
//
// Lifecycle:
//
//	p := engine.New(cfg, log)
//	p.Start(ctx)
//	p.Submit(task)      // non-blocking; ErrQueueFull when the queue is full
//	p.Shutdown()        // graceful: stop accepting, finish queued and running tasks
//	p.DropPending()     // discard queued tasks that have not started
//	p.ShutdownNow()     // forced: Shutdown + DropPending + cancel running tasks
//	p.AwaitTermination(ctx)
//
// Running tasks observe cancellation only through ShutdownNow (or their own
// timeout); cancelling the ctx passed to Start does not reach them.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	rtsup "chartjobs/internal/runtime/supervisor"
	logx "chartjobs/pkg/logx"
)

const warnThrottleEvery = 5 * time.Second

type Pool struct {
	mu    sync.Mutex
	cfg   Config
	log   logx.Logger
	state State

	q   chan queuedTask
	sup *rtsup.Supervisor

	// forced makes workers discard anything they dequeue after ShutdownNow.
	forced atomic.Bool

	inFlight  atomic.Int32
	completed atomic.Uint64
	failed    atomic.Uint64
	panics    atomic.Uint64
	dropped   atomic.Uint64
	rejected  atomic.Uint64
	idSeq     atomic.Uint64

	warnLimiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

type queuedTask struct {
	task       Task
	enqueuedAt time.Time
	timeout    time.Duration
}

func New(cfg Config, log logx.Logger) *Pool {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Pool{
		cfg:         cfg.withDefaults(),
		log:         log.With(logx.String("comp", "pool")),
		warnLimiter: rate.NewLimiter(rate.Every(warnThrottleEvery), 1),
	}
}

// Start launches the workers. It is a no-op unless the pool is idle.
func (p *Pool) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return
	}
	cfg := p.cfg
	p.q = make(chan queuedTask, cfg.QueueSize)
	// Detach from ctx so that only ShutdownNow cancels running tasks.
	p.sup = rtsup.New(context.WithoutCancel(ctx),
		rtsup.WithLogger(p.log),
		rtsup.WithCancelOnError(false),
	)
	p.state = StateRunning
	queue := p.q
	sup := p.sup
	p.mu.Unlock()

	for i := 0; i < cfg.Workers; i++ {
		name := fmt.Sprintf("worker.%d", i)
		// Restart workers if they exit unexpectedly.
		sup.GoRestart(name, func(c context.Context) error {
			return p.worker(c, queue)
		}, rtsup.WithPublishFirstError(true))
	}

	go func() {
		<-sup.Done()
		p.mu.Lock()
		p.state = StateTerminated
		p.mu.Unlock()
		p.log.Debug("pool terminated")
	}()

	p.log.Info("pool started", logx.Int("workers", cfg.Workers), logx.Int("queue", cap(queue)))
}

// Submit enqueues t without blocking.
func (p *Pool) Submit(t Task) error {
	if t.Run == nil {
		return ErrNilTask
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		t.Name = "task"
	}
	now := time.Now()
	if strings.TrimSpace(t.ID) == "" {
		t.ID = p.newTaskID(now)
	}

	// The queue is closed under mu, so the send below can't hit a closed channel.
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateIdle:
		return ErrStopped
	case StateShutdown, StateTerminated:
		return ErrStopping
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = p.cfg.DefaultTimeout
	}
	select {
	case p.q <- queuedTask{task: t, enqueuedAt: now, timeout: timeout}:
		return nil
	default:
		p.rejected.Add(1)
		if p.warnLimiter.Allow() {
			p.log.Warn("task rejected: queue full",
				logx.String("task", t.Name),
				logx.String("id", t.ID),
				logx.Int("queue_cap", cap(p.q)),
				logx.Uint64("rejected", p.rejected.Load()),
			)
		}
		return ErrQueueFull
	}
}

// Shutdown stops accepting tasks. Queued and running tasks still complete.
// Repeated calls are no-ops.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateRunning {
		return
	}
	p.state = StateShutdown
	close(p.q)
	p.log.Debug("pool shutdown requested", logx.Int("queued", len(p.q)))
}

// DropPending removes queued tasks that no worker has picked up yet and
// returns how many it removed. Running tasks are not touched.
func (p *Pool) DropPending() int {
	p.mu.Lock()
	q := p.q
	p.mu.Unlock()
	if q == nil {
		return 0
	}
	n := 0
	for {
		select {
		case qt, ok := <-q:
			if !ok {
				return n
			}
			p.drop(qt)
			n++
		default:
			return n
		}
	}
}

// ShutdownNow shuts the pool down, drops queued tasks and cancels the
// context of every running task. It returns the number of dropped tasks.
func (p *Pool) ShutdownNow() int {
	p.Shutdown()
	p.forced.Store(true)
	n := p.DropPending()

	p.mu.Lock()
	sup := p.sup
	p.mu.Unlock()
	if sup != nil {
		sup.Cancel()
	}
	p.log.Debug("pool forced shutdown", logx.Int("dropped", n), logx.Int("in_flight", int(p.inFlight.Load())))
	return n
}

// AwaitTermination blocks until every worker has exited or ctx is done.
// It returns ctx.Err() in the latter case. A pool that never started is
// considered terminated.
func (p *Pool) AwaitTermination(ctx context.Context) error {
	p.mu.Lock()
	sup := p.sup
	p.mu.Unlock()
	if sup == nil {
		return nil
	}
	select {
	case <-sup.Done():
		p.mu.Lock()
		p.state = StateTerminated
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pool) Snapshot() Snapshot {
	p.mu.Lock()
	cfg := p.cfg
	state := p.state
	q := p.q
	p.mu.Unlock()

	ql, qc := 0, 0
	if q != nil {
		ql, qc = len(q), cap(q)
	}

	p.hmu.Lock()
	h := make([]HistoryItem, len(p.history))
	copy(h, p.history)
	p.hmu.Unlock()

	return Snapshot{
		State:          state,
		Workers:        cfg.Workers,
		QueueLen:       ql,
		QueueCap:       qc,
		InFlight:       int(p.inFlight.Load()),
		Completed:      p.completed.Load(),
		Failed:         p.failed.Load(),
		Panics:         p.panics.Load(),
		Dropped:        p.dropped.Load(),
		Rejected:       p.rejected.Load(),
		DefaultTimeout: cfg.DefaultTimeout,
		History:        h,
	}
}

func (p *Pool) drop(qt queuedTask) {
	p.dropped.Add(1)
	p.log.Debug("task dropped before start", logx.String("task", qt.task.Name), logx.String("id", qt.task.ID))
}

func (p *Pool) newTaskID(now time.Time) string {
	seq := p.idSeq.Add(1)
	return fmt.Sprintf("tsk-%x-%x", now.UnixNano(), seq)
}
