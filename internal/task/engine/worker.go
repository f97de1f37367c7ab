package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	logx "chartjobs/pkg/logx"
)

// worker drains queue until it is closed (graceful) or ctx is cancelled (forced).
func (p *Pool) worker(ctx context.Context, queue <-chan queuedTask) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case qt, ok := <-queue:
			if !ok {
				return nil
			}
			if p.forced.Load() {
				p.drop(qt)
				continue
			}
			p.execOne(ctx, qt)
		}
	}
}

func (p *Pool) execOne(ctx context.Context, qt queuedTask) {
	start := time.Now()
	queueDelay := start.Sub(qt.enqueuedAt)
	if queueDelay < 0 {
		queueDelay = 0
	}

	p.log.Debug("task.started", logx.String("task", qt.task.Name), logx.Duration("queue_delay", queueDelay))

	runCtx := ctx
	var cancel context.CancelFunc
	if qt.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, qt.timeout)
	}

	p.inFlight.Add(1)
	var err error
	// A panicking task becomes an error so it can't kill the worker.
	func() {
		defer func() {
			if r := recover(); r != nil {
				p.panics.Add(1)
				err = fmt.Errorf("panic: %v", r)
				p.log.Error("task.panic", logx.String("task", qt.task.Name), logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			}
		}()
		err = qt.task.Run(runCtx)
	}()
	p.inFlight.Add(-1)
	if cancel != nil {
		cancel()
	}

	dur := time.Since(start)
	item := HistoryItem{ID: qt.task.ID, Name: qt.task.Name, Started: start, QueueDelay: queueDelay, Duration: dur}
	if err != nil {
		p.failed.Add(1)
		item.Error = err.Error()
		p.log.Warn("task.failed", logx.String("task", qt.task.Name), logx.Err(err), logx.Duration("queue_delay", queueDelay), logx.Duration("dur", dur))
	} else {
		p.completed.Add(1)
		if dur >= 750*time.Millisecond {
			p.log.Info("task.completed", logx.String("task", qt.task.Name), logx.Duration("queue_delay", queueDelay), logx.Duration("dur", dur))
		} else {
			p.log.Debug("task.completed", logx.String("task", qt.task.Name), logx.Duration("queue_delay", queueDelay), logx.Duration("dur", dur))
		}
	}

	p.hmu.Lock()
	p.history = append(p.history, item)
	if n := p.cfg.HistorySize; len(p.history) > n {
		p.history = p.history[len(p.history)-n:]
	}
	p.hmu.Unlock()
}
