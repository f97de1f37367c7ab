package scheduler

import (
	"context"
	"time"

	"chartjobs/internal/task/engine"
	"chartjobs/internal/task/job"
	logx "chartjobs/pkg/logx"
)

const (
	DefaultPoolSize   = 5
	DefaultWaitBudget = time.Minute
)

// BatchReport summarizes one RunBatch call.
type BatchReport struct {
	PoolSize  int
	Submitted int
	Rejected  int

	// Completed and Failed count jobs finished when RunBatch returned.
	Completed uint64
	Failed    uint64
	// Dropped counts jobs discarded before they started.
	Dropped int

	TimedOut    bool
	Interrupted bool
	Elapsed     time.Duration
}

// Batch runs a fixed set of jobs on a fresh pool per call.
type Batch struct {
	factory job.Factory
	budget  time.Duration
	pool    engine.Config
	log     logx.Logger
}

// NewBatch returns a Batch building jobs with factory. A budget <= 0 means
// DefaultWaitBudget.
func NewBatch(factory job.Factory, budget time.Duration, log logx.Logger) *Batch {
	if budget <= 0 {
		budget = DefaultWaitBudget
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Batch{factory: factory, budget: budget, log: log.With(logx.String("comp", "batch"))}
}

// SetPoolConfig sets the base pool settings (task timeout, history size, a
// minimum queue size). Workers is always taken from RunBatch's poolSize.
func (b *Batch) SetPoolConfig(cfg engine.Config) { b.pool = cfg }

// RunBatch submits jobCount jobs (sequence ids 0..jobCount-1) to a pool of
// poolSize workers, requests a graceful shutdown and waits for the budget.
//
// On timeout, jobs that have not started are dropped and running jobs are
// left to finish on their own. If ctx is cancelled while waiting, RunBatch
// returns early and the pool keeps draining in the background. Neither case
// is an error.
//
// poolSize <= 0 means DefaultPoolSize; jobCount <= 0 means 2*poolSize.
func (b *Batch) RunBatch(ctx context.Context, poolSize, jobCount int) BatchReport {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	if jobCount <= 0 {
		jobCount = 2 * poolSize
	}
	start := time.Now()
	rep := BatchReport{PoolSize: poolSize}

	pcfg := b.pool
	pcfg.Workers = poolSize
	if pcfg.QueueSize < jobCount {
		pcfg.QueueSize = jobCount
	}
	if pcfg.HistorySize <= 0 {
		pcfg.HistorySize = jobCount
	}
	pool := engine.New(pcfg, b.log)
	pool.Start(ctx)

	for seq := 0; seq < jobCount; seq++ {
		if err := pool.Submit(b.factory(seq).Task()); err != nil {
			rep.Rejected++
			b.log.Warn("job not submitted", logx.Int("seq", seq), logx.Err(err))
			continue
		}
		rep.Submitted++
	}
	pool.Shutdown()
	b.log.Info("batch submitted", logx.Int("jobs", rep.Submitted), logx.Int("pool", poolSize), logx.Duration("budget", b.budget))

	waitCtx, cancel := context.WithTimeout(ctx, b.budget)
	defer cancel()
	err := pool.AwaitTermination(waitCtx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		rep.Interrupted = true
		b.log.Warn("batch wait interrupted", logx.Err(ctx.Err()))
	default:
		rep.TimedOut = true
		rep.Dropped = pool.DropPending()
		b.log.Warn("batch wait budget exceeded; pending jobs dropped",
			logx.Duration("budget", b.budget),
			logx.Int("dropped", rep.Dropped),
		)
	}

	snap := pool.Snapshot()
	rep.Completed = snap.Completed
	rep.Failed = snap.Failed
	rep.Elapsed = time.Since(start)
	b.log.Info("batch finished",
		logx.Uint64("completed", rep.Completed),
		logx.Uint64("failed", rep.Failed),
		logx.Int("dropped", rep.Dropped),
		logx.Bool("timed_out", rep.TimedOut),
		logx.Duration("elapsed", rep.Elapsed),
	)
	return rep
}
