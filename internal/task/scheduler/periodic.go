package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"chartjobs/internal/task/engine"
	"chartjobs/internal/task/job"
	logx "chartjobs/pkg/logx"
)

const (
	DefaultPeriodicWorkers = 2
	DefaultPeriod          = "1s"
	DefaultPeriodicBudget  = 10 * time.Second
	DefaultIterations      = 2
	DefaultSleepUpper      = 10 * time.Second

	// shutdownGrace bounds the wait for cancelled runs to return.
	shutdownGrace = 5 * time.Second
)

type PeriodicOptions struct {
	Workers      int
	InitialDelay time.Duration
	// Period is a schedule string: Go duration, HH:MM or cron expression.
	Period     string
	Budget     time.Duration
	Iterations int
	// SleepUpper is the exclusive bound of each simulated sleep, in whole ms.
	SleepUpper time.Duration

	// Factory, when set, makes every run also Start a RenderJob.
	Factory job.Factory
	// Pool carries base pool settings; Workers is replaced by Workers above.
	Pool engine.Config
}

func (o PeriodicOptions) withDefaults() PeriodicOptions {
	if o.Workers <= 0 {
		o.Workers = DefaultPeriodicWorkers
	}
	if o.InitialDelay < 0 {
		o.InitialDelay = 0
	}
	if o.Period == "" {
		o.Period = DefaultPeriod
	}
	if o.Budget <= 0 {
		o.Budget = DefaultPeriodicBudget
	}
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.SleepUpper <= 0 {
		o.SleepUpper = DefaultSleepUpper
	}
	return o
}

// PeriodicReport summarizes one RunPeriodic call.
type PeriodicReport struct {
	Runs        int // runs whose body completed
	Cancelled   int // runs cut short by the forced shutdown
	Dropped     int // triggered runs that never started
	Interrupted bool
	Elapsed     time.Duration
}

// Periodic runs a simulated workload on a fixed-delay schedule.
type Periodic struct {
	log   logx.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	randN func(n int64) int64

	schedule func(ParsedSpec) (cron.Schedule, error)
}

func NewPeriodic(log logx.Logger) *Periodic {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Periodic{
		log:   log.With(logx.String("comp", "periodic")),
		now:   time.Now,
		sleep: sleepCtx,
		randN: rand.Int63n,

		schedule: ParsedSpec.Schedule,
	}
}

// RunPeriodic runs one body at a time: the first after InitialDelay, each
// next one when the schedule fires relative to the previous completion.
// After Budget (or when ctx is cancelled) the pool is force-stopped, which
// cancels in-flight sleeps and drops runs not yet started.
//
// Only an invalid Period, or a cron Period that never fires, is returned as
// an error. If the schedule stops firing later the loop ends and the report
// covers the runs made until then.
func (p *Periodic) RunPeriodic(ctx context.Context, opts PeriodicOptions) (PeriodicReport, error) {
	opts = opts.withDefaults()
	spec, err := ParseSchedule(opts.Period)
	if err != nil {
		return PeriodicReport{}, err
	}
	sched, err := p.schedule(spec)
	if err != nil {
		return PeriodicReport{}, err
	}

	start := p.now()
	var runs, cancelled atomic.Int32

	pcfg := opts.Pool
	pcfg.Workers = opts.Workers
	if pcfg.QueueSize < opts.Workers {
		pcfg.QueueSize = opts.Workers
	}
	pool := engine.New(pcfg, p.log)
	pool.Start(ctx)

	budgetCtx, cancel := context.WithTimeout(ctx, opts.Budget)
	defer cancel()

	p.log.Info("periodic started",
		logx.String("period", opts.Period),
		logx.Duration("initial_delay", opts.InitialDelay),
		logx.Duration("budget", opts.Budget),
		logx.Int("workers", opts.Workers),
	)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		next := start.Add(opts.InitialDelay)
		for seq := 0; ; seq++ {
			if !p.waitUntil(budgetCtx, next) {
				return
			}
			done := make(chan struct{})
			n := seq
			err := pool.Submit(engine.Task{
				Name: fmt.Sprintf("periodic.%d", n),
				Run: func(c context.Context) error {
					defer close(done)
					if p.body(c, n, opts) {
						runs.Add(1)
					} else {
						cancelled.Add(1)
					}
					return nil
				},
			})
			if err != nil {
				if !errors.Is(err, engine.ErrStopping) {
					p.log.Warn("periodic run not submitted", logx.Int("seq", n), logx.Err(err))
				}
				return
			}
			select {
			case <-done:
			case <-budgetCtx.Done():
				return
			}
			next = sched.Next(p.now())
			if next.IsZero() {
				p.log.Warn("periodic schedule has no next run", logx.String("period", opts.Period), logx.Int("after_seq", n))
				return
			}
		}
	}()

	<-budgetCtx.Done()
	rep := PeriodicReport{}
	if ctx.Err() != nil {
		rep.Interrupted = true
		p.log.Warn("periodic interrupted", logx.Err(ctx.Err()))
	}
	rep.Dropped = pool.ShutdownNow()
	<-loopDone

	graceCtx, graceCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer graceCancel()
	if err := pool.AwaitTermination(graceCtx); err != nil {
		p.log.Warn("periodic runs did not stop in time", logx.Duration("grace", shutdownGrace))
	}

	rep.Runs = int(runs.Load())
	rep.Cancelled = int(cancelled.Load())
	rep.Elapsed = p.now().Sub(start)
	p.log.Info("periodic finished",
		logx.Int("runs", rep.Runs),
		logx.Int("cancelled", rep.Cancelled),
		logx.Int("dropped", rep.Dropped),
		logx.Duration("elapsed", rep.Elapsed),
	)
	return rep, nil
}

// body sleeps opts.Iterations times for a random [0, SleepUpper) ms each and
// then starts the optional job. It reports false if ctx cut it short.
func (p *Periodic) body(ctx context.Context, seq int, opts PeriodicOptions) bool {
	upper := opts.SleepUpper.Milliseconds()
	for i := 0; i < opts.Iterations; i++ {
		var d time.Duration
		if upper > 0 {
			d = time.Duration(p.randN(upper)) * time.Millisecond
		}
		p.log.Debug("periodic sleep", logx.Int("seq", seq), logx.Int("iteration", i), logx.Duration("sleep", d))
		if err := p.sleep(ctx, d); err != nil {
			p.log.Info("periodic run interrupted", logx.Int("seq", seq), logx.Int("iteration", i))
			return false
		}
	}
	if opts.Factory != nil {
		if err := opts.Factory(seq).Start(ctx); err != nil {
			p.log.Info("periodic job interrupted", logx.Int("seq", seq), logx.Err(err))
			return false
		}
	}
	return true
}

func (p *Periodic) waitUntil(ctx context.Context, at time.Time) bool {
	d := at.Sub(p.now())
	if d <= 0 {
		return ctx.Err() == nil
	}
	return sleepCtx(ctx, d) == nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
