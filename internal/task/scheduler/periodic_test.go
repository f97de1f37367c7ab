package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"chartjobs/internal/eventbus"
	logx "chartjobs/pkg/logx"
)

func TestPeriodicDefaults(t *testing.T) {
	t.Parallel()
	o := PeriodicOptions{}.withDefaults()
	if o.Workers != 2 || o.Period != "1s" || o.Budget != 10*time.Second || o.Iterations != 2 || o.SleepUpper != 10*time.Second || o.InitialDelay != 0 {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestPeriodicRunsRepeatedly(t *testing.T) {
	t.Parallel()
	p := NewPeriodic(logx.Nop())
	rep, err := p.RunPeriodic(context.Background(), PeriodicOptions{
		Period:     "10ms",
		Budget:     200 * time.Millisecond,
		Iterations: 1,
		SleepUpper: time.Millisecond, // rand[0, 1) ms is always 0
	})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Runs < 2 {
		t.Fatalf("runs = %d, want at least 2", rep.Runs)
	}
	if rep.Interrupted {
		t.Fatalf("report = %+v", rep)
	}
}

func TestPeriodicUsesFixedDelayFromCompletion(t *testing.T) {
	t.Parallel()
	p := NewPeriodic(logx.Nop())

	var mu sync.Mutex
	var starts []time.Time
	p.sleep = func(ctx context.Context, _ time.Duration) error {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		return sleepCtx(ctx, 30*time.Millisecond)
	}
	_, err := p.RunPeriodic(context.Background(), PeriodicOptions{
		Period:     "20ms",
		Budget:     300 * time.Millisecond,
		Iterations: 1,
		SleepUpper: time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(starts) < 2 {
		t.Fatalf("runs = %d, want at least 2", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		// 30ms of work plus 20ms delay separates consecutive starts.
		if gap := starts[i].Sub(starts[i-1]); gap < 50*time.Millisecond {
			t.Fatalf("gap %d = %v, want >= 50ms", i, gap)
		}
	}
}

func TestPeriodicForcesCancellationAtBudget(t *testing.T) {
	t.Parallel()
	p := NewPeriodic(logx.Nop())
	start := time.Now()
	rep, err := p.RunPeriodic(context.Background(), PeriodicOptions{
		Period:     "1s",
		Budget:     50 * time.Millisecond,
		Iterations: 2,
		SleepUpper: 10 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("sleeping run was not cancelled")
	}
	if rep.Runs+rep.Cancelled != 1 {
		t.Fatalf("report = %+v, want exactly one run started", rep)
	}
}

func TestPeriodicDeterministicCancel(t *testing.T) {
	t.Parallel()
	p := NewPeriodic(logx.Nop())
	p.randN = func(n int64) int64 { return n - 1 }

	rep, err := p.RunPeriodic(context.Background(), PeriodicOptions{
		Budget:     40 * time.Millisecond,
		SleepUpper: 5 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Runs != 0 || rep.Cancelled != 1 {
		t.Fatalf("report = %+v, want 0 runs / 1 cancelled", rep)
	}
}

func TestPeriodicInterruptedByContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	p := NewPeriodic(logx.Nop())
	rep, err := p.RunPeriodic(ctx, PeriodicOptions{Budget: time.Minute, SleepUpper: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Interrupted {
		t.Fatalf("report = %+v, want interrupted", rep)
	}
}

func TestPeriodicInitialDelay(t *testing.T) {
	t.Parallel()
	p := NewPeriodic(logx.Nop())
	var ran atomic.Bool
	p.sleep = func(ctx context.Context, d time.Duration) error {
		ran.Store(true)
		return nil
	}
	rep, err := p.RunPeriodic(context.Background(), PeriodicOptions{
		InitialDelay: time.Hour,
		Budget:       30 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ran.Load() || rep.Runs != 0 {
		t.Fatalf("run started before initial delay: %+v", rep)
	}
}

func TestPeriodicStartsJobAfterBody(t *testing.T) {
	t.Parallel()
	reg := eventbus.NewRegistry(logx.Nop())
	var events atomic.Int32
	reg.Register(eventbus.ListenerFunc(func(eventbus.CompletionEvent) error { events.Add(1); return nil }))

	var runs atomic.Int32
	p := NewPeriodic(logx.Nop())
	rep, err := p.RunPeriodic(context.Background(), PeriodicOptions{
		Period:     "1h",
		Budget:     100 * time.Millisecond,
		Iterations: 1,
		SleepUpper: time.Millisecond,
		Factory:    testFactory(reg, &runs, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Runs != 1 || events.Load() != 2 || runs.Load() != 2 {
		t.Fatalf("runs=%d events=%d dataset builds=%d", rep.Runs, events.Load(), runs.Load())
	}
}

func TestPeriodicRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	if _, err := NewPeriodic(logx.Nop()).RunPeriodic(context.Background(), PeriodicOptions{Period: "nope"}); err == nil {
		t.Fatal("expected schedule error")
	}
	rep, err := NewPeriodic(logx.Nop()).RunPeriodic(context.Background(), PeriodicOptions{
		Period:     "0 0 30 2 *",
		Budget:     200 * time.Millisecond,
		Iterations: 1,
		SleepUpper: time.Millisecond,
	})
	if !errors.Is(err, ErrNeverFires) {
		t.Fatalf("err = %v, want ErrNeverFires", err)
	}
	if rep.Runs != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

type exhaustedSchedule struct{}

func (exhaustedSchedule) Next(time.Time) time.Time { return time.Time{} }

func TestPeriodicStopsWhenScheduleRunsOut(t *testing.T) {
	t.Parallel()
	p := NewPeriodic(logx.Nop())
	p.schedule = func(ParsedSpec) (cron.Schedule, error) { return exhaustedSchedule{}, nil }
	rep, err := p.RunPeriodic(context.Background(), PeriodicOptions{
		Period:     "10ms",
		Budget:     150 * time.Millisecond,
		Iterations: 1,
		SleepUpper: time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Runs != 1 {
		t.Fatalf("runs = %d, want 1", rep.Runs)
	}
}
