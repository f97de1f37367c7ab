// Package job defines RenderJob, the unit of work the schedulers submit.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chartjobs/internal/eventbus"
	"chartjobs/internal/render"
	"chartjobs/internal/series"
	"chartjobs/internal/task/engine"
	logx "chartjobs/pkg/logx"
)

var ErrNoSource = errors.New("job has no dataset source")

// Source builds the dataset for job seq.
type Source func(ctx context.Context, seq int) (*series.Dataset, error)

type Deps struct {
	Registry *eventbus.Registry
	Renderer render.Renderer
	Source   Source
	Log      logx.Logger

	// Name prefixes the job name; defaults to "render".
	Name string
	Now  func() time.Time
}

// Factory builds the job with the given sequence id.
type Factory func(seq int) *RenderJob

// NewFactory returns a Factory sharing d across every job it builds.
func NewFactory(d Deps) Factory {
	return func(seq int) *RenderJob { return New(seq, d) }
}

// RenderJob renders one dataset and announces the result to the registry.
type RenderJob struct {
	seq      int
	name     string
	registry *eventbus.Registry
	renderer render.Renderer
	source   Source
	log      logx.Logger
	now      func() time.Time
}

func New(seq int, d Deps) *RenderJob {
	if d.Name == "" {
		d.Name = "render"
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	name := fmt.Sprintf("%s.%d", d.Name, seq)
	return &RenderJob{
		seq:      seq,
		name:     name,
		registry: d.Registry,
		renderer: d.Renderer,
		source:   d.Source,
		log:      d.Log.With(logx.String("job", name)),
		now:      d.Now,
	}
}

func (j *RenderJob) Seq() int     { return j.seq }
func (j *RenderJob) Name() string { return j.name }
func (j *RenderJob) Source() eventbus.Source {
	return eventbus.Source{JobID: j.seq, Name: j.name}
}

// Run performs one unit of work: build the dataset, then render it.
func (j *RenderJob) Run(ctx context.Context) (render.Artifact, int, error) {
	if j.source == nil {
		return render.Artifact{}, 0, ErrNoSource
	}
	ds, err := j.source(ctx, j.seq)
	if err != nil {
		return render.Artifact{}, 0, fmt.Errorf("dataset: %w", err)
	}
	points := ds.Series.Len()
	if j.renderer == nil {
		return render.Artifact{Points: points}, points, nil
	}
	art, err := j.renderer.Render(ctx, ds)
	return art, points, err
}

// Start runs and publishes twice: Run, Publish, Run, Publish. A render
// failure is carried in its event and does not skip the second pass. If ctx
// is done before a pass begins, Start stops and returns ctx.Err().
func (j *RenderJob) Start(ctx context.Context) error {
	for pass := 1; pass <= 2; pass++ {
		if err := ctx.Err(); err != nil {
			j.log.Debug("job cancelled", logx.Int("pass", pass), logx.Err(err))
			return err
		}
		ev := j.pass(ctx, pass)
		if j.registry != nil {
			j.registry.Publish(ev)
		}
	}
	return nil
}

func (j *RenderJob) pass(ctx context.Context, pass int) eventbus.CompletionEvent {
	started := j.now()
	art, points, err := j.Run(ctx)
	ev := eventbus.CompletionEvent{
		Source:   j.Source(),
		Pass:     pass,
		Started:  started,
		Finished: j.now(),
		Points:   points,
		Err:      err,
	}
	if err != nil {
		j.log.Warn("render failed", logx.Int("pass", pass), logx.Err(err))
		return ev
	}
	ev.Format = art.Format
	ev.Bytes = len(art.Data)
	j.log.Debug("render done", logx.Int("pass", pass), logx.Int("bytes", ev.Bytes), logx.Int("points", points))
	return ev
}

// Task wraps Start for submission to an engine.Pool.
func (j *RenderJob) Task() engine.Task {
	return engine.Task{Name: j.name, Run: j.Start}
}
