package storage

import (
	"context"
	"time"

	"chartjobs/internal/eventbus"
	logx "chartjobs/pkg/logx"
)

const recordTimeout = 2 * time.Second

// Recorder is an eventbus.Listener that persists every completion event.
type Recorder struct {
	id    uint64
	store Store
	log   logx.Logger
}

func NewRecorder(store Store, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{id: eventbus.NextID(), store: store, log: log.With(logx.String("comp", "recorder"))}
}

func (r *Recorder) ID() uint64 { return r.id }

func (r *Recorder) OnComplete(ev eventbus.CompletionEvent) error {
	if r.store == nil {
		return ErrDisabled
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	rec := RecordFromEvent(ev)
	r.log.Trace("recording completion",
		logx.Int("job_id", rec.JobID),
		logx.Int("pass", rec.Pass),
		logx.Int64("duration_ms", rec.DurationMS),
		logx.Time("at", rec.At),
	)
	return r.store.AppendCompletion(ctx, rec)
}

// RecordFromEvent converts a completion event to its stored form.
func RecordFromEvent(ev eventbus.CompletionEvent) CompletionRecord {
	rec := CompletionRecord{
		At:         ev.Finished,
		JobID:      ev.Source.JobID,
		Job:        ev.Source.Name,
		Pass:       ev.Pass,
		DurationMS: ev.Duration().Milliseconds(),
		Format:     ev.Format,
		Bytes:      ev.Bytes,
		Points:     ev.Points,
	}
	if ev.Err != nil {
		rec.Error = ev.Err.Error()
	}
	return rec
}
