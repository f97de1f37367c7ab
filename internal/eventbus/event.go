package eventbus

import "time"

// Source identifies the job that completed.
type Source struct {
	JobID int
	Name  string
}

// CompletionEvent is published once per finished unit of work.
// It is an immutable snapshot; listeners may retain it.
type CompletionEvent struct {
	Source   Source
	Pass     int // 1 or 2 within one Start
	Started  time.Time
	Finished time.Time

	// Artifact summary; zero when the render failed.
	Format string
	Bytes  int
	Points int

	Err error
}

func (e CompletionEvent) Duration() time.Duration { return e.Finished.Sub(e.Started) }

func (e CompletionEvent) OK() bool { return e.Err == nil }
