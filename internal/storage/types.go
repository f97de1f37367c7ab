package storage

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persistence API used by the recorder and the history command.
type Store interface {
	AppendCompletion(ctx context.Context, r CompletionRecord) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]CompletionRecord, error)
	Close() error
}

// CompletionRecord is the stored form of one completion event.
// Keep it compact and schema-stable.
type CompletionRecord struct {
	At         time.Time `json:"at"`
	JobID      int       `json:"job_id"`
	Job        string    `json:"job"`
	Pass       int       `json:"pass"`
	DurationMS int64     `json:"duration_ms"`
	Format     string    `json:"format,omitempty"`
	Bytes      int       `json:"bytes"`
	Points     int       `json:"points"`
	Error      string    `json:"error,omitempty"`
}

func (r CompletionRecord) OK() bool { return r.Error == "" }
