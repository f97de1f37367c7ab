package engine

import "errors"

var (
	ErrStopped   = errors.New("worker pool not running")
	ErrStopping  = errors.New("worker pool shutting down")
	ErrQueueFull = errors.New("worker pool queue full")
	ErrNilTask   = errors.New("task Run is nil")
)
