// Package eventbus delivers render completion events to a dynamic set of
// listeners.
package eventbus

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	logx "chartjobs/pkg/logx"
)

// Listener receives completion events. ID is its identity inside a Registry:
// two handles with the same ID are the same listener.
type Listener interface {
	ID() uint64
	OnComplete(ev CompletionEvent) error
}

var listenerSeq atomic.Uint64

// NextID hands out a process-unique listener id.
func NextID() uint64 { return listenerSeq.Add(1) }

type funcListener struct {
	id uint64
	fn func(CompletionEvent) error
}

func (f *funcListener) ID() uint64                          { return f.id }
func (f *funcListener) OnComplete(ev CompletionEvent) error { return f.fn(ev) }

// ListenerFunc wraps fn as a Listener with a fresh identity. Keep the returned
// handle to Unregister it later.
func ListenerFunc(fn func(CompletionEvent) error) Listener {
	return &funcListener{id: NextID(), fn: fn}
}

// PublishReport summarizes one Publish call.
type PublishReport struct {
	Delivered int
	Failed    int
}

// Registry is a concurrency-safe set of listeners.
//
// Contract:
//   - Register is idempotent; Unregister of an absent listener is a no-op.
//   - Publish calls listeners synchronously on the caller's goroutine, in no
//     particular order.
//   - A listener that fails or panics is logged and skipped; the others still run.
//
// Publish works on a snapshot, so listeners may Register/Unregister from
// inside OnComplete.
type Registry struct {
	mu   sync.RWMutex
	subs map[uint64]Listener
	log  logx.Logger

	failures atomic.Uint64
	// warn throttles failure logs from a listener that fails on every event.
	warn rate.Sometimes
}

func NewRegistry(log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{
		subs: map[uint64]Listener{},
		log:  log,
		warn: rate.Sometimes{First: 5, Interval: 5 * time.Second},
	}
}

func (r *Registry) Register(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.subs[l.ID()] = l
	r.mu.Unlock()
}

func (r *Registry) Unregister(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	delete(r.subs, l.ID())
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Failures is the total number of failed deliveries since creation.
func (r *Registry) Failures() uint64 { return r.failures.Load() }

func (r *Registry) Publish(ev CompletionEvent) PublishReport {
	r.mu.RLock()
	ls := make([]Listener, 0, len(r.subs))
	for _, l := range r.subs {
		ls = append(ls, l)
	}
	r.mu.RUnlock()

	var rep PublishReport
	for _, l := range ls {
		if err := r.deliver(l, ev); err != nil {
			rep.Failed++
			r.failures.Add(1)
			r.warn.Do(func() {
				r.log.Warn("listener failed",
					logx.Uint64("listener", l.ID()),
					logx.Int("job", ev.Source.JobID),
					logx.Int("pass", ev.Pass),
					logx.Uint64("failures_total", r.failures.Load()),
					logx.Err(err),
				)
			})
			continue
		}
		rep.Delivered++
	}
	return rep
}

func (r *Registry) deliver(l Listener, ev CompletionEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			r.log.Debug("listener panic stack", logx.Uint64("listener", l.ID()), logx.String("stack", string(debug.Stack())))
		}
	}()
	return l.OnComplete(ev)
}
