package eventbus

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	logx "chartjobs/pkg/logx"
)

type countingListener struct {
	id    uint64
	calls atomic.Int32
}

func (c *countingListener) ID() uint64 { return c.id }
func (c *countingListener) OnComplete(CompletionEvent) error {
	c.calls.Add(1)
	return nil
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry(logx.Nop())
	l := &countingListener{id: NextID()}
	r.Register(l)
	r.Register(l)
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	rep := r.Publish(CompletionEvent{Pass: 1})
	if got := l.calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if rep.Delivered != 1 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	r := NewRegistry(logx.Nop())
	a := &countingListener{id: NextID()}
	b := &countingListener{id: NextID()}
	r.Register(a)
	r.Register(b)
	r.Unregister(a)
	r.Unregister(a) // absent: no-op
	r.Publish(CompletionEvent{})
	if a.calls.Load() != 0 {
		t.Fatal("unregistered listener was invoked")
	}
	if b.calls.Load() != 1 {
		t.Fatalf("b calls = %d, want 1", b.calls.Load())
	}
}

func TestFailingListenersAreIsolated(t *testing.T) {
	r := NewRegistry(logx.Nop())
	ok := &countingListener{id: NextID()}
	r.Register(ListenerFunc(func(CompletionEvent) error { return errors.New("nope") }))
	r.Register(ListenerFunc(func(CompletionEvent) error { panic("boom") }))
	r.Register(ok)

	rep := r.Publish(CompletionEvent{Source: Source{JobID: 3}})
	if ok.calls.Load() != 1 {
		t.Fatal("healthy listener skipped after sibling failure")
	}
	if rep.Delivered != 1 || rep.Failed != 2 {
		t.Fatalf("report = %+v, want 1 delivered / 2 failed", rep)
	}
	if r.Failures() != 2 {
		t.Fatalf("Failures = %d, want 2", r.Failures())
	}
}

func TestListenerFuncIdentity(t *testing.T) {
	r := NewRegistry(logx.Nop())
	fn := func(CompletionEvent) error { return nil }
	a := ListenerFunc(fn)
	b := ListenerFunc(fn)
	r.Register(a)
	r.Register(b)
	if r.Len() != 2 {
		t.Fatalf("distinct wrappers should be distinct listeners, Len = %d", r.Len())
	}
	r.Unregister(a)
	if r.Len() != 1 {
		t.Fatalf("Len = %d after Unregister, want 1", r.Len())
	}
}

func TestUnregisterFromCallback(t *testing.T) {
	r := NewRegistry(logx.Nop())
	var self Listener
	var calls int
	self = ListenerFunc(func(CompletionEvent) error {
		calls++
		r.Unregister(self)
		return nil
	})
	r.Register(self)
	r.Publish(CompletionEvent{})
	r.Publish(CompletionEvent{})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestConcurrentRegisterAndPublish(t *testing.T) {
	r := NewRegistry(logx.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l := ListenerFunc(func(CompletionEvent) error { return nil })
				r.Register(l)
				r.Unregister(l)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Publish(CompletionEvent{})
			}
		}()
	}
	wg.Wait()
	if r.Len() != 0 {
		t.Fatalf("Len = %d, want 0", r.Len())
	}
}
