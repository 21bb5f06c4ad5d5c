package driver

import (
	"context"
	"sync"
)

// Latch records the first response accepted by a match function. Adapters
// feed it from their event goroutine; scenario code reads it synchronously.
type Latch struct {
	match func(Response) bool

	mu       sync.Mutex
	resp     Response
	observed bool
	closed   bool
	onClose  func()

	// stopped is closed when a context watcher started by
	// NewContextLatch has returned.
	stopped chan struct{}
}

// NewLatch returns a Latch. onClose, if set, runs exactly once on Close.
func NewLatch(match func(Response) bool, onClose func()) *Latch {
	return &Latch{match: match, onClose: onClose}
}

// NewContextLatch returns a Latch that also closes when ctx ends. The
// watcher goroutine exits on whichever comes first, ctx or Close.
func NewContextLatch(ctx context.Context, match func(Response) bool, onClose func()) *Latch {
	closed := make(chan struct{})
	l := NewLatch(match, func() {
		close(closed)
		if onClose != nil {
			onClose()
		}
	})
	l.stopped = make(chan struct{})
	go func() {
		defer close(l.stopped)
		select {
		case <-ctx.Done():
			l.Close()
		case <-closed:
		}
	}()
	return l
}

// Offer hands a response to the latch. Responses after the first match, or
// after Close, are ignored.
func (l *Latch) Offer(r Response) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.observed {
		return
	}
	if l.match == nil || l.match(r) {
		l.resp = r
		l.observed = true
	}
}

// Observed implements Observer.
func (l *Latch) Observed() (Response, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resp, l.observed
}

// Close implements Observer.
func (l *Latch) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	fn := l.onClose
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Closed reports whether Close has been called.
func (l *Latch) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
