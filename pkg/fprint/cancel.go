package fprint

import (
	"context"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

// cancelScope ties a context.Context to a native cancellable for the duration
// of one blocking call.
type cancelScope struct {
	native backend.Native
	h      backend.Handle
	stop   chan struct{}
	done   chan struct{}
}

func newCancelScope(ctx context.Context, n backend.Native) *cancelScope {
	s := &cancelScope{native: n}
	if ctx == nil || ctx.Done() == nil {
		return s
	}
	s.h = n.CancellableNew()
	if ctx.Err() != nil {
		n.CancellableCancel(s.h)
		return s
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		select {
		case <-ctx.Done():
			n.CancellableCancel(s.h)
		case <-s.stop:
		}
	}()
	return s
}

func (s *cancelScope) handle() backend.Handle {
	return s.h
}

// abort cancels the native operation, if it can be cancelled at all.
func (s *cancelScope) abort() {
	if s.h != backend.Null {
		s.native.CancellableCancel(s.h)
	}
}

// close stops the watcher and releases the cancellable. The watcher has exited
// before the reference is dropped.
func (s *cancelScope) close() {
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
	}
	if s.h != backend.Null {
		s.native.Unref(s.h)
		s.h = backend.Null
	}
}
