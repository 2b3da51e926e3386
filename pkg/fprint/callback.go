package fprint

import (
	"context"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
	"github.com/fprint-go/libfprint-go/pkg/fprint/logging"
)

// EnrollProgress is called once per enrollment stage on the goroutine running
// Device.Enroll. dev and print are borrowed and invalid after the callback
// returns; print is nil when the stage produced none. err is a per-stage
// condition such as a retry request and does not end the enrollment.
type EnrollProgress func(dev *Device, completedStages int, print *Print, err error)

// MatchFunc is called at most once per Device.Verify or Device.Identify, as
// soon as the result is known and before the call returns. dev is borrowed.
// match is the matching print, or nil on a miss; scan is the new scan, or nil
// if none was taken. Both prints are owned by the callback and should be freed.
type MatchFunc func(dev *Device, match *Print, scan *Print, err error)

// trap records the first panic raised by a user callback so it can be
// re-raised once the native call has unwound.
type trap struct {
	abort func()
	hit   bool
	value any
}

func (t *trap) run(f func()) {
	if t.hit {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			t.hit = true
			t.value = v
			if t.abort != nil {
				t.abort()
			}
		}
	}()
	f()
}

func (t *trap) rethrow() {
	if t != nil && t.hit {
		panic(t.value)
	}
}

type progressReceiver struct {
	trap
	ctx    context.Context
	native backend.Native
	log    logging.Logger
	fn     EnrollProgress
	calls  int
}

func (r *progressReceiver) EnrollProgress(dev backend.Handle, completedStages int, print, errH backend.Handle) {
	r.calls++
	d := borrowedDevice(r.native, r.log, dev)
	var p *Print
	if print != backend.Null {
		p = borrowedPrint(r.native, print)
	}
	err := copyNative(r.native, "enroll", errH)
	r.log.Debug(r.ctx, "enroll progress", "stage", completedStages, "retry", err != nil)
	r.run(func() { r.fn(d, completedStages, p, err) })
	d.ref.release()
	if p != nil {
		p.ref.release()
	}
}

type matchReceiver struct {
	trap
	native backend.Native
	log    logging.Logger
	op     string
	fn     MatchFunc
}

func (r *matchReceiver) Match(dev, matched, print, errH backend.Handle) {
	d := borrowedDevice(r.native, r.log, dev)
	var m, s *Print
	if matched != backend.Null {
		m = newPrint(r.native, r.native.Ref(matched), false)
	}
	if print != backend.Null {
		s = newPrint(r.native, r.native.Ref(print), false)
	}
	err := copyNative(r.native, r.op, errH)
	r.run(func() { r.fn(d, m, s, err) })
	d.ref.release()
}

// newMatch registers fn for one match dispatch. A nil fn installs no
// callback; both results are then nil and safe to use.
func newMatch(n backend.Native, log logging.Logger, op string, fn MatchFunc) (*matchReceiver, *backend.MatchContext) {
	if fn == nil {
		return nil, nil
	}
	r := &matchReceiver{native: n, log: log, op: op, fn: fn}
	return r, backend.NewMatchContext(r)
}
