package fprint

import (
	"context"
	"runtime"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
	"github.com/fprint-go/libfprint-go/pkg/fprint/logging"
)

// EnrollParams contains the inputs of Device.Enroll.
type EnrollParams struct {
	// Template is consumed by the call. A print that came out of the native
	// layer is replaced by a fresh template with the same finger, username,
	// description and enroll date.
	Template *Print
	// Progress is optional.
	Progress EnrollProgress
}

// VerifyParams contains the inputs of Device.Verify.
type VerifyParams struct {
	Print *Print
	Match MatchFunc
	// KeepScan requests the newly scanned print in VerifyResult.Scan.
	KeepScan bool
}

// VerifyResult contains the output of Device.Verify.
type VerifyResult struct {
	Matched bool
	// Scan is the new scan when KeepScan was set and the device produced one.
	Scan *Print
}

// IdentifyParams contains the inputs of Device.Identify.
type IdentifyParams struct {
	Prints   []*Print
	Match    MatchFunc
	KeepScan bool
}

// IdentifyResult contains the output of Device.Identify.
type IdentifyResult struct {
	// Match is a new reference to the matching candidate, nil on a miss.
	Match *Print
	// Index is the position of Match in IdentifyParams.Prints, -1 on a miss.
	Index int
	Scan  *Print
}

// Free releases every print in the result.
func (r *VerifyResult) Free() {
	if r != nil {
		r.Scan.Free()
	}
}

// Free releases every print in the result.
func (r *IdentifyResult) Free() {
	if r != nil {
		r.Match.Free()
		r.Scan.Free()
	}
}

type simpleCall func(n backend.Native, dev, cancel backend.Handle, errH *backend.Handle) bool

func (d *Device) call(ctx context.Context, op string, f simpleCall) error {
	if !d.live() {
		return ErrFreed
	}
	n := d.ref.native
	d.log.Debug(ctx, "device operation", "op", op)
	scope := newCancelScope(ctx, n)
	var errH backend.Handle
	ok := f(n, d.ref.borrow(), scope.handle(), &errH)
	runtime.KeepAlive(d)
	scope.close()
	if !ok {
		return takeError(n, op, &errH)
	}
	discardError(n, &errH)
	return nil
}

// Open opens the device for use.
func (d *Device) Open(ctx context.Context) error {
	return d.call(ctx, "open", backend.Native.DeviceOpen)
}

// Close closes the device. The Device value stays valid and can be reopened.
func (d *Device) Close(ctx context.Context) error {
	return d.call(ctx, "close", backend.Native.DeviceClose)
}

func (d *Device) ClearStorage(ctx context.Context) error {
	return d.call(ctx, "clear-storage", backend.Native.DeviceClearStorage)
}

// Suspend prepares the device for system suspend.
func (d *Device) Suspend(ctx context.Context) error {
	return d.call(ctx, "suspend", backend.Native.DeviceSuspend)
}

func (d *Device) Resume(ctx context.Context) error {
	return d.call(ctx, "resume", backend.Native.DeviceResume)
}

// DeletePrint removes p from the device storage. p stays owned by the caller.
func (d *Device) DeletePrint(ctx context.Context, p *Print) error {
	if !p.live() {
		return ErrPrintConsumed
	}
	defer runtime.KeepAlive(p)
	return d.call(ctx, "delete-print", func(n backend.Native, dev, cancel backend.Handle, errH *backend.Handle) bool {
		return n.DeviceDeletePrint(dev, p.ref.borrow(), cancel, errH)
	})
}

// Enroll runs a complete enrollment and returns the new print. The template
// is consumed whether or not enrollment succeeds.
func (d *Device) Enroll(ctx context.Context, params *EnrollParams) (*Print, error) {
	if params == nil || params.Template == nil {
		return nil, ErrNilParams
	}
	if !d.live() {
		return nil, ErrFreed
	}
	tmpl := params.Template
	if !tmpl.live() {
		return nil, ErrPrintConsumed
	}
	if !tmpl.placeholder {
		fresh, err := refreshTemplate(tmpl, d)
		if err != nil {
			return nil, err
		}
		tmpl = fresh
	}
	n := d.ref.native
	log := d.log
	if _, ok := tmpl.Username(); ok {
		log = log.With(logging.Redacted("username"))
	}
	log.Debug(ctx, "enroll start", "stages", d.NrEnrollStages(), "finger", tmpl.Finger().String())

	scope := newCancelScope(ctx, n)
	var (
		rec *progressReceiver
		pc  *backend.ProgressContext
	)
	if params.Progress != nil {
		rec = &progressReceiver{ctx: ctx, native: n, log: log, fn: params.Progress}
		rec.abort = scope.abort
		pc = backend.NewProgressContext(rec)
	}
	var errH backend.Handle
	res := n.DeviceEnroll(d.ref.borrow(), tmpl.take(), scope.handle(), pc.Ptr(), &errH)
	runtime.KeepAlive(d)
	pc.Release()
	scope.close()

	var (
		out *Print
		err error
	)
	if res == backend.Null {
		err = takeError(n, "enroll", &errH)
	} else {
		discardError(n, &errH)
		out = newPrint(n, res, false)
	}
	if rec != nil {
		log.Debug(ctx, "enroll done", "progress_calls", rec.calls, "ok", err == nil)
		if rec.hit {
			out.Free()
			rec.rethrow()
		}
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Verify scans a finger and compares it with params.Print.
func (d *Device) Verify(ctx context.Context, params *VerifyParams) (*VerifyResult, error) {
	if params == nil || params.Print == nil {
		return nil, ErrNilParams
	}
	if !d.live() {
		return nil, ErrFreed
	}
	if !params.Print.live() {
		return nil, ErrPrintConsumed
	}
	n := d.ref.native
	d.log.Debug(ctx, "device operation", "op", "verify", "keep_scan", params.KeepScan)

	scope := newCancelScope(ctx, n)
	rec, mc := newMatch(n, d.log, "verify", params.Match)
	if rec != nil {
		rec.abort = scope.abort
	}
	var (
		matched    bool
		scan, errH backend.Handle
		scanOut    *backend.Handle
	)
	if params.KeepScan {
		scanOut = &scan
	}
	ok := n.DeviceVerify(d.ref.borrow(), params.Print.ref.borrow(), scope.handle(), mc.Ptr(), &matched, scanOut, &errH)
	runtime.KeepAlive(params.Print)
	runtime.KeepAlive(d)
	mc.Discard()
	scope.close()

	var (
		res *VerifyResult
		err error
	)
	if !ok {
		n.Unref(scan)
		err = takeError(n, "verify", &errH)
	} else {
		discardError(n, &errH)
		res = &VerifyResult{Matched: matched}
		if scan != backend.Null {
			res.Scan = newPrint(n, scan, false)
		}
	}
	if rec != nil && rec.hit {
		res.Free()
		rec.rethrow()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Identify scans a finger and searches params.Prints for it. The candidates
// stay owned by the caller.
func (d *Device) Identify(ctx context.Context, params *IdentifyParams) (*IdentifyResult, error) {
	if params == nil {
		return nil, ErrNilParams
	}
	if !d.live() {
		return nil, ErrFreed
	}
	handles := make([]backend.Handle, len(params.Prints))
	for i, p := range params.Prints {
		if !p.live() {
			return nil, ErrPrintConsumed
		}
		handles[i] = p.ref.borrow()
	}
	n := d.ref.native
	d.log.Debug(ctx, "device operation", "op", "identify", "candidates", len(handles), "keep_scan", params.KeepScan)

	gallery := n.GalleryNew(handles)
	defer n.GalleryFree(gallery)
	scope := newCancelScope(ctx, n)
	rec, mc := newMatch(n, d.log, "identify", params.Match)
	if rec != nil {
		rec.abort = scope.abort
	}
	var (
		hit, scan, errH backend.Handle
		scanOut         *backend.Handle
	)
	if params.KeepScan {
		scanOut = &scan
	}
	ok := n.DeviceIdentify(d.ref.borrow(), gallery, scope.handle(), mc.Ptr(), &hit, scanOut, &errH)
	runtime.KeepAlive(params.Prints)
	runtime.KeepAlive(d)
	mc.Discard()
	scope.close()

	var (
		res *IdentifyResult
		err error
	)
	if !ok {
		n.Unref(hit)
		n.Unref(scan)
		err = takeError(n, "identify", &errH)
	} else {
		discardError(n, &errH)
		res = &IdentifyResult{Index: -1}
		if hit != backend.Null {
			for i, h := range handles {
				if h == hit {
					res.Index = i
					break
				}
			}
			res.Match = newPrint(n, hit, false)
		}
		if scan != backend.Null {
			res.Scan = newPrint(n, scan, false)
		}
	}
	if rec != nil && rec.hit {
		res.Free()
		rec.rethrow()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Capture takes a single image. With waitForFinger the call blocks until a
// finger is placed on the sensor.
func (d *Device) Capture(ctx context.Context, waitForFinger bool) (*Image, error) {
	if !d.live() {
		return nil, ErrFreed
	}
	n := d.ref.native
	d.log.Debug(ctx, "device operation", "op", "capture", "wait", waitForFinger)
	scope := newCancelScope(ctx, n)
	var errH backend.Handle
	h := n.DeviceCapture(d.ref.borrow(), waitForFinger, scope.handle(), &errH)
	runtime.KeepAlive(d)
	scope.close()
	if h == backend.Null {
		return nil, takeError(n, "capture", &errH)
	}
	discardError(n, &errH)
	return newImage(n, h), nil
}

// ListPrints returns the prints kept in the device storage.
func (d *Device) ListPrints(ctx context.Context) ([]*Print, error) {
	if !d.live() {
		return nil, ErrFreed
	}
	n := d.ref.native
	d.log.Debug(ctx, "device operation", "op", "list-prints")
	scope := newCancelScope(ctx, n)
	var errH backend.Handle
	raw, ok := n.DeviceListPrints(d.ref.borrow(), scope.handle(), &errH)
	runtime.KeepAlive(d)
	scope.close()
	if !ok {
		return nil, takeError(n, "list-prints", &errH)
	}
	discardError(n, &errH)
	out := make([]*Print, len(raw))
	for i, h := range raw {
		out[i] = newPrint(n, h, false)
	}
	return out, nil
}
