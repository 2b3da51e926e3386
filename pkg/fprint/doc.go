// Package fprint is a safe Go surface over libfprint-2, the fingerprint
// reader library used by fprintd.
//
// The package hides reference counting, nullable pointers and out-parameter
// errors behind ordinary Go values:
//
//	fp, err := fprint.NewContext()
//	if err != nil {
//	    return err
//	}
//	defer fp.Free()
//
//	ctx := context.Background()
//	devices, err := fp.Devices()
//	...
//	dev := devices[0]
//	if err := dev.Open(ctx); err != nil {
//	    return err
//	}
//	defer dev.Close(ctx)
//
//	tmpl, _ := fprint.NewPrint(dev)
//	_ = tmpl.SetUsername("alice")
//	enrolled, err := dev.Enroll(ctx, &fprint.EnrollParams{
//	    Template: tmpl,
//	    Progress: func(_ *fprint.Device, stage int, _ *fprint.Print, err error) {
//	        log.Printf("stage %d: %v", stage, err)
//	    },
//	})
//
// # Ownership
//
// Context, Device, Print and Image each own one native reference, released by
// Free. A finalizer acts as a safety net, but callers should Free explicitly.
// Free is idempotent.
//
// Enroll consumes its template: after the call the template reports
// Valid() == false whatever the outcome, and the returned Print is a new
// value owned by the caller.
//
// Values passed to an EnrollProgress callback are borrowed and become invalid
// when the callback returns; use Print.Clone or Device.Clone to keep them.
// Prints passed to a MatchFunc are owned by the callback.
//
// # Cancellation
//
// Every blocking Device method takes a context.Context. Cancelling it aborts
// the native operation, which then fails with an *Error matching ErrCancelled.
//
// # Building
//
// The libfprint-2 backend is compiled with `-tags libfprint` (cgo, linux,
// pkg-config). Without it NewContext returns ErrNotBuilt, and a simulator from
// the simdev package can be supplied through Config.Backend.
//
// A Device must not run two operations at the same time.
package fprint
