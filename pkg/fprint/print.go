package fprint

import (
	"runtime"
	"time"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

// Print is a fingerprint template. It is either a placeholder created by
// NewPrint and filled with metadata before enrollment, or a print produced by
// the native layer: an enrollment result, a scan, a stored print or a
// deserialized one.
//
// Passing a Print to Device.Enroll consumes it. Afterwards Valid reports
// false, accessors return zero values and fallible methods return
// ErrPrintConsumed. Free has the same effect.
type Print struct {
	ref         ref
	placeholder bool
}

func newPrint(n backend.Native, h backend.Handle, placeholder bool) *Print {
	p := &Print{ref: ref{native: n, h: h}, placeholder: placeholder}
	runtime.SetFinalizer(p, (*Print).Free)
	return p
}

func borrowedPrint(n backend.Native, h backend.Handle) *Print {
	return &Print{ref: ref{native: n, h: h, borrowed: true}}
}

// NewPrint allocates an empty template for dev.
func NewPrint(dev *Device) (*Print, error) {
	if !dev.live() {
		return nil, ErrFreed
	}
	n := dev.ref.native
	h := n.PrintNew(dev.ref.borrow())
	runtime.KeepAlive(dev)
	if h == backend.Null {
		return nil, &Error{Op: "print-new", Message: unknownFailure, Kind: KindUnknown}
	}
	return newPrint(n, h, true), nil
}

func (p *Print) live() bool {
	return p != nil && p.ref.live()
}

// Valid reports whether the Print still holds a native reference.
func (p *Print) Valid() bool {
	return p.live()
}

func (p *Print) Driver() string {
	if !p.live() {
		return ""
	}
	defer runtime.KeepAlive(p)
	return nativeString("print driver", p.ref.native.PrintDriver(p.ref.borrow()))
}

func (p *Print) DeviceID() string {
	if !p.live() {
		return ""
	}
	defer runtime.KeepAlive(p)
	return nativeString("print device id", p.ref.native.PrintDeviceID(p.ref.borrow()))
}

// DeviceStored reports whether the print lives in the reader's own storage.
func (p *Print) DeviceStored() bool {
	if !p.live() {
		return false
	}
	defer runtime.KeepAlive(p)
	return p.ref.native.PrintDeviceStored(p.ref.borrow())
}

// Image returns the scan the print was made from, if the native layer kept
// one. The Image holds its own reference and must be freed.
func (p *Print) Image() (*Image, bool) {
	if !p.live() {
		return nil, false
	}
	defer runtime.KeepAlive(p)
	n := p.ref.native
	h := n.PrintImage(p.ref.borrow())
	if h == backend.Null {
		return nil, false
	}
	return newImage(n, n.Ref(h)), true
}

func (p *Print) Finger() Finger {
	if !p.live() {
		return FingerUnknown
	}
	defer runtime.KeepAlive(p)
	return Finger(p.ref.native.PrintFinger(p.ref.borrow()))
}

func (p *Print) Username() (string, bool) {
	if !p.live() {
		return "", false
	}
	defer runtime.KeepAlive(p)
	s, ok := p.ref.native.PrintUsername(p.ref.borrow())
	return nativeString("username", s), ok
}

func (p *Print) Description() (string, bool) {
	if !p.live() {
		return "", false
	}
	defer runtime.KeepAlive(p)
	s, ok := p.ref.native.PrintDescription(p.ref.borrow())
	return nativeString("description", s), ok
}

// EnrollDate returns the enrollment date at midnight UTC.
func (p *Print) EnrollDate() (time.Time, bool) {
	if !p.live() {
		return time.Time{}, false
	}
	defer runtime.KeepAlive(p)
	d, ok := p.ref.native.PrintEnrollDate(p.ref.borrow())
	if !ok {
		return time.Time{}, false
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC), true
}

func (p *Print) SetFinger(f Finger) error {
	if !p.live() {
		return ErrPrintConsumed
	}
	p.ref.native.PrintSetFinger(p.ref.borrow(), int(f))
	runtime.KeepAlive(p)
	return nil
}

func (p *Print) SetUsername(username string) error {
	if !p.live() {
		return ErrPrintConsumed
	}
	p.ref.native.PrintSetUsername(p.ref.borrow(), username)
	runtime.KeepAlive(p)
	return nil
}

func (p *Print) SetDescription(description string) error {
	if !p.live() {
		return ErrPrintConsumed
	}
	p.ref.native.PrintSetDescription(p.ref.borrow(), description)
	runtime.KeepAlive(p)
	return nil
}

// SetEnrollDate stores the calendar date of t; the time of day is dropped.
func (p *Print) SetEnrollDate(t time.Time) error {
	if !p.live() {
		return ErrPrintConsumed
	}
	p.ref.native.PrintSetEnrollDate(p.ref.borrow(), backend.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()})
	runtime.KeepAlive(p)
	return nil
}

// Serialize encodes the print for storage. The image, if any, is not kept.
func (p *Print) Serialize() ([]byte, error) {
	if !p.live() {
		return nil, ErrPrintConsumed
	}
	defer runtime.KeepAlive(p)
	n := p.ref.native
	var errH backend.Handle
	buf, ok := n.PrintSerialize(p.ref.borrow(), &errH)
	if !ok {
		return nil, takeError(n, "serialize", &errH)
	}
	discardError(n, &errH)
	defer n.BufferFree(buf)
	return n.BufferBytes(buf), nil
}

func deserializePrint(n backend.Native, data []byte) (*Print, error) {
	var errH backend.Handle
	h := n.PrintDeserialize(data, &errH)
	if h == backend.Null {
		e := takeError(n, "deserialize", &errH)
		e.Kind = KindDecode
		return nil, e
	}
	discardError(n, &errH)
	return newPrint(n, h, false), nil
}

// Compatible reports whether the print can be verified on dev.
func (p *Print) Compatible(dev *Device) bool {
	if !p.live() || !dev.live() {
		return false
	}
	defer runtime.KeepAlive(dev)
	defer runtime.KeepAlive(p)
	return p.ref.native.PrintCompatible(p.ref.borrow(), dev.ref.borrow())
}

// Equal reports whether both prints hold the same biometric template.
func (p *Print) Equal(other *Print) bool {
	if !p.live() || !other.live() {
		return false
	}
	defer runtime.KeepAlive(other)
	defer runtime.KeepAlive(p)
	return p.ref.native.PrintEqual(p.ref.borrow(), other.ref.borrow())
}

// Clone returns another owned reference to the same native print. Metadata
// set through either value is visible through both.
func (p *Print) Clone() (*Print, error) {
	if !p.live() {
		return nil, ErrPrintConsumed
	}
	defer runtime.KeepAlive(p)
	return newPrint(p.ref.native, p.ref.native.Ref(p.ref.borrow()), p.placeholder), nil
}

// Free releases the print. It is safe to call more than once.
func (p *Print) Free() {
	if p == nil {
		return
	}
	p.ref.release()
	runtime.SetFinalizer(p, nil)
}

// take consumes p and returns its native reference.
func (p *Print) take() backend.Handle {
	h := p.ref.take()
	runtime.SetFinalizer(p, nil)
	return h
}

// refreshTemplate replaces a print that came out of the native layer with a
// placeholder for dev carrying the same user-settable metadata. p is consumed.
func refreshTemplate(p *Print, dev *Device) (*Print, error) {
	defer p.Free()
	fresh, err := NewPrint(dev)
	if err != nil {
		return nil, err
	}
	_ = fresh.SetFinger(p.Finger())
	if s, ok := p.Username(); ok {
		_ = fresh.SetUsername(s)
	}
	if s, ok := p.Description(); ok {
		_ = fresh.SetDescription(s)
	}
	if t, ok := p.EnrollDate(); ok {
		_ = fresh.SetEnrollDate(t)
	}
	return fresh, nil
}
