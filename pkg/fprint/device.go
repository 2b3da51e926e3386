package fprint

import (
	"runtime"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
	"github.com/fprint-go/libfprint-go/pkg/fprint/logging"
)

// Device is a fingerprint reader. Each Device value owns one native
// reference; Clone takes another and the reader is released with the last.
//
// Queries on a freed Device return zero values.
type Device struct {
	ref ref
	log logging.Logger
}

func newDevice(n backend.Native, log logging.Logger, h backend.Handle) *Device {
	d := &Device{ref: ref{native: n, h: h}}
	d.log = log.With("driver", n.DeviceDriver(h), "device", n.DeviceID(h))
	runtime.SetFinalizer(d, (*Device).Free)
	return d
}

// borrowedDevice views a device handed to a callback. It is invalidated once
// the callback returns.
func borrowedDevice(n backend.Native, log logging.Logger, h backend.Handle) *Device {
	return &Device{ref: ref{native: n, h: h, borrowed: true}, log: log}
}

func (d *Device) live() bool {
	return d != nil && d.ref.live()
}

// Valid reports whether the Device still holds a native reference.
func (d *Device) Valid() bool {
	return d.live()
}

// Clone returns another owned reference to the same reader.
func (d *Device) Clone() (*Device, error) {
	if !d.live() {
		return nil, ErrFreed
	}
	c := &Device{ref: ref{native: d.ref.native, h: d.ref.native.Ref(d.ref.borrow())}, log: d.log}
	runtime.SetFinalizer(c, (*Device).Free)
	runtime.KeepAlive(d)
	return c, nil
}

// Free releases this reference. It is safe to call more than once.
func (d *Device) Free() {
	if d == nil {
		return
	}
	d.ref.release()
	runtime.SetFinalizer(d, nil)
}

func (d *Device) Driver() string {
	if !d.live() {
		return ""
	}
	defer runtime.KeepAlive(d)
	return nativeString("driver", d.ref.native.DeviceDriver(d.ref.borrow()))
}

func (d *Device) DeviceID() string {
	if !d.live() {
		return ""
	}
	defer runtime.KeepAlive(d)
	return nativeString("device id", d.ref.native.DeviceID(d.ref.borrow()))
}

// Name is the human readable product name.
func (d *Device) Name() string {
	if !d.live() {
		return ""
	}
	defer runtime.KeepAlive(d)
	return nativeString("device name", d.ref.native.DeviceName(d.ref.borrow()))
}

func (d *Device) ScanType() ScanType {
	if !d.live() {
		return ScanSwipe
	}
	defer runtime.KeepAlive(d)
	return ScanType(d.ref.native.DeviceScanType(d.ref.borrow()))
}

// NrEnrollStages is the number of scans an enrollment needs.
func (d *Device) NrEnrollStages() int {
	if !d.live() {
		return 0
	}
	defer runtime.KeepAlive(d)
	return d.ref.native.DeviceNrEnrollStages(d.ref.borrow())
}

func (d *Device) FingerStatus() FingerStatus {
	if !d.live() {
		return FingerStatusNone
	}
	defer runtime.KeepAlive(d)
	return FingerStatus(d.ref.native.DeviceFingerStatus(d.ref.borrow()))
}

// Features decodes the supported feature mask. Bits unknown to this package
// are left out.
func (d *Device) Features() []Feature {
	if !d.live() {
		return nil
	}
	defer runtime.KeepAlive(d)
	return decodeFeatures(d.ref.native.DeviceFeatures(d.ref.borrow()))
}

func (d *Device) HasFeature(f Feature) bool {
	if !d.live() {
		return false
	}
	defer runtime.KeepAlive(d)
	return d.ref.native.DeviceHasFeature(d.ref.borrow(), uint32(f))
}

// IsOpen asks the native layer whether the device is open.
func (d *Device) IsOpen() bool {
	if !d.live() {
		return false
	}
	defer runtime.KeepAlive(d)
	return d.ref.native.DeviceIsOpen(d.ref.borrow())
}
