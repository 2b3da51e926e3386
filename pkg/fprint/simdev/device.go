package simdev

import (
	"time"

	"github.com/google/uuid"

	"github.com/fprint-go/libfprint-go/pkg/fprint"
	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

// Op names a device operation for scripting.
type Op string

const (
	OpOpen         Op = "open"
	OpClose        Op = "close"
	OpEnroll       Op = "enroll"
	OpVerify       Op = "verify"
	OpIdentify     Op = "identify"
	OpCapture      Op = "capture"
	OpListPrints   Op = "list-prints"
	OpDeletePrint  Op = "delete-print"
	OpClearStorage Op = "clear-storage"
	OpSuspend      Op = "suspend"
	OpResume       Op = "resume"
)

// DeviceConfig describes a simulated reader. Zero fields take defaults.
type DeviceConfig struct {
	// Driver defaults to "virtual_image".
	Driver string
	// Name defaults to "Virtual image device".
	Name string
	// ID defaults to a random UUID.
	ID       string
	ScanType fprint.ScanType
	// EnrollStages defaults to 5.
	EnrollStages int
	// Features defaults to capture, identify and verify.
	Features []fprint.Feature
	// ImageWidth and ImageHeight default to 64; PPMM defaults to 19.7
	// (500 dpi).
	ImageWidth  int
	ImageHeight int
	PPMM        float64
	// KeepImages attaches the scanned image to every print the device
	// produces.
	KeepImages bool
}

func (c DeviceConfig) withDefaults() DeviceConfig {
	if c.Driver == "" {
		c.Driver = "virtual_image"
	}
	if c.Name == "" {
		c.Name = "Virtual image device"
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.EnrollStages <= 0 {
		c.EnrollStages = 5
	}
	if c.Features == nil {
		c.Features = []fprint.Feature{fprint.FeatureCapture, fprint.FeatureIdentify, fprint.FeatureVerify}
	}
	if c.ImageWidth <= 0 {
		c.ImageWidth = 64
	}
	if c.ImageHeight <= 0 {
		c.ImageHeight = 64
	}
	if c.PPMM <= 0 {
		c.PPMM = 19.685
	}
	return c
}

type failure struct {
	info    backend.ErrorInfo
	noError bool
}

func deviceFailure(code int, msg string) *failure {
	return &failure{info: backend.ErrorInfo{Domain: backend.DomainDevice, Code: code, Message: msg}}
}

var cancelledFailure = &failure{info: backend.ErrorInfo{
	Domain:  backend.DomainIO,
	Code:    backend.IOErrorCancelled,
	Message: "Operation was cancelled",
}}

type device struct {
	cfg        DeviceConfig
	features   uint32
	open       bool
	suspended  bool
	status     uint32
	wait       bool
	samples    []string
	notify     chan struct{}
	failures   map[Op]*failure
	retries    map[int]int
	matchCalls int
	stored     []backend.Handle
}

// Device scripts one simulated reader.
type Device struct {
	sim *Sim
	h   backend.Handle
	d   *device
}

// AddDevice plugs a new reader into the Sim. Contexts see it on their next
// enumeration.
func (s *Sim) AddDevice(cfg DeviceConfig) *Device {
	cfg = cfg.withDefaults()
	d := &device{
		cfg:        cfg,
		notify:     make(chan struct{}),
		failures:   make(map[Op]*failure),
		retries:    make(map[int]int),
		matchCalls: 1,
	}
	for _, f := range cfg.Features {
		d.features |= uint32(f)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.alloc(&object{kind: KindDevice, dev: d})
	s.devices = append(s.devices, h)
	return &Device{sim: s, h: h, d: d}
}

// ID returns the device id reported to the wrapper.
func (d *Device) ID() string { return d.d.cfg.ID }

// Present queues scans. Each key stands for one finger placement.
func (d *Device) Present(keys ...string) {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	d.d.samples = append(d.d.samples, keys...)
	close(d.d.notify)
	d.d.notify = make(chan struct{})
}

// WaitForFinger makes operations block on an empty scan queue instead of
// failing.
func (d *Device) WaitForFinger(on bool) {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	d.d.wait = on
}

// Fail makes the next op fail with a device error.
func (d *Device) Fail(op Op, code fprint.DeviceErrorCode, msg string) {
	d.FailWith(op, backend.DomainDevice, int(code), msg)
}

// FailWith makes the next op fail with an arbitrary error.
func (d *Device) FailWith(op Op, domain string, code int, msg string) {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	d.d.failures[op] = &failure{info: backend.ErrorInfo{Domain: domain, Code: code, Message: msg}}
}

// FailWithoutError makes the next op report failure without setting its
// error out-parameter.
func (d *Device) FailWithoutError(op Op) {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	d.d.failures[op] = &failure{noError: true}
}

// RetryStage makes the scan for the given 1-based enrollment stage fail once
// with a retry condition. The stage is then scanned again.
func (d *Device) RetryStage(stage int, code fprint.RetryCode) {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	d.d.retries[stage] = int(code)
}

// MatchCallbacks sets how many times verify and identify invoke the match
// callback. The default is one; zero never invokes it.
func (d *Device) MatchCallbacks(n int) {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	d.d.matchCalls = n
}

// SetFingerStatus sets the status reported by the device.
func (d *Device) SetFingerStatus(status fprint.FingerStatus) {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	d.d.status = uint32(status)
}

// IsOpen reports the simulated open state.
func (d *Device) IsOpen() bool {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	return d.d.open
}

// Suspended reports whether the device was suspended and not resumed.
func (d *Device) Suspended() bool {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	return d.d.suspended
}

// Stored returns the number of prints in device storage.
func (d *Device) Stored() int {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	return len(d.d.stored)
}

// Pending returns the number of queued scans.
func (d *Device) Pending() int {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	return len(d.d.samples)
}

// begin validates an operation on device h and consumes its failure script.
// need is the feature bit the operation requires, 0 for none. Callers hold
// s.mu.
func (s *Sim) begin(h, cancel backend.Handle, op Op, needOpen bool, need uint32) (*device, *failure) {
	o := s.lookup(h, KindDevice, string(op))
	if o == nil {
		return nil, deviceFailure(backend.DeviceErrorGeneral, "invalid device")
	}
	d := o.dev
	if _, cancelled := s.cancelState(cancel, string(op)); cancelled {
		return d, cancelledFailure
	}
	if f, ok := d.failures[op]; ok {
		delete(d.failures, op)
		return d, f
	}
	if needOpen && !d.open {
		return d, deviceFailure(backend.DeviceErrorNotOpen, "The device has not been opened")
	}
	if need != 0 && d.features&need == 0 {
		return d, deviceFailure(backend.DeviceErrorNotSupported, "Device does not support the requested operation")
	}
	return d, nil
}

// fail publishes f to errOut. Callers hold s.mu.
func (s *Sim) fail(errOut *backend.Handle, f *failure) {
	if f.noError || errOut == nil {
		return
	}
	*errOut = s.newError(f.info)
}

// takeSample pops the next scan of d, waiting for one when d.wait is set.
func (s *Sim) takeSample(d *device, cancel backend.Handle) (string, *failure) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	for {
		s.mu.Lock()
		cancelCh, cancelled := s.cancelState(cancel, "scan")
		if cancelled {
			s.mu.Unlock()
			return "", cancelledFailure
		}
		if len(d.samples) > 0 {
			key := d.samples[0]
			d.samples = d.samples[1:]
			s.mu.Unlock()
			return key, nil
		}
		if !d.wait {
			s.mu.Unlock()
			return "", deviceFailure(backend.DeviceErrorGeneral, "No finger was presented")
		}
		notify := d.notify
		s.mu.Unlock()

		select {
		case <-notify:
		case <-cancelCh:
		case <-timer.C:
			return "", deviceFailure(backend.DeviceErrorProto, "Timed out waiting for a finger")
		}
	}
}

func (s *Sim) deviceField(h backend.Handle, op string, f func(d *device)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o := s.lookup(h, KindDevice, op); o != nil {
		f(o.dev)
	}
}

// DeviceDriver implements the native surface.
func (s *Sim) DeviceDriver(h backend.Handle) (v string) {
	s.deviceField(h, "driver", func(d *device) { v = d.cfg.Driver })
	return v
}

// DeviceID implements the native surface.
func (s *Sim) DeviceID(h backend.Handle) (v string) {
	s.deviceField(h, "device id", func(d *device) { v = d.cfg.ID })
	return v
}

// DeviceName implements the native surface.
func (s *Sim) DeviceName(h backend.Handle) (v string) {
	s.deviceField(h, "name", func(d *device) { v = d.cfg.Name })
	return v
}

// DeviceScanType implements the native surface.
func (s *Sim) DeviceScanType(h backend.Handle) (v int) {
	s.deviceField(h, "scan type", func(d *device) { v = int(d.cfg.ScanType) })
	return v
}

// DeviceNrEnrollStages implements the native surface.
func (s *Sim) DeviceNrEnrollStages(h backend.Handle) (v int) {
	s.deviceField(h, "enroll stages", func(d *device) { v = d.cfg.EnrollStages })
	return v
}

// DeviceFingerStatus implements the native surface.
func (s *Sim) DeviceFingerStatus(h backend.Handle) (v uint32) {
	s.deviceField(h, "finger status", func(d *device) { v = d.status })
	return v
}

// DeviceFeatures implements the native surface.
func (s *Sim) DeviceFeatures(h backend.Handle) (v uint32) {
	s.deviceField(h, "features", func(d *device) { v = d.features })
	return v
}

// DeviceHasFeature implements the native surface.
func (s *Sim) DeviceHasFeature(h backend.Handle, feature uint32) (v bool) {
	s.deviceField(h, "has feature", func(d *device) { v = feature != 0 && d.features&feature == feature })
	return v
}

// DeviceIsOpen implements the native surface.
func (s *Sim) DeviceIsOpen(h backend.Handle) (v bool) {
	s.deviceField(h, "is open", func(d *device) { v = d.open })
	return v
}

// DeviceOpen implements the native surface.
func (s *Sim) DeviceOpen(h, cancel backend.Handle, errOut *backend.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, f := s.begin(h, cancel, OpOpen, false, 0)
	if f == nil && d.open {
		f = deviceFailure(backend.DeviceErrorAlreadyOpen, "The device is already open")
	}
	if f != nil {
		s.fail(errOut, f)
		return false
	}
	d.open = true
	return true
}

// DeviceClose implements the native surface.
func (s *Sim) DeviceClose(h, cancel backend.Handle, errOut *backend.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, f := s.begin(h, cancel, OpClose, true, 0)
	if f != nil {
		s.fail(errOut, f)
		return false
	}
	d.open = false
	return true
}

// DeviceSuspend implements the native surface.
func (s *Sim) DeviceSuspend(h, cancel backend.Handle, errOut *backend.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, f := s.begin(h, cancel, OpSuspend, false, 0)
	if f != nil {
		s.fail(errOut, f)
		return false
	}
	d.suspended = true
	return true
}

// DeviceResume implements the native surface.
func (s *Sim) DeviceResume(h, cancel backend.Handle, errOut *backend.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, f := s.begin(h, cancel, OpResume, false, 0)
	if f != nil {
		s.fail(errOut, f)
		return false
	}
	d.suspended = false
	return true
}

// DeviceEnroll implements the native surface. Every stage takes one scan; the
// key of the first accepted scan becomes the template data.
func (s *Sim) DeviceEnroll(h, tmpl, cancel backend.Handle, progress uintptr, errOut *backend.Handle) backend.Handle {
	s.mu.Lock()
	d, f := s.begin(h, cancel, OpEnroll, true, 0)
	to := s.lookup(tmpl, KindPrint, "enroll template")
	if f == nil {
		switch {
		case to == nil:
			f = deviceFailure(backend.DeviceErrorDataInvalid, "Invalid template print")
		case to.print.enrolled:
			f = deviceFailure(backend.DeviceErrorDataInvalid, "The template print was already enrolled")
		}
	}
	if f != nil {
		if to != nil {
			s.unref(tmpl, "enroll template")
		}
		s.fail(errOut, f)
		s.mu.Unlock()
		return backend.Null
	}
	stages := d.cfg.EnrollStages
	s.mu.Unlock()

	var key string
	for completed := 0; completed < stages; {
		sample, f := s.takeSample(d, cancel)
		if f != nil {
			s.mu.Lock()
			s.unref(tmpl, "enroll template")
			s.fail(errOut, f)
			s.mu.Unlock()
			return backend.Null
		}

		s.mu.Lock()
		if code, ok := d.retries[completed+1]; ok {
			delete(d.retries, completed+1)
			eh := s.newError(backend.ErrorInfo{Domain: backend.DomainRetry, Code: code, Message: "Please try again"})
			s.mu.Unlock()
			s.dispatchProgress(progress, h, completed, backend.Null, eh)
			s.ErrorFree(eh)
			continue
		}
		completed++
		if key == "" {
			key = sample
		}
		partial := s.alloc(&object{kind: KindPrint, print: s.scanPrint(d, sample)})
		s.mu.Unlock()

		s.dispatchProgress(progress, h, completed, partial, backend.Null)
		s.Unref(partial)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookup(tmpl, KindPrint, "enroll result") == nil {
		s.fail(errOut, deviceFailure(backend.DeviceErrorGeneral, "Template print vanished during enrollment"))
		return backend.Null
	}
	p := to.print
	p.driver = d.cfg.Driver
	p.deviceID = d.cfg.ID
	p.key = key
	p.enrolled = true
	if d.cfg.KeepImages && p.image == backend.Null {
		p.image = s.alloc(&object{kind: KindImage, image: newImage(d.cfg, key)})
	}
	if d.features&backend.FeatureStorage != 0 {
		p.stored = true
		s.ref(tmpl, "enroll storage")
		d.stored = append(d.stored, tmpl)
	}
	return tmpl
}

func (s *Sim) dispatchProgress(ctx uintptr, dev backend.Handle, completed int, print, err backend.Handle) {
	if ctx != 0 {
		backend.DispatchEnrollProgress(ctx, dev, completed, print, err)
	}
}

func (s *Sim) dispatchMatch(ctx uintptr, calls int, dev, matched, print backend.Handle) {
	if ctx == 0 {
		return
	}
	for i := 0; i < calls; i++ {
		backend.DispatchMatch(ctx, dev, matched, print, backend.Null)
	}
}

// templateKey returns the template data of print h, or a failure. Callers hold
// s.mu.
func (s *Sim) templateKey(h backend.Handle, op string) (string, *failure) {
	o := s.lookup(h, KindPrint, op)
	if o == nil {
		return "", deviceFailure(backend.DeviceErrorDataInvalid, "Invalid print")
	}
	if o.print.key == "" {
		return "", deviceFailure(backend.DeviceErrorDataInvalid, "The print has no template data")
	}
	return o.print.key, nil
}

// DeviceVerify implements the native surface.
func (s *Sim) DeviceVerify(h, ph, cancel backend.Handle, match uintptr, matched *bool, scanOut, errOut *backend.Handle) bool {
	s.mu.Lock()
	d, f := s.begin(h, cancel, OpVerify, true, backend.FeatureVerify)
	var want string
	if f == nil {
		want, f = s.templateKey(ph, "verify")
	}
	if f != nil {
		s.fail(errOut, f)
		s.mu.Unlock()
		return false
	}
	calls := d.matchCalls
	s.mu.Unlock()

	sample, f := s.takeSample(d, cancel)
	if f != nil {
		s.mu.Lock()
		s.fail(errOut, f)
		s.mu.Unlock()
		return false
	}
	s.mu.Lock()
	scan := s.alloc(&object{kind: KindPrint, print: s.scanPrint(d, sample)})
	s.mu.Unlock()

	hit := sample == want
	var mh backend.Handle
	if hit {
		mh = ph
	}
	s.dispatchMatch(match, calls, h, mh, scan)
	if matched != nil {
		*matched = hit
	}
	if scanOut != nil {
		*scanOut = scan
	} else {
		s.Unref(scan)
	}
	return true
}

// DeviceIdentify implements the native surface. The first gallery entry with
// the scanned key matches.
func (s *Sim) DeviceIdentify(h, gallery, cancel backend.Handle, match uintptr, matchOut, scanOut, errOut *backend.Handle) bool {
	s.mu.Lock()
	d, f := s.begin(h, cancel, OpIdentify, true, backend.FeatureIdentify)
	var entries []backend.Handle
	if f == nil {
		if g := s.lookup(gallery, KindGallery, "identify"); g != nil {
			entries = g.gallery
		} else {
			f = deviceFailure(backend.DeviceErrorDataInvalid, "Invalid gallery")
		}
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		if f != nil {
			break
		}
		keys[i], f = s.templateKey(e, "identify gallery")
	}
	if f != nil {
		s.fail(errOut, f)
		s.mu.Unlock()
		return false
	}
	calls := d.matchCalls
	s.mu.Unlock()

	sample, f := s.takeSample(d, cancel)
	if f != nil {
		s.mu.Lock()
		s.fail(errOut, f)
		s.mu.Unlock()
		return false
	}
	s.mu.Lock()
	scan := s.alloc(&object{kind: KindPrint, print: s.scanPrint(d, sample)})
	s.mu.Unlock()

	var hit backend.Handle
	for i, k := range keys {
		if k == sample {
			hit = entries[i]
			break
		}
	}
	s.dispatchMatch(match, calls, h, hit, scan)
	if matchOut != nil && hit != backend.Null {
		*matchOut = s.Ref(hit)
	}
	if scanOut != nil {
		*scanOut = scan
	} else {
		s.Unref(scan)
	}
	return true
}

// DeviceCapture implements the native surface. Without waitForFinger an empty
// queue yields a blank image.
func (s *Sim) DeviceCapture(h backend.Handle, waitForFinger bool, cancel backend.Handle, errOut *backend.Handle) backend.Handle {
	s.mu.Lock()
	d, f := s.begin(h, cancel, OpCapture, true, backend.FeatureCapture)
	if f != nil {
		s.fail(errOut, f)
		s.mu.Unlock()
		return backend.Null
	}
	var key string
	if !waitForFinger && len(d.samples) > 0 {
		key = d.samples[0]
		d.samples = d.samples[1:]
	}
	s.mu.Unlock()

	if waitForFinger {
		key, f = s.takeSample(d, cancel)
		if f != nil {
			s.mu.Lock()
			s.fail(errOut, f)
			s.mu.Unlock()
			return backend.Null
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alloc(&object{kind: KindImage, image: newImage(d.cfg, key)})
}

// DeviceListPrints implements the native surface.
func (s *Sim) DeviceListPrints(h, cancel backend.Handle, errOut *backend.Handle) ([]backend.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, f := s.begin(h, cancel, OpListPrints, true, backend.FeatureStorageList)
	if f != nil {
		s.fail(errOut, f)
		return nil, false
	}
	out := make([]backend.Handle, len(d.stored))
	for i, p := range d.stored {
		s.ref(p, "list prints")
		out[i] = p
	}
	return out, true
}

// DeviceDeletePrint implements the native surface. A stored print matches
// when its template data equals that of p.
func (s *Sim) DeviceDeletePrint(h, p, cancel backend.Handle, errOut *backend.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, f := s.begin(h, cancel, OpDeletePrint, true, backend.FeatureStorageDelete)
	var key string
	if f == nil {
		key, f = s.templateKey(p, "delete print")
	}
	if f != nil {
		s.fail(errOut, f)
		return false
	}
	for i, stored := range d.stored {
		if s.objs[stored].print.key == key {
			d.stored = append(d.stored[:i], d.stored[i+1:]...)
			s.objs[stored].print.stored = false
			s.unref(stored, "delete print")
			return true
		}
	}
	s.fail(errOut, deviceFailure(backend.DeviceErrorDataNotFound, "Print was not found on the device"))
	return false
}

// DeviceClearStorage implements the native surface.
func (s *Sim) DeviceClearStorage(h, cancel backend.Handle, errOut *backend.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, f := s.begin(h, cancel, OpClearStorage, true, backend.FeatureStorageClear)
	if f != nil {
		s.fail(errOut, f)
		return false
	}
	for _, p := range d.stored {
		s.objs[p].print.stored = false
		s.unref(p, "clear storage")
	}
	d.stored = nil
	return true
}
