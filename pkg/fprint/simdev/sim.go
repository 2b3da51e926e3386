package simdev

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
	"github.com/fprint-go/libfprint-go/pkg/fprint/logging"
)

// Kind names the type of a simulated native object.
type Kind string

const (
	KindContext     Kind = "context"
	KindDevice      Kind = "device"
	KindPrint       Kind = "print"
	KindImage       Kind = "image"
	KindError       Kind = "error"
	KindCancellable Kind = "cancellable"
	KindGallery     Kind = "gallery"
	KindBuffer      Kind = "buffer"
)

// refcounted reports whether objects of k are released with Unref rather than
// a dedicated free function.
func (k Kind) refcounted() bool {
	switch k {
	case KindError, KindGallery, KindBuffer:
		return false
	}
	return true
}

const defaultSampleTimeout = 10 * time.Second

// Options configures a Sim.
type Options struct {
	// Logger receives a warning for every recorded violation. Nil discards.
	Logger logging.Logger
	// SampleTimeout bounds how long an operation waits for a finger with
	// WaitForFinger set. Zero means ten seconds.
	SampleTimeout time.Duration
}

// Counters tallies allocations of the objects that are not reference counted.
type Counters struct {
	ErrorsCreated    int
	ErrorsFreed      int
	BuffersCreated   int
	BuffersFreed     int
	GalleriesCreated int
	GalleriesFreed   int
	Cancellables     int
	Cancelled        int
}

var _ backend.Native = (*Sim)(nil)

// Sim is a simulated native layer. It is safe for concurrent use.
type Sim struct {
	log     logging.Logger
	timeout time.Duration

	mu         sync.Mutex
	next       backend.Handle
	objs       map[backend.Handle]*object
	devices    []backend.Handle
	violations []string
	counters   Counters
}

type object struct {
	kind Kind
	refs int
	dead bool

	dev     *device
	print   *print
	image   *image
	err     backend.ErrorInfo
	gallery []backend.Handle
	buf     []byte

	// context
	held []backend.Handle

	// cancellable
	cancelled bool
	cancelCh  chan struct{}
}

// New returns an empty Sim with no devices.
func New() *Sim {
	return NewWithOptions(Options{})
}

// NewWithOptions returns an empty Sim configured by opts.
func NewWithOptions(opts Options) *Sim {
	s := &Sim{
		log:     opts.Logger,
		timeout: opts.SampleTimeout,
		next:    0x1000,
		objs:    make(map[backend.Handle]*object),
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	if s.timeout <= 0 {
		s.timeout = defaultSampleTimeout
	}
	return s
}

// Name implements the native surface.
func (s *Sim) Name() string { return "simdev" }

// alloc registers o with one reference. Handles are never reused.
func (s *Sim) alloc(o *object) backend.Handle {
	s.next += 0x10
	h := s.next
	o.refs = 1
	s.objs[h] = o
	return h
}

func (s *Sim) violate(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.violations = append(s.violations, msg)
	s.log.Warn(context.Background(), "simdev violation", "detail", msg)
}

// lookup returns the live object h of kind k, recording a violation when h is
// unknown, released or of another kind. Callers hold s.mu.
func (s *Sim) lookup(h backend.Handle, k Kind, op string) *object {
	o, ok := s.objs[h]
	switch {
	case h == backend.Null:
		s.violate("%s: null %s handle", op, k)
		return nil
	case !ok:
		s.violate("%s: unknown handle %#x", op, uintptr(h))
		return nil
	case o.dead:
		s.violate("%s: use after free of %s %#x", op, o.kind, uintptr(h))
		return nil
	case o.kind != k:
		s.violate("%s: handle %#x is a %s, want %s", op, uintptr(h), o.kind, k)
		return nil
	}
	return o
}

// Ref implements the native surface.
func (s *Sim) Ref(h backend.Handle) backend.Handle {
	if h == backend.Null {
		return backend.Null
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref(h, "ref")
	return h
}

func (s *Sim) ref(h backend.Handle, op string) {
	o, ok := s.objs[h]
	switch {
	case !ok:
		s.violate("%s: unknown handle %#x", op, uintptr(h))
	case o.dead:
		s.violate("%s: use after free of %s %#x", op, o.kind, uintptr(h))
	case !o.kind.refcounted():
		s.violate("%s: %s %#x is not reference counted", op, o.kind, uintptr(h))
	default:
		o.refs++
	}
}

// Unref implements the native surface.
func (s *Sim) Unref(h backend.Handle) {
	if h == backend.Null {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unref(h, "unref")
}

func (s *Sim) unref(h backend.Handle, op string) {
	o, ok := s.objs[h]
	switch {
	case !ok:
		s.violate("%s: unknown handle %#x", op, uintptr(h))
		return
	case o.dead:
		s.violate("%s: double free of %s %#x", op, o.kind, uintptr(h))
		return
	case !o.kind.refcounted():
		s.violate("%s: %s %#x is not reference counted", op, o.kind, uintptr(h))
		return
	}
	o.refs--
	if o.refs > 0 {
		return
	}
	o.dead = true
	switch o.kind {
	case KindContext:
		for _, d := range o.held {
			s.unref(d, "context dispose")
		}
		o.held = nil
	case KindPrint:
		if o.print.image != backend.Null {
			s.unref(o.print.image, "print dispose")
		}
	}
}

// free releases an object that is not reference counted.
func (s *Sim) free(h backend.Handle, k Kind, op string) bool {
	o, ok := s.objs[h]
	switch {
	case !ok:
		s.violate("%s: unknown handle %#x", op, uintptr(h))
		return false
	case o.dead:
		s.violate("%s: double free of %s %#x", op, o.kind, uintptr(h))
		return false
	case o.kind != k:
		s.violate("%s: handle %#x is a %s, want %s", op, uintptr(h), o.kind, k)
		return false
	}
	o.dead = true
	o.refs = 0
	return true
}

// ErrorInfo implements the native surface.
func (s *Sim) ErrorInfo(e backend.Handle) backend.ErrorInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.lookup(e, KindError, "error info")
	if o == nil {
		return backend.ErrorInfo{}
	}
	return o.err
}

// ErrorFree implements the native surface.
func (s *Sim) ErrorFree(e backend.Handle) {
	if e == backend.Null {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.free(e, KindError, "error free") {
		s.counters.ErrorsFreed++
	}
}

func (s *Sim) newError(info backend.ErrorInfo) backend.Handle {
	s.counters.ErrorsCreated++
	return s.alloc(&object{kind: KindError, err: info})
}

// CancellableNew implements the native surface.
func (s *Sim) CancellableNew() backend.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Cancellables++
	return s.alloc(&object{kind: KindCancellable, cancelCh: make(chan struct{})})
}

// CancellableCancel implements the native surface.
func (s *Sim) CancellableCancel(c backend.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.lookup(c, KindCancellable, "cancel")
	if o == nil || o.cancelled {
		return
	}
	o.cancelled = true
	s.counters.Cancelled++
	close(o.cancelCh)
}

// cancelState returns the channel closed on cancellation of c, nil for no
// cancellable. Callers hold s.mu.
func (s *Sim) cancelState(c backend.Handle, op string) (<-chan struct{}, bool) {
	if c == backend.Null {
		return nil, false
	}
	o := s.lookup(c, KindCancellable, op)
	if o == nil {
		return nil, false
	}
	return o.cancelCh, o.cancelled
}

// GalleryNew implements the native surface.
func (s *Sim) GalleryNew(prints []backend.Handle) backend.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.GalleriesCreated++
	return s.alloc(&object{kind: KindGallery, gallery: append([]backend.Handle(nil), prints...)})
}

// GalleryFree implements the native surface.
func (s *Sim) GalleryFree(g backend.Handle) {
	if g == backend.Null {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.free(g, KindGallery, "gallery free") {
		s.counters.GalleriesFreed++
	}
}

func (s *Sim) newBuffer(data []byte) backend.Buffer {
	s.counters.BuffersCreated++
	h := s.alloc(&object{kind: KindBuffer, buf: data})
	return backend.Buffer{Ptr: h, Len: len(data)}
}

// BufferBytes implements the native surface.
func (s *Sim) BufferBytes(b backend.Buffer) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.lookup(b.Ptr, KindBuffer, "buffer bytes")
	if o == nil {
		return nil
	}
	return append([]byte(nil), o.buf[:b.Len]...)
}

// BufferFree implements the native surface.
func (s *Sim) BufferFree(b backend.Buffer) {
	if b.Ptr == backend.Null {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.free(b.Ptr, KindBuffer, "buffer free") {
		s.counters.BuffersFreed++
	}
}

// ContextNew implements the native surface.
func (s *Sim) ContextNew() backend.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alloc(&object{kind: KindContext})
}

// ContextEnumerate implements the native surface. The context takes a
// reference on every plugged device it did not know yet.
func (s *Sim) ContextEnumerate(ctx backend.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enumerate(ctx, "enumerate")
}

func (s *Sim) enumerate(ctx backend.Handle, op string) *object {
	o := s.lookup(ctx, KindContext, op)
	if o == nil {
		return nil
	}
	known := make(map[backend.Handle]bool, len(o.held))
	for _, d := range o.held {
		known[d] = true
	}
	for _, d := range s.devices {
		if !known[d] {
			s.ref(d, op)
			o.held = append(o.held, d)
		}
	}
	return o
}

// ContextDevices implements the native surface. The returned handles are
// borrowed from the context.
func (s *Sim) ContextDevices(ctx backend.Handle) []backend.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.enumerate(ctx, "devices")
	if o == nil {
		return nil
	}
	return append([]backend.Handle(nil), o.held...)
}

// Violations returns every recorded contract violation in order.
func (s *Sim) Violations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.violations...)
}

// Counters returns a snapshot of the allocation counters.
func (s *Sim) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// Live returns the number of live objects per kind. Every plugged device
// counts once for the reference the Sim holds.
func (s *Sim) Live() map[Kind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Kind]int)
	for _, o := range s.objs {
		if !o.dead {
			out[o.kind]++
		}
	}
	return out
}

// DeviceRefs returns the reference count of the n-th plugged device.
func (s *Sim) DeviceRefs(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n >= len(s.devices) {
		return 0
	}
	return s.objs[s.devices[n]].refs
}

// Leaks describes every object still alive beyond the references the Sim
// holds itself, sorted.
func (s *Sim) Leaks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Plugged devices and their stored prints are held by the Sim itself.
	held := make(map[backend.Handle]int)
	for _, d := range s.devices {
		held[d]++
		for _, p := range s.objs[d].dev.stored {
			held[p]++
		}
	}
	var out []string
	for h, o := range s.objs {
		if o.dead || o.refs <= held[h] {
			continue
		}
		out = append(out, fmt.Sprintf("%s %#x alive with %d references", o.kind, uintptr(h), o.refs-held[h]))
	}
	sort.Strings(out)
	return out
}

// Check returns an error listing every violation and leak, or nil.
func (s *Sim) Check() error {
	var errs []error
	for _, v := range s.Violations() {
		errs = append(errs, errors.New(v))
	}
	if leaks := s.Leaks(); len(leaks) > 0 {
		errs = append(errs, fmt.Errorf("leaked: %s", strings.Join(leaks, "; ")))
	}
	return errors.Join(errs...)
}
