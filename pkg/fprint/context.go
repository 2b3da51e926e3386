package fprint

import (
	"runtime"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
	"github.com/fprint-go/libfprint-go/pkg/fprint/logging"
)

// Context is the discovery root for fingerprint devices.
type Context struct {
	ref ref
	log logging.Logger
}

// NewContext creates a Context on the compiled-in backend.
func NewContext() (*Context, error) {
	return NewContextWithConfig(Config{})
}

// NewContextWithConfig creates a Context with the given collaborators.
func NewContextWithConfig(cfg Config) (*Context, error) {
	n, log, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	h := n.ContextNew()
	if h == backend.Null {
		return nil, &Error{Op: "context-new", Message: unknownFailure, Kind: KindUnknown}
	}
	c := &Context{ref: ref{native: n, h: h}, log: log.With("backend", n.Name())}
	runtime.SetFinalizer(c, (*Context).Free)
	return c, nil
}

// Enumerate rescans for devices. Devices are also enumerated on first use.
func (c *Context) Enumerate() error {
	if c == nil || !c.ref.live() {
		return ErrFreed
	}
	c.ref.native.ContextEnumerate(c.ref.borrow())
	runtime.KeepAlive(c)
	return nil
}

// Devices returns the devices known to the context. Each Device holds its own
// reference and stays valid after the Context is freed; Free each of them.
func (c *Context) Devices() ([]*Device, error) {
	if c == nil || !c.ref.live() {
		return nil, ErrFreed
	}
	n := c.ref.native
	raw := n.ContextDevices(c.ref.borrow())
	out := make([]*Device, 0, len(raw))
	for _, h := range raw {
		out = append(out, newDevice(n, c.log, n.Ref(h)))
	}
	runtime.KeepAlive(c)
	return out, nil
}

// DeserializePrint loads a print previously produced by Print.Serialize.
func (c *Context) DeserializePrint(data []byte) (*Print, error) {
	if c == nil || !c.ref.live() {
		return nil, ErrFreed
	}
	p, err := deserializePrint(c.ref.native, data)
	runtime.KeepAlive(c)
	return p, err
}

// Free releases the context. Devices obtained from it are unaffected.
func (c *Context) Free() {
	if c == nil {
		return
	}
	c.ref.release()
	runtime.SetFinalizer(c, nil)
}

// DeserializePrint loads a serialized print on the compiled-in backend.
func DeserializePrint(data []byte) (*Print, error) {
	n, err := backend.Default()
	if err != nil {
		return nil, remapError(err)
	}
	return deserializePrint(n, data)
}
