package fprint

import (
	"runtime"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

// Image is a captured fingerprint image. Pixel data is exposed as raw bytes.
type Image struct {
	ref ref
}

func newImage(n backend.Native, h backend.Handle) *Image {
	i := &Image{ref: ref{native: n, h: h}}
	runtime.SetFinalizer(i, (*Image).Free)
	return i
}

func (i *Image) live() bool {
	return i != nil && i.ref.live()
}

// Valid reports whether the Image still holds a native reference.
func (i *Image) Valid() bool {
	return i.live()
}

func (i *Image) Width() int {
	if !i.live() {
		return 0
	}
	defer runtime.KeepAlive(i)
	return i.ref.native.ImageWidth(i.ref.borrow())
}

func (i *Image) Height() int {
	if !i.live() {
		return 0
	}
	defer runtime.KeepAlive(i)
	return i.ref.native.ImageHeight(i.ref.borrow())
}

// PPMM is the resolution in pixels per millimetre.
func (i *Image) PPMM() float64 {
	if !i.live() {
		return 0
	}
	defer runtime.KeepAlive(i)
	return i.ref.native.ImagePPMM(i.ref.borrow())
}

// Data returns a copy of the greyscale pixel buffer.
func (i *Image) Data() []byte {
	if !i.live() {
		return nil
	}
	defer runtime.KeepAlive(i)
	return i.ref.native.ImageData(i.ref.borrow())
}

// Binarized returns a copy of the binarized buffer, or nil if the image was
// never binarized.
func (i *Image) Binarized() []byte {
	if !i.live() {
		return nil
	}
	defer runtime.KeepAlive(i)
	return i.ref.native.ImageBinarized(i.ref.borrow())
}

// Free releases the image. It is safe to call more than once.
func (i *Image) Free() {
	if i == nil {
		return
	}
	i.ref.release()
	runtime.SetFinalizer(i, nil)
}
