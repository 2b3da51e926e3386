package simdev

import (
	"hash/fnv"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

type image struct {
	width, height int
	ppmm          float64
	data          []byte
	binarized     []byte
}

// newImage renders a deterministic greyscale pattern for key. An empty key is
// a blank sensor: all white and never binarized.
func newImage(cfg DeviceConfig, key string) *image {
	img := &image{width: cfg.ImageWidth, height: cfg.ImageHeight, ppmm: cfg.PPMM}
	img.data = make([]byte, img.width*img.height)
	if key == "" {
		for i := range img.data {
			img.data[i] = 0xff
		}
		return img
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	seed := h.Sum32()
	img.binarized = make([]byte, len(img.data))
	for i := range img.data {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		img.data[i] = byte(seed)
		if img.data[i] >= 0x80 {
			img.binarized[i] = 0xff
		}
	}
	return img
}

func (s *Sim) imageField(h backend.Handle, op string, f func(i *image)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o := s.lookup(h, KindImage, op); o != nil {
		f(o.image)
	}
}

// ImageWidth implements the native surface.
func (s *Sim) ImageWidth(h backend.Handle) (v int) {
	s.imageField(h, "image width", func(i *image) { v = i.width })
	return v
}

// ImageHeight implements the native surface.
func (s *Sim) ImageHeight(h backend.Handle) (v int) {
	s.imageField(h, "image height", func(i *image) { v = i.height })
	return v
}

// ImagePPMM implements the native surface.
func (s *Sim) ImagePPMM(h backend.Handle) (v float64) {
	s.imageField(h, "image ppmm", func(i *image) { v = i.ppmm })
	return v
}

// ImageData implements the native surface.
func (s *Sim) ImageData(h backend.Handle) (v []byte) {
	s.imageField(h, "image data", func(i *image) { v = append([]byte(nil), i.data...) })
	return v
}

// ImageBinarized implements the native surface.
func (s *Sim) ImageBinarized(h backend.Handle) (v []byte) {
	s.imageField(h, "image binarized", func(i *image) {
		if i.binarized != nil {
			v = append([]byte(nil), i.binarized...)
		}
	})
	return v
}
