//go:build !libfprint || !cgo || !linux

package backend

// Default returns ErrNotBuilt: the libfprint-2 bindings are only compiled with
// the libfprint build tag on linux with cgo enabled.
func Default() (Native, error) {
	return nil, ErrNotBuilt
}
