package fprint

import (
	"fmt"
	"unicode/utf8"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

// ref holds one native reference, or borrows one for the lifetime of a
// callback. release drops an owned reference exactly once; on a borrowed ref
// it only forgets the handle.
type ref struct {
	native   backend.Native
	h        backend.Handle
	borrowed bool
}

func (r *ref) live() bool {
	return r.h != backend.Null
}

// borrow returns the raw handle without touching the reference count.
func (r *ref) borrow() backend.Handle {
	return r.h
}

// take hands the reference over to the caller and empties r. A borrowed ref
// yields a fresh reference of its own so the caller always owns the result.
func (r *ref) take() backend.Handle {
	h := r.h
	r.h = backend.Null
	if r.borrowed && h != backend.Null {
		return r.native.Ref(h)
	}
	return h
}

func (r *ref) release() {
	if r.h == backend.Null {
		return
	}
	if !r.borrowed {
		r.native.Unref(r.h)
	}
	r.h = backend.Null
}

// nativeString rejects text that is not valid UTF-8. libfprint documents all
// of its strings as UTF-8, so anything else is a broken library.
func nativeString(what, s string) string {
	if !utf8.ValidString(s) {
		panic(fmt.Sprintf("fprint: native %s is not valid UTF-8: %q", what, s))
	}
	return s
}
