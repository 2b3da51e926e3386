// Package backend hosts the thin foreign layer that links the Go API to the
// native libfprint-2 library. The real implementation lives behind the
// libfprint build tag so that the rest of the repository compiles and tests
// without the native library; pkg/fprint/simdev provides a simulated
// implementation of the same surface.
//
// Native objects cross this boundary as opaque Handle values. A Handle is never
// exposed by the public API; the fprint package wraps every Handle in an owning
// or borrowing wrapper that performs the release exactly once.
package backend
