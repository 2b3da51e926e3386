package fprint

import (
	"errors"
	"fmt"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

var (
	// ErrNotBuilt is returned when no native backend is available: the module
	// was built without the libfprint tag and no Config.Backend was supplied.
	ErrNotBuilt = errors.New("fprint: libfprint bindings not built (use -tags libfprint)")

	// ErrFreed is returned by operations on a Context, Device or Image after
	// Free, and on borrowed values after the callback that produced them returned.
	ErrFreed = errors.New("fprint: object already freed")

	// ErrPrintConsumed is returned by operations on a Print whose native
	// reference was transferred into Enroll or released with Free.
	ErrPrintConsumed = errors.New("fprint: print consumed")

	// ErrNilParams is returned when a required params struct is nil.
	ErrNilParams = errors.New("fprint: nil params")

	// ErrCancelled matches every *Error of KindCancelled.
	ErrCancelled = errors.New("fprint: operation cancelled")

	// ErrUnknownFailure matches every *Error of KindUnknown.
	ErrUnknownFailure = errors.New("fprint: unknown failure")

	// ErrDecode matches every *Error of KindDecode.
	ErrDecode = errors.New("fprint: print decode failed")
)

// Kind classifies an Error.
type Kind int

const (
	// KindNative is a failure reported by libfprint with a domain and code.
	KindNative Kind = iota
	// KindUnknown is a failure sentinel returned without an error object.
	KindUnknown
	// KindDecode is a failure to deserialize a print.
	KindDecode
	// KindCancelled is a native operation aborted through its context.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindUnknown:
		return "unknown"
	case KindDecode:
		return "decode"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const unknownFailure = "unknown failure"

// Error is a native failure copied out of libfprint. The native error object
// has already been released when an *Error is returned.
type Error struct {
	// Op names the operation that failed, for example "enroll".
	Op      string
	Domain  string
	Code    int
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	if e.Domain == "" {
		return fmt.Sprintf("fprint: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("fprint: %s: %s (%s %d)", e.Op, e.Message, e.Domain, e.Code)
}

// Is matches the kind sentinels ErrCancelled, ErrUnknownFailure and ErrDecode.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCancelled:
		return e.Kind == KindCancelled
	case ErrUnknownFailure:
		return e.Kind == KindUnknown
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// IsDeviceError reports whether e is the libfprint device error code.
func (e *Error) IsDeviceError(code DeviceErrorCode) bool {
	return e != nil && e.Domain == backend.DomainDevice && e.Code == int(code)
}

// IsRetry reports whether e is a retry condition: the scan should simply be
// repeated.
func (e *Error) IsRetry() bool {
	return e != nil && e.Domain == backend.DomainRetry
}

// Retry returns the retry code when e is a retry condition.
func (e *Error) Retry() (RetryCode, bool) {
	if !e.IsRetry() {
		return 0, false
	}
	return RetryCode(e.Code), true
}

func newError(op string, info backend.ErrorInfo) *Error {
	e := &Error{
		Op:      op,
		Domain:  info.Domain,
		Code:    info.Code,
		Message: nativeString("error message", info.Message),
		Kind:    KindNative,
	}
	if info.Domain == backend.DomainIO && info.Code == backend.IOErrorCancelled {
		e.Kind = KindCancelled
	}
	return e
}

// takeError converts the error stored in *errH after a failure sentinel and
// releases it. A Null handle means the native layer broke its contract; the
// result is a KindUnknown error. *errH is Null on return.
func takeError(n backend.Native, op string, errH *backend.Handle) *Error {
	if *errH == backend.Null {
		return &Error{Op: op, Message: unknownFailure, Kind: KindUnknown}
	}
	info := n.ErrorInfo(*errH)
	n.ErrorFree(*errH)
	*errH = backend.Null
	return newError(op, info)
}

// copyNative copies a borrowed native error without releasing it. It returns
// nil for Null.
func copyNative(n backend.Native, op string, errH backend.Handle) error {
	if errH == backend.Null {
		return nil
	}
	return newError(op, n.ErrorInfo(errH))
}

// discardError frees an error left behind by a call that succeeded anyway.
func discardError(n backend.Native, errH *backend.Handle) {
	if *errH != backend.Null {
		n.ErrorFree(*errH)
		*errH = backend.Null
	}
}

// remapError converts backend errors to public API errors.
func remapError(err error) error {
	if errors.Is(err, backend.ErrNotBuilt) {
		return ErrNotBuilt
	}
	return err
}
