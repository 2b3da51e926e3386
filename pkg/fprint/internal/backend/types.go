package backend

import "errors"

// ErrNotBuilt reports that the native bindings were not linked into the
// current binary.
var ErrNotBuilt = errors.New("fprint/internal/backend: native bindings not built")

// Handle is an opaque reference to a native object (an FpContext, FpDevice,
// FpPrint, FpImage, GError, GCancellable or GPtrArray). Null is the zero
// value and stands for a NULL pointer.
type Handle uintptr

// Null is the NULL handle.
const Null Handle = 0

// Buffer is a natively allocated byte buffer returned by PrintSerialize. It
// must be released with Native.BufferFree exactly once.
type Buffer struct {
	Ptr Handle
	Len int
}

// Date is a calendar date as stored in a print's enroll date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ErrorInfo holds the fields read out of a native error.
type ErrorInfo struct {
	Domain  string
	Code    int
	Message string
}

// Error domains produced by libfprint and GLib.
const (
	DomainDevice = "fp-device-error-quark"
	DomainRetry  = "fp-device-retry-quark"
	DomainIO     = "g-io-error-quark"
)

// IOErrorCancelled is G_IO_ERROR_CANCELLED.
const IOErrorCancelled = 19

// FpDeviceError codes.
const (
	DeviceErrorGeneral       = 0
	DeviceErrorNotSupported  = 1
	DeviceErrorNotOpen       = 2
	DeviceErrorAlreadyOpen   = 3
	DeviceErrorBusy          = 4
	DeviceErrorProto         = 5
	DeviceErrorDataInvalid   = 6
	DeviceErrorDataNotFound  = 7
	DeviceErrorDataFull      = 8
	DeviceErrorDataDuplicate = 9
	DeviceErrorRemoved       = 10
	DeviceErrorTooHot        = 11
)

// FpDeviceRetry codes.
const (
	RetryGeneral      = 0
	RetryTooShort     = 1
	RetryCenterFinger = 2
	RetryRemoveFinger = 3
)

// FpScanType values.
const (
	ScanSwipe = 0
	ScanPress = 1
)

// FpFingerStatusFlags bits.
const (
	FingerStatusNone    uint32 = 0
	FingerStatusNeeded  uint32 = 1 << 0
	FingerStatusPresent uint32 = 1 << 1
)

// FpDeviceFeature bits.
const (
	FeatureNone            uint32 = 0
	FeatureCapture         uint32 = 1 << 0
	FeatureIdentify        uint32 = 1 << 1
	FeatureVerify          uint32 = 1 << 2
	FeatureStorage         uint32 = 1 << 3
	FeatureStorageList     uint32 = 1 << 4
	FeatureStorageDelete   uint32 = 1 << 5
	FeatureStorageClear    uint32 = 1 << 6
	FeatureDuplicatesCheck uint32 = 1 << 7
	FeatureAlwaysOn        uint32 = 1 << 8
	FeatureUpdatePrint     uint32 = 1 << 9
)
