package fprint

import (
	"fmt"
	"strings"

	"github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"
)

// Finger identifies which finger a print belongs to.
type Finger int

const (
	FingerUnknown Finger = iota
	FingerLeftThumb
	FingerLeftIndex
	FingerLeftMiddle
	FingerLeftRing
	FingerLeftLittle
	FingerRightThumb
	FingerRightIndex
	FingerRightMiddle
	FingerRightRing
	FingerRightLittle
)

var fingerNames = [...]string{
	FingerUnknown:     "unknown",
	FingerLeftThumb:   "left-thumb",
	FingerLeftIndex:   "left-index",
	FingerLeftMiddle:  "left-middle",
	FingerLeftRing:    "left-ring",
	FingerLeftLittle:  "left-little",
	FingerRightThumb:  "right-thumb",
	FingerRightIndex:  "right-index",
	FingerRightMiddle: "right-middle",
	FingerRightRing:   "right-ring",
	FingerRightLittle: "right-little",
}

func (f Finger) String() string {
	if f >= 0 && int(f) < len(fingerNames) {
		return fingerNames[f]
	}
	return fmt.Sprintf("Finger(%d)", int(f))
}

// ScanType describes how a finger is presented to the sensor.
type ScanType int

const (
	ScanSwipe ScanType = backend.ScanSwipe
	ScanPress ScanType = backend.ScanPress
)

func (s ScanType) String() string {
	switch s {
	case ScanSwipe:
		return "swipe"
	case ScanPress:
		return "press"
	default:
		return fmt.Sprintf("ScanType(%d)", int(s))
	}
}

// FingerStatus is a set of finger presence flags.
type FingerStatus uint32

const (
	FingerStatusNone    FingerStatus = FingerStatus(backend.FingerStatusNone)
	FingerStatusNeeded  FingerStatus = FingerStatus(backend.FingerStatusNeeded)
	FingerStatusPresent FingerStatus = FingerStatus(backend.FingerStatusPresent)
)

// Needed reports whether the device is waiting for a finger.
func (s FingerStatus) Needed() bool { return s&FingerStatusNeeded != 0 }

// Present reports whether a finger is on the sensor.
func (s FingerStatus) Present() bool { return s&FingerStatusPresent != 0 }

func (s FingerStatus) String() string {
	var parts []string
	if s.Needed() {
		parts = append(parts, "needed")
	}
	if s.Present() {
		parts = append(parts, "present")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Feature is a single capability bit reported by a device.
type Feature uint32

const (
	FeatureCapture         Feature = Feature(backend.FeatureCapture)
	FeatureIdentify        Feature = Feature(backend.FeatureIdentify)
	FeatureVerify          Feature = Feature(backend.FeatureVerify)
	FeatureStorage         Feature = Feature(backend.FeatureStorage)
	FeatureStorageList     Feature = Feature(backend.FeatureStorageList)
	FeatureStorageDelete   Feature = Feature(backend.FeatureStorageDelete)
	FeatureStorageClear    Feature = Feature(backend.FeatureStorageClear)
	FeatureDuplicatesCheck Feature = Feature(backend.FeatureDuplicatesCheck)
	FeatureAlwaysOn        Feature = Feature(backend.FeatureAlwaysOn)
	FeatureUpdatePrint     Feature = Feature(backend.FeatureUpdatePrint)
)

// knownFeatures lists every bit decodeFeatures recognizes, lowest first.
var knownFeatures = []Feature{
	FeatureCapture,
	FeatureIdentify,
	FeatureVerify,
	FeatureStorage,
	FeatureStorageList,
	FeatureStorageDelete,
	FeatureStorageClear,
	FeatureDuplicatesCheck,
	FeatureAlwaysOn,
	FeatureUpdatePrint,
}

func (f Feature) String() string {
	switch f {
	case FeatureCapture:
		return "capture"
	case FeatureIdentify:
		return "identify"
	case FeatureVerify:
		return "verify"
	case FeatureStorage:
		return "storage"
	case FeatureStorageList:
		return "storage-list"
	case FeatureStorageDelete:
		return "storage-delete"
	case FeatureStorageClear:
		return "storage-clear"
	case FeatureDuplicatesCheck:
		return "duplicates-check"
	case FeatureAlwaysOn:
		return "always-on"
	case FeatureUpdatePrint:
		return "update-print"
	default:
		return fmt.Sprintf("Feature(%#x)", uint32(f))
	}
}

// decodeFeatures tests each known bit of mask. Bits this package does not
// know about are skipped.
func decodeFeatures(mask uint32) []Feature {
	var out []Feature
	for _, f := range knownFeatures {
		if mask&uint32(f) != 0 {
			out = append(out, f)
		}
	}
	return out
}

// DeviceErrorCode is a code in the libfprint device error domain.
type DeviceErrorCode int

const (
	DeviceErrorGeneral       DeviceErrorCode = backend.DeviceErrorGeneral
	DeviceErrorNotSupported  DeviceErrorCode = backend.DeviceErrorNotSupported
	DeviceErrorNotOpen       DeviceErrorCode = backend.DeviceErrorNotOpen
	DeviceErrorAlreadyOpen   DeviceErrorCode = backend.DeviceErrorAlreadyOpen
	DeviceErrorBusy          DeviceErrorCode = backend.DeviceErrorBusy
	DeviceErrorProto         DeviceErrorCode = backend.DeviceErrorProto
	DeviceErrorDataInvalid   DeviceErrorCode = backend.DeviceErrorDataInvalid
	DeviceErrorDataNotFound  DeviceErrorCode = backend.DeviceErrorDataNotFound
	DeviceErrorDataFull      DeviceErrorCode = backend.DeviceErrorDataFull
	DeviceErrorDataDuplicate DeviceErrorCode = backend.DeviceErrorDataDuplicate
	DeviceErrorRemoved       DeviceErrorCode = backend.DeviceErrorRemoved
	DeviceErrorTooHot        DeviceErrorCode = backend.DeviceErrorTooHot
)

// RetryCode is a code in the libfprint retry domain.
type RetryCode int

const (
	RetryGeneral      RetryCode = backend.RetryGeneral
	RetryTooShort     RetryCode = backend.RetryTooShort
	RetryCenterFinger RetryCode = backend.RetryCenterFinger
	RetryRemoveFinger RetryCode = backend.RetryRemoveFinger
)

func (r RetryCode) String() string {
	switch r {
	case RetryGeneral:
		return "retry"
	case RetryTooShort:
		return "swipe too short"
	case RetryCenterFinger:
		return "center finger"
	case RetryRemoveFinger:
		return "remove finger"
	default:
		return fmt.Sprintf("RetryCode(%d)", int(r))
	}
}
