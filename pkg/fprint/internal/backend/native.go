package backend

// Native is the foreign function surface consumed by the fprint package. It
// mirrors the synchronous libfprint-2 API: every fallible call returns a
// failure sentinel (false or Null) and stores a native error in *errOut, which
// the caller owns and must release with ErrorFree exactly once.
//
// Ownership conventions:
//   - Handles returned by *New, DeviceEnroll, DeviceCapture, DeviceListPrints,
//     PrintDeserialize and the out-parameters of DeviceVerify/DeviceIdentify are
//     owned by the caller (one reference, released with Unref).
//   - Handles returned by ContextDevices and PrintImage are borrowed.
//   - DeviceEnroll consumes the caller's reference to template.
//   - A gallery borrows its entries; GalleryFree releases only the array.
//   - progress and match are callback contexts created with
//     NewProgressContext/NewMatchContext, or 0 for no callback. Implementations
//     deliver callbacks through DispatchEnrollProgress and DispatchMatch on the
//     calling goroutine, with every handle argument borrowed.
//
// Implementations are not required to be safe for concurrent operations on the
// same device handle. CancellableCancel may be called from any goroutine.
type Native interface {
	// Name identifies the implementation ("libfprint-2", "simdev").
	Name() string

	Ref(h Handle) Handle
	Unref(h Handle)

	ErrorInfo(e Handle) ErrorInfo
	ErrorFree(e Handle)

	CancellableNew() Handle
	CancellableCancel(c Handle)

	ContextNew() Handle
	ContextEnumerate(ctx Handle)
	ContextDevices(ctx Handle) []Handle

	DeviceDriver(d Handle) string
	DeviceID(d Handle) string
	DeviceName(d Handle) string
	DeviceScanType(d Handle) int
	DeviceNrEnrollStages(d Handle) int
	DeviceFingerStatus(d Handle) uint32
	DeviceFeatures(d Handle) uint32
	DeviceHasFeature(d Handle, feature uint32) bool
	DeviceIsOpen(d Handle) bool

	DeviceOpen(d, cancel Handle, errOut *Handle) bool
	DeviceClose(d, cancel Handle, errOut *Handle) bool
	DeviceEnroll(d, template, cancel Handle, progress uintptr, errOut *Handle) Handle
	DeviceVerify(d, print, cancel Handle, match uintptr, matched *bool, scanOut, errOut *Handle) bool
	DeviceIdentify(d, gallery, cancel Handle, match uintptr, matchOut, scanOut, errOut *Handle) bool
	DeviceCapture(d Handle, waitForFinger bool, cancel Handle, errOut *Handle) Handle
	DeviceListPrints(d, cancel Handle, errOut *Handle) ([]Handle, bool)
	DeviceDeletePrint(d, print, cancel Handle, errOut *Handle) bool
	DeviceClearStorage(d, cancel Handle, errOut *Handle) bool
	DeviceSuspend(d, cancel Handle, errOut *Handle) bool
	DeviceResume(d, cancel Handle, errOut *Handle) bool

	GalleryNew(prints []Handle) Handle
	GalleryFree(g Handle)

	PrintNew(d Handle) Handle
	PrintDriver(p Handle) string
	PrintDeviceID(p Handle) string
	PrintDeviceStored(p Handle) bool
	PrintImage(p Handle) Handle
	PrintFinger(p Handle) int
	PrintUsername(p Handle) (string, bool)
	PrintDescription(p Handle) (string, bool)
	PrintEnrollDate(p Handle) (Date, bool)
	PrintSetFinger(p Handle, finger int)
	PrintSetUsername(p Handle, username string)
	PrintSetDescription(p Handle, description string)
	PrintSetEnrollDate(p Handle, date Date)
	PrintSerialize(p Handle, errOut *Handle) (Buffer, bool)
	PrintDeserialize(data []byte, errOut *Handle) Handle
	PrintCompatible(p, d Handle) bool
	PrintEqual(a, b Handle) bool

	BufferBytes(b Buffer) []byte
	BufferFree(b Buffer)

	ImageWidth(i Handle) int
	ImageHeight(i Handle) int
	ImagePPMM(i Handle) float64
	ImageData(i Handle) []byte
	ImageBinarized(i Handle) []byte
}
