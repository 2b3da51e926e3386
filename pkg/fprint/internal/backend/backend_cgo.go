//go:build libfprint && cgo && linux

package backend

/*
#cgo pkg-config: libfprint-2
#include <fprint.h>
#include <stdint.h>
#include <stdlib.h>

extern void fprintGoEnrollProgress(uintptr_t, int, uintptr_t, uintptr_t, uintptr_t);
extern void fprintGoMatch(uintptr_t, uintptr_t, uintptr_t, uintptr_t, uintptr_t);

static void fprint_enroll_progress_cb(FpDevice *dev, gint stages, FpPrint *print, gpointer data, GError *error) {
	fprintGoEnrollProgress((uintptr_t)dev, stages, (uintptr_t)print, (uintptr_t)data, (uintptr_t)error);
}

static void fprint_match_cb(FpDevice *dev, FpPrint *match, FpPrint *print, gpointer data, GError *error) {
	fprintGoMatch((uintptr_t)dev, (uintptr_t)match, (uintptr_t)print, (uintptr_t)data, (uintptr_t)error);
}

// The callback context travels as gpointer user data. A zero context means
// no callback is installed at all.
static FpPrint *fprint_enroll(FpDevice *dev, FpPrint *tmpl, GCancellable *c, uintptr_t ctx, GError **err) {
	return fp_device_enroll_sync(dev, tmpl, c,
		ctx ? fprint_enroll_progress_cb : NULL, (gpointer)ctx, err);
}

static gboolean fprint_verify(FpDevice *dev, FpPrint *p, GCancellable *c, uintptr_t ctx,
		gboolean *matched, FpPrint **scan, GError **err) {
	return fp_device_verify_sync(dev, p, c,
		ctx ? fprint_match_cb : NULL, (gpointer)ctx, matched, scan, err);
}

static gboolean fprint_identify(FpDevice *dev, GPtrArray *gallery, GCancellable *c, uintptr_t ctx,
		FpPrint **match, FpPrint **scan, GError **err) {
	return fp_device_identify_sync(dev, gallery, c,
		ctx ? fprint_match_cb : NULL, (gpointer)ctx, match, scan, err);
}

static const char *fprint_error_domain(GError *e) {
	return g_quark_to_string(e->domain);
}
*/
import "C"

import "unsafe"

type cNative struct{}

// Default returns the libfprint-2 implementation.
func Default() (Native, error) {
	return cNative{}, nil
}

func ptr(h Handle) unsafe.Pointer { return unsafe.Pointer(uintptr(h)) }

func hOf(p unsafe.Pointer) Handle { return Handle(uintptr(p)) }

func dev(h Handle) *C.FpDevice             { return (*C.FpDevice)(ptr(h)) }
func prt(h Handle) *C.FpPrint              { return (*C.FpPrint)(ptr(h)) }
func img(h Handle) *C.FpImage              { return (*C.FpImage)(ptr(h)) }
func cancellable(h Handle) *C.GCancellable { return (*C.GCancellable)(ptr(h)) }

func goStr(s *C.gchar) string {
	if s == nil {
		return ""
	}
	return C.GoString((*C.char)(unsafe.Pointer(s)))
}

func optStr(s *C.gchar) (string, bool) {
	if s == nil {
		return "", false
	}
	return C.GoString((*C.char)(unsafe.Pointer(s))), true
}

func gbool(b bool) C.gboolean {
	if b {
		return 1
	}
	return 0
}

// storeErr publishes a native GError to the caller's out-parameter.
func storeErr(out *Handle, e *C.GError) {
	if out != nil {
		*out = hOf(unsafe.Pointer(e))
	} else if e != nil {
		C.g_error_free(e)
	}
}

func (cNative) Name() string { return "libfprint-2" }

func (cNative) Ref(h Handle) Handle {
	if h == Null {
		return Null
	}
	return hOf(C.g_object_ref(C.gpointer(ptr(h))))
}

func (cNative) Unref(h Handle) {
	if h != Null {
		C.g_object_unref(C.gpointer(ptr(h)))
	}
}

func (cNative) ErrorInfo(e Handle) ErrorInfo {
	ge := (*C.GError)(ptr(e))
	return ErrorInfo{
		Domain:  C.GoString(C.fprint_error_domain(ge)),
		Code:    int(ge.code),
		Message: goStr(ge.message),
	}
}

func (cNative) ErrorFree(e Handle) {
	if e != Null {
		C.g_error_free((*C.GError)(ptr(e)))
	}
}

func (cNative) CancellableNew() Handle {
	return hOf(unsafe.Pointer(C.g_cancellable_new()))
}

func (cNative) CancellableCancel(c Handle) {
	C.g_cancellable_cancel(cancellable(c))
}

func (cNative) ContextNew() Handle {
	return hOf(unsafe.Pointer(C.fp_context_new()))
}

func (cNative) ContextEnumerate(ctx Handle) {
	C.fp_context_enumerate((*C.FpContext)(ptr(ctx)))
}

func (cNative) ContextDevices(ctx Handle) []Handle {
	arr := C.fp_context_get_devices((*C.FpContext)(ptr(ctx)))
	return ptrArray(arr)
}

func ptrArray(arr *C.GPtrArray) []Handle {
	if arr == nil || arr.len == 0 {
		return nil
	}
	items := unsafe.Slice((*C.gpointer)(unsafe.Pointer(arr.pdata)), int(arr.len))
	out := make([]Handle, len(items))
	for i, p := range items {
		out[i] = hOf(unsafe.Pointer(p))
	}
	return out
}

func (cNative) DeviceDriver(d Handle) string { return goStr(C.fp_device_get_driver(dev(d))) }
func (cNative) DeviceID(d Handle) string     { return goStr(C.fp_device_get_device_id(dev(d))) }
func (cNative) DeviceName(d Handle) string   { return goStr(C.fp_device_get_name(dev(d))) }

func (cNative) DeviceScanType(d Handle) int {
	return int(C.fp_device_get_scan_type(dev(d)))
}

func (cNative) DeviceNrEnrollStages(d Handle) int {
	return int(C.fp_device_get_nr_enroll_stages(dev(d)))
}

func (cNative) DeviceFingerStatus(d Handle) uint32 {
	return uint32(C.fp_device_get_finger_status(dev(d)))
}

func (cNative) DeviceFeatures(d Handle) uint32 {
	return uint32(C.fp_device_get_features(dev(d)))
}

func (cNative) DeviceHasFeature(d Handle, feature uint32) bool {
	return C.fp_device_has_feature(dev(d), C.FpDeviceFeature(feature)) != 0
}

func (cNative) DeviceIsOpen(d Handle) bool {
	return C.fp_device_is_open(dev(d)) != 0
}

func (cNative) DeviceOpen(d, c Handle, errOut *Handle) bool {
	var e *C.GError
	ok := C.fp_device_open_sync(dev(d), cancellable(c), &e)
	storeErr(errOut, e)
	return ok != 0
}

func (cNative) DeviceClose(d, c Handle, errOut *Handle) bool {
	var e *C.GError
	ok := C.fp_device_close_sync(dev(d), cancellable(c), &e)
	storeErr(errOut, e)
	return ok != 0
}

// DeviceEnroll hands template to libfprint, which sinks its own reference,
// and then drops the reference the caller transferred in.
func (cNative) DeviceEnroll(d, template, c Handle, progress uintptr, errOut *Handle) Handle {
	var e *C.GError
	res := C.fprint_enroll(dev(d), prt(template), cancellable(c), C.uintptr_t(progress), &e)
	C.g_object_unref(C.gpointer(ptr(template)))
	storeErr(errOut, e)
	return hOf(unsafe.Pointer(res))
}

func (cNative) DeviceVerify(d, p, c Handle, match uintptr, matched *bool, scanOut, errOut *Handle) bool {
	var (
		e    *C.GError
		m    C.gboolean
		scan *C.FpPrint
	)
	scanPtr := (**C.FpPrint)(nil)
	if scanOut != nil {
		scanPtr = &scan
	}
	ok := C.fprint_verify(dev(d), prt(p), cancellable(c), C.uintptr_t(match), &m, scanPtr, &e)
	if matched != nil {
		*matched = m != 0
	}
	if scanOut != nil {
		*scanOut = hOf(unsafe.Pointer(scan))
	}
	storeErr(errOut, e)
	return ok != 0
}

func (cNative) DeviceIdentify(d, gallery, c Handle, match uintptr, matchOut, scanOut, errOut *Handle) bool {
	var (
		e         *C.GError
		hit, scan *C.FpPrint
	)
	scanPtr := (**C.FpPrint)(nil)
	if scanOut != nil {
		scanPtr = &scan
	}
	ok := C.fprint_identify(dev(d), (*C.GPtrArray)(ptr(gallery)), cancellable(c),
		C.uintptr_t(match), &hit, scanPtr, &e)
	if matchOut != nil {
		*matchOut = hOf(unsafe.Pointer(hit))
	} else if hit != nil {
		C.g_object_unref(C.gpointer(unsafe.Pointer(hit)))
	}
	if scanOut != nil {
		*scanOut = hOf(unsafe.Pointer(scan))
	}
	storeErr(errOut, e)
	return ok != 0
}

func (cNative) DeviceCapture(d Handle, waitForFinger bool, c Handle, errOut *Handle) Handle {
	var e *C.GError
	res := C.fp_device_capture_sync(dev(d), gbool(waitForFinger), cancellable(c), &e)
	storeErr(errOut, e)
	return hOf(unsafe.Pointer(res))
}

// DeviceListPrints takes a reference on every stored print before releasing
// the container, whose free function drops the driver's references.
func (cNative) DeviceListPrints(d, c Handle, errOut *Handle) ([]Handle, bool) {
	var e *C.GError
	arr := C.fp_device_list_prints_sync(dev(d), cancellable(c), &e)
	storeErr(errOut, e)
	if arr == nil {
		return nil, false
	}
	prints := ptrArray(arr)
	for _, p := range prints {
		C.g_object_ref(C.gpointer(ptr(p)))
	}
	C.g_ptr_array_unref(arr)
	return prints, true
}

func (cNative) DeviceDeletePrint(d, p, c Handle, errOut *Handle) bool {
	var e *C.GError
	ok := C.fp_device_delete_print_sync(dev(d), prt(p), cancellable(c), &e)
	storeErr(errOut, e)
	return ok != 0
}

func (cNative) DeviceClearStorage(d, c Handle, errOut *Handle) bool {
	var e *C.GError
	ok := C.fp_device_clear_storage_sync(dev(d), cancellable(c), &e)
	storeErr(errOut, e)
	return ok != 0
}

func (cNative) DeviceSuspend(d, c Handle, errOut *Handle) bool {
	var e *C.GError
	ok := C.fp_device_suspend_sync(dev(d), cancellable(c), &e)
	storeErr(errOut, e)
	return ok != 0
}

func (cNative) DeviceResume(d, c Handle, errOut *Handle) bool {
	var e *C.GError
	ok := C.fp_device_resume_sync(dev(d), cancellable(c), &e)
	storeErr(errOut, e)
	return ok != 0
}

// GalleryNew builds an array without an element free function: the entries
// stay owned by their wrappers.
func (cNative) GalleryNew(prints []Handle) Handle {
	arr := C.g_ptr_array_sized_new(C.guint(len(prints)))
	for _, p := range prints {
		C.g_ptr_array_add(arr, C.gpointer(ptr(p)))
	}
	return hOf(unsafe.Pointer(arr))
}

func (cNative) GalleryFree(g Handle) {
	if g != Null {
		C.g_ptr_array_unref((*C.GPtrArray)(ptr(g)))
	}
}

// PrintNew sinks the floating reference so the caller owns a full one.
func (cNative) PrintNew(d Handle) Handle {
	p := C.fp_print_new(dev(d))
	if p == nil {
		return Null
	}
	return hOf(C.g_object_ref_sink(C.gpointer(unsafe.Pointer(p))))
}

func (cNative) PrintDriver(p Handle) string   { return goStr(C.fp_print_get_driver(prt(p))) }
func (cNative) PrintDeviceID(p Handle) string { return goStr(C.fp_print_get_device_id(prt(p))) }

func (cNative) PrintDeviceStored(p Handle) bool {
	return C.fp_print_get_device_stored(prt(p)) != 0
}

func (cNative) PrintImage(p Handle) Handle {
	return hOf(unsafe.Pointer(C.fp_print_get_image(prt(p))))
}

func (cNative) PrintFinger(p Handle) int { return int(C.fp_print_get_finger(prt(p))) }

func (cNative) PrintUsername(p Handle) (string, bool) {
	return optStr(C.fp_print_get_username(prt(p)))
}

func (cNative) PrintDescription(p Handle) (string, bool) {
	return optStr(C.fp_print_get_description(prt(p)))
}

func (cNative) PrintEnrollDate(p Handle) (Date, bool) {
	d := C.fp_print_get_enroll_date(prt(p))
	if d == nil || C.g_date_valid(d) == 0 {
		return Date{}, false
	}
	return Date{
		Year:  int(C.g_date_get_year(d)),
		Month: int(C.g_date_get_month(d)),
		Day:   int(C.g_date_get_day(d)),
	}, true
}

func (cNative) PrintSetFinger(p Handle, finger int) {
	C.fp_print_set_finger(prt(p), C.FpFinger(finger))
}

func (cNative) PrintSetUsername(p Handle, username string) {
	cs := C.CString(username)
	defer C.free(unsafe.Pointer(cs))
	C.fp_print_set_username(prt(p), (*C.gchar)(unsafe.Pointer(cs)))
}

func (cNative) PrintSetDescription(p Handle, description string) {
	cs := C.CString(description)
	defer C.free(unsafe.Pointer(cs))
	C.fp_print_set_description(prt(p), (*C.gchar)(unsafe.Pointer(cs)))
}

func (cNative) PrintSetEnrollDate(p Handle, date Date) {
	d := C.g_date_new_dmy(C.GDateDay(date.Day), C.GDateMonth(date.Month), C.GDateYear(date.Year))
	defer C.g_date_free(d)
	C.fp_print_set_enroll_date(prt(p), d)
}

func (cNative) PrintSerialize(p Handle, errOut *Handle) (Buffer, bool) {
	var (
		e    *C.GError
		data *C.guchar
		n    C.gsize
	)
	ok := C.fp_print_serialize(prt(p), &data, &n, &e)
	storeErr(errOut, e)
	if ok == 0 {
		if data != nil {
			C.g_free(C.gpointer(unsafe.Pointer(data)))
		}
		return Buffer{}, false
	}
	return Buffer{Ptr: hOf(unsafe.Pointer(data)), Len: int(n)}, true
}

func (cNative) PrintDeserialize(data []byte, errOut *Handle) Handle {
	var (
		e   *C.GError
		src *C.guchar
	)
	if len(data) > 0 {
		src = (*C.guchar)(unsafe.Pointer(&data[0]))
	}
	p := C.fp_print_deserialize(src, C.gsize(len(data)), &e)
	storeErr(errOut, e)
	return hOf(unsafe.Pointer(p))
}

func (cNative) PrintCompatible(p, d Handle) bool {
	return C.fp_print_compatible(prt(p), dev(d)) != 0
}

func (cNative) PrintEqual(a, b Handle) bool {
	return C.fp_print_equal(prt(a), prt(b)) != 0
}

func (cNative) BufferBytes(b Buffer) []byte {
	if b.Ptr == Null || b.Len == 0 {
		return nil
	}
	return C.GoBytes(ptr(b.Ptr), C.int(b.Len))
}

func (cNative) BufferFree(b Buffer) {
	if b.Ptr != Null {
		C.g_free(C.gpointer(ptr(b.Ptr)))
	}
}

func (cNative) ImageWidth(i Handle) int    { return int(C.fp_image_get_width(img(i))) }
func (cNative) ImageHeight(i Handle) int   { return int(C.fp_image_get_height(img(i))) }
func (cNative) ImagePPMM(i Handle) float64 { return float64(C.fp_image_get_ppmm(img(i))) }

func (cNative) ImageData(i Handle) []byte {
	var n C.gsize
	data := C.fp_image_get_data(img(i), &n)
	if data == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(data), C.int(n))
}

func (cNative) ImageBinarized(i Handle) []byte {
	var n C.gsize
	data := C.fp_image_get_binarized(img(i), &n)
	if data == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(data), C.int(n))
}
