//go:build libfprint && cgo && linux

package backend

/*
#include <stdint.h>
*/
import "C"

// CGO export callbacks invoked by the C trampolines in backend_cgo.go. Every
// pointer arrives as an integer; the user-data value is the registry id of a
// ProgressContext or MatchContext.

//export fprintGoEnrollProgress
func fprintGoEnrollProgress(dev C.uintptr_t, completedStages C.int, print, ctx, gerr C.uintptr_t) {
	DispatchEnrollProgress(uintptr(ctx), Handle(dev), int(completedStages), Handle(print), Handle(gerr))
}

//export fprintGoMatch
func fprintGoMatch(dev, matched, print, ctx, gerr C.uintptr_t) {
	DispatchMatch(uintptr(ctx), Handle(dev), Handle(matched), Handle(print), Handle(gerr))
}
