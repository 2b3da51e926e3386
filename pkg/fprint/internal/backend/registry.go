package backend

import "sync"

// ProgressReceiver is invoked for every enrollment stage. All handle arguments
// are borrowed for the duration of the call; err is Null when the stage
// completed without a retry condition.
type ProgressReceiver interface {
	EnrollProgress(dev Handle, completedStages int, print, err Handle)
}

// MatchReceiver is invoked when a verify or identify operation has a result.
// All handle arguments are borrowed for the duration of the call.
type MatchReceiver interface {
	Match(dev, matched, print, err Handle)
}

// ctxID is the opaque value handed to native code as callback user data.
type ctxID uintptr

var (
	regMu    sync.Mutex
	nextID   ctxID = 1
	contexts       = map[ctxID]any{}
)

func put(v any) ctxID {
	regMu.Lock()
	defer regMu.Unlock()
	id := nextID
	nextID++
	contexts[id] = v
	return id
}

// Live reports how many callback contexts are currently registered.
func Live() int {
	regMu.Lock()
	defer regMu.Unlock()
	return len(contexts)
}

// ProgressContext carries a ProgressReceiver across every stage of a single
// enrollment. Dispatches look it up without consuming it; the owner releases it
// once the blocking call has returned.
type ProgressContext struct {
	id ctxID
}

// NewProgressContext registers r and returns its context.
func NewProgressContext(r ProgressReceiver) *ProgressContext {
	return &ProgressContext{id: put(r)}
}

// Ptr returns the user-data value to pass to native code. A nil context
// yields 0, meaning no callback.
func (c *ProgressContext) Ptr() uintptr {
	if c == nil {
		return 0
	}
	return uintptr(c.id)
}

// Release unregisters the context. It is safe to call more than once.
func (c *ProgressContext) Release() {
	if c == nil || c.id == 0 {
		return
	}
	regMu.Lock()
	delete(contexts, c.id)
	regMu.Unlock()
	c.id = 0
}

// MatchContext carries a MatchReceiver for one verify or identify call. The
// first dispatch consumes it; later dispatches for the same id are ignored.
type MatchContext struct {
	id ctxID
}

// NewMatchContext registers r and returns its context.
func NewMatchContext(r MatchReceiver) *MatchContext {
	return &MatchContext{id: put(r)}
}

// Ptr returns the user-data value to pass to native code. A nil context
// yields 0, meaning no callback.
func (c *MatchContext) Ptr() uintptr {
	if c == nil {
		return 0
	}
	return uintptr(c.id)
}

// Discard releases the context if no dispatch consumed it and reports whether
// it did so.
func (c *MatchContext) Discard() bool {
	if c == nil || c.id == 0 {
		return false
	}
	_, ok := takeMatch(c.id)
	c.id = 0
	return ok
}

func takeMatch(id ctxID) (MatchReceiver, bool) {
	regMu.Lock()
	defer regMu.Unlock()
	r, ok := contexts[id].(MatchReceiver)
	if ok {
		delete(contexts, id)
	}
	return r, ok
}

// DispatchEnrollProgress delivers one enrollment stage to the receiver
// registered under ctx. It reports false when ctx does not name a live
// progress context.
func DispatchEnrollProgress(ctx uintptr, dev Handle, completedStages int, print, err Handle) bool {
	regMu.Lock()
	r, ok := contexts[ctxID(ctx)].(ProgressReceiver)
	regMu.Unlock()
	if !ok {
		return false
	}
	r.EnrollProgress(dev, completedStages, print, err)
	return true
}

// DispatchMatch consumes the match context registered under ctx and delivers
// the result to its receiver. It reports false when the context was already
// consumed or never existed.
func DispatchMatch(ctx uintptr, dev, matched, print, err Handle) bool {
	r, ok := takeMatch(ctxID(ctx))
	if !ok {
		return false
	}
	r.Match(dev, matched, print, err)
	return true
}
