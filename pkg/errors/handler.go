package errors

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// handlerBox lets an interface value live in an atomic.Pointer.
type handlerBox struct {
	h ErrorHandler
}

var current atomic.Pointer[handlerBox]

// SetHandler installs h as the global error handler and returns a function
// that reinstalls the previous one. Pass nil to restore the default
// LogHandler.
//
//	t.Cleanup(errors.SetHandler(collector))
func SetHandler(h ErrorHandler) (restore func()) {
	if h == nil {
		h = &LogHandler{}
	}
	prev := current.Swap(&handlerBox{h: h})
	return func() {
		current.Store(prev)
	}
}

// Handler returns the global error handler. Until SetHandler is called this
// is a non-verbose LogHandler writing to stderr.
func Handler() ErrorHandler {
	if box := current.Load(); box != nil {
		return box.h
	}
	return defaultHandler
}

var defaultHandler ErrorHandler = &LogHandler{}

// Report sends an error to the global handler.
// If err.Timestamp is zero, it is set to the current time.
func Report(err *TreeError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandleError(err)
}

// ReportCycle reports a cycle found at node while running op.
func ReportCycle(op, node string, depth int) {
	Report(&TreeError{
		Op:         op,
		Kind:       KindCycle,
		Node:       node,
		Err:        &CycleError{Node: node, Depth: depth},
		StackTrace: CaptureStack(),
	})
}

// ReportPanic sends a panic error to the global handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	Handler().HandlePanic(err)
}

// Recover is a helper for deferred panic recovery. The panic is reported to
// the global handler and swallowed.
// Usage: defer errors.Recover("operation.name")
func Recover(op string) {
	if r := recover(); r != nil {
		ReportPanic(newPanicError(op, r))
	}
}

// Catch runs fn and returns its panic, if any, as a PanicError. Unlike
// Recover the panic is not sent to the global handler; the caller owns it.
func Catch(op string, fn func()) (perr *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			perr = newPanicError(op, r)
		}
	}()
	fn()
	return nil
}

func newPanicError(op string, value any) *PanicError {
	return &PanicError{
		Op:         op,
		Value:      value,
		StackTrace: captureStack(4),
		Timestamp:  time.Now(),
	}
}

// CaptureStack returns the caller's stack as a string, one function and
// file:line pair per frame.
func CaptureStack() string {
	return captureStack(3)
}

func captureStack(skip int) string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}

// Collector is an ErrorHandler that keeps everything it is handed. It is
// safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	errors []*TreeError
	panics []*PanicError
}

// HandleError records err.
func (c *Collector) HandleError(err *TreeError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, err)
}

// HandlePanic records err.
func (c *Collector) HandlePanic(err *PanicError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panics = append(c.panics, err)
}

// Errors returns the reported errors in order.
func (c *Collector) Errors() []*TreeError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*TreeError(nil), c.errors...)
}

// Panics returns the reported panics in order.
func (c *Collector) Panics() []*PanicError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*PanicError(nil), c.panics...)
}

// Kinds returns the kind of every reported error, in order.
func (c *Collector) Kinds() []ErrorKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]ErrorKind, len(c.errors))
	for i, err := range c.errors {
		kinds[i] = err.Kind
	}
	return kinds
}
