// Package errors provides structured error handling for logical tree
// mutation and traversal.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindContract indicates a caller broke a tree invariant.
	KindContract
	// KindCycle indicates a traversal found a parent/child cycle.
	KindCycle
	// KindSubscriber indicates a subscriber handler panicked.
	KindSubscriber
	// KindScenario indicates a scenario file could not be loaded or run.
	KindScenario
)

func (k ErrorKind) String() string {
	switch k {
	case KindContract:
		return "contract"
	case KindCycle:
		return "cycle"
	case KindSubscriber:
		return "subscriber"
	case KindScenario:
		return "scenario"
	default:
		return "unknown"
	}
}

// TreeError represents a structured error reported by the tree packages.
type TreeError struct {
	// Op is the operation that failed (e.g., "logical.Walker.PropagateAttach").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Node is the path of the node involved, if any.
	Node string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *TreeError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s [%s] node=%s: %v", e.Op, e.Kind, e.Node, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *TreeError) Unwrap() error {
	return e.Err
}

// ContractError is raised, by panicking, when a caller invokes a tree
// mutation whose arguments contradict the tree invariants: double
// parenting, removing a node from a parent it does not belong to, and so on.
// It is never recovered by the library.
type ContractError struct {
	// Op is the mutation that was refused (e.g., "logical.Coordinator.AddChild").
	Op string
	// Node is the path of the offending node.
	Node string
	// Reason describes the broken invariant.
	Reason string
}

func (e *ContractError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("contract violation in %s (%s): %s", e.Op, e.Node, e.Reason)
	}
	return fmt.Sprintf("contract violation in %s: %s", e.Op, e.Reason)
}

// CycleError describes a node that was reached twice during one traversal.
type CycleError struct {
	// Node is the path of the revisited node.
	Node string
	// Depth is the traversal depth at which the revisit happened.
	Depth int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected at %s (depth %d)", e.Node, e.Depth)
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "scenario.Run").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error, so that a recovered
// ContractError can still be matched with errors.As.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorHandler receives errors reported by the tree packages.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *TreeError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
