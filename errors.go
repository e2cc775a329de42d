package systest

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fatal engine error for programmatic dispatch, e.g.
// errors.Is against an *EngineError of the wanted kind.
type ErrorKind int

const (
	// KindAssertionFailure: a user or engine invariant failed.
	KindAssertionFailure ErrorKind = iota
	// KindUnhandledEvent: a dequeued event had no handler and no default.
	KindUnhandledEvent
	// KindDuplicateHandler: two handlers were declared for one (state, event).
	KindDuplicateHandler
	// KindDeadlock: no enabled operations remain while some are paused.
	KindDeadlock
	// KindUncontrolledConcurrency: execution outside the scheduler's control.
	KindUncontrolledConcurrency
	// KindMaxStepsHit: the iteration's step bound was reached.
	KindMaxStepsHit
	// KindDroppedMustHandle: an event marked MustHandle was lost on halt.
	KindDroppedMustHandle
	// KindLivenessViolation: the liveness-temperature threshold was exceeded.
	KindLivenessViolation
	// KindUnknownTask: Await referenced a task id the runtime never created.
	KindUnknownTask
)

func (k ErrorKind) String() string {
	switch k {
	case KindAssertionFailure:
		return "AssertionFailure"
	case KindUnhandledEvent:
		return "UnhandledEvent"
	case KindDuplicateHandler:
		return "DuplicateHandler"
	case KindDeadlock:
		return "Deadlock"
	case KindUncontrolledConcurrency:
		return "UncontrolledConcurrency"
	case KindMaxStepsHit:
		return "MaxStepsHit"
	case KindDroppedMustHandle:
		return "DroppedMustHandle"
	case KindLivenessViolation:
		return "LivenessViolation"
	case KindUnknownTask:
		return "UnknownTask"
	default:
		return "Unknown"
	}
}

// EngineError is a fatal error originating from the engine, wrapped with
// the originating operation id, current state, and action name before
// being surfaced to the host via Hooks.OnFailure.
type EngineError struct {
	EngineKind ErrorKind
	Op OperationId
	State string
	Action string
	Message string
	Cause error
}

// Kind returns the error's classification.
func (e *EngineError) Kind() ErrorKind { return e.EngineKind }

func (e *EngineError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.EngineKind.String()
	}
	if e.State != "" || e.Action != "" {
		return fmt.Sprintf("%s: %s (op=%v state=%q action=%q)", e.EngineKind, msg, e.Op, e.State, e.Action)
	}
	return fmt.Sprintf("%s: %s (op=%v)", e.EngineKind, msg, e.Op)
}

// Unwrap exposes the underlying cause, if any, for errors.Is/errors.As.
func (e *EngineError) Unwrap() error { return e.Cause }

// Is reports true for any target of kind *EngineError matching EngineKind,
// so errors.Is(err, &EngineError{EngineKind: KindDeadlock}) works regardless
// of the other fields.
func (e *EngineError) Is(target error) bool {
	var t *EngineError
	if errors.As(target, &t) {
		return t.EngineKind == e.EngineKind
	}
	return false
}

func newEngineError(kind ErrorKind, op OperationId, state, action, message string, cause error) *EngineError {
	return &EngineError{EngineKind: kind, Op: op, State: state, Action: action, Message: message, Cause: cause}
}

// ErrDuplicateHandler reports two handlers declared for the same
// (state, event) pair at actor-construction time.
func ErrDuplicateHandler(state string, evt EventType) error {
	return newEngineError(KindDuplicateHandler, 0, state, "", fmt.Sprintf("duplicate handler for event %s", evt), nil)
}

// ErrInvalidAction reports a structural error in an actor definition other
// than a duplicate handler.
func ErrInvalidAction(state, detail string) error {
	return newEngineError(KindDuplicateHandler, 0, state, "", detail, nil)
}

// ErrAssertionFailure wraps a failed Assert call or engine invariant.
func ErrAssertionFailure(op OperationId, state, message string) error {
	return newEngineError(KindAssertionFailure, op, state, "", message, nil)
}

// ErrUnhandledEvent wraps a dequeued event with no handler and no default.
func ErrUnhandledEvent(op OperationId, state string, evt EventType) error {
	return newEngineError(KindUnhandledEvent, op, state, "", fmt.Sprintf("no handler for event %s", evt), nil)
}

// ErrDeadlock reports that every operation is paused and none is enabled.
func ErrDeadlock(paused []OperationId) error {
	return newEngineError(KindDeadlock, 0, "", "", fmt.Sprintf("%d operation(s) paused, none enabled", len(paused)), nil)
}

// ErrUncontrolledConcurrency reports execution the engine could not schedule.
func ErrUncontrolledConcurrency(detail string) error {
	return newEngineError(KindUncontrolledConcurrency, 0, "", "", detail, nil)
}

// ErrMaxStepsHit reports that the configured step bound was reached.
func ErrMaxStepsHit(steps uint64) error {
	return newEngineError(KindMaxStepsHit, 0, "", "", fmt.Sprintf("step bound %d reached", steps), nil)
}

// ErrDroppedMustHandle reports a MustHandle event lost when its target halted.
func ErrDroppedMustHandle(target ActorId, evt EventType) error {
	return newEngineError(KindDroppedMustHandle, 0, "", "", fmt.Sprintf("event %s dropped for halted actor %s", evt, target), nil)
}

// ErrLivenessViolation reports that liveness temperature exceeded its threshold.
func ErrLivenessViolation(monitor string, temperature int) error {
	return newEngineError(KindLivenessViolation, 0, "", "", fmt.Sprintf("monitor %s hot for %d steps", monitor, temperature), nil)
}

// ErrUnknownTask reports an Await call against a task id the runtime never
// created (or one from a different Runtime).
func ErrUnknownTask(id OperationId) error {
	return newEngineError(KindUnknownTask, id, "", "", fmt.Sprintf("awaited unknown task %v", id), nil)
}
