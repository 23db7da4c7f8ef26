package vm

import "errors"

// Runtime faults. They abort the current program and are never resumed;
// callers match them with errors.Is.
var (
	// ErrPointerOutOfRange: the data pointer left the fixed tape, or went
	// below address zero on a growable one.
	ErrPointerOutOfRange = errors.New("data pointer out of range")

	// ErrMismatchedLoopStack: a ] ran with no saved [ to return to. Only
	// reachable when a flat program was never bracket-checked.
	ErrMismatchedLoopStack = errors.New("mismatched loop stack")

	// ErrUnterminatedLoop: a [ had to be skipped but has no matching ].
	ErrUnterminatedLoop = errors.New("unterminated loop")
)
