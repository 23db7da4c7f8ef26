package vm

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"
)

const (
	// DefaultFlatTapeSize is the fixed capacity of the flat interpreter's tape.
	DefaultFlatTapeSize = 1024
	// DefaultTreeTapeSize is the initial capacity of the tree interpreter's tape.
	DefaultTreeTapeSize = 2048
	// MaxTapeCells bounds every tape. Addresses at or past it are out of
	// range, even on a growable tape.
	MaxTapeCells = 1 << 30
)

// EOFPolicy decides what a read does to a cell once input is exhausted.
type EOFPolicy uint8

const (
	// EOFZero stores 0. This is the default.
	EOFZero EOFPolicy = iota
	// EOFUnchanged leaves the cell as it was.
	EOFUnchanged
)

func (p EOFPolicy) String() string {
	if p == EOFUnchanged {
		return "unchanged"
	}
	return "zero"
}

// ParseEOFPolicy accepts "zero" and "unchanged".
func ParseEOFPolicy(s string) (EOFPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return EOFZero, nil
	case "unchanged", "keep":
		return EOFUnchanged, nil
	}
	return EOFZero, fmt.Errorf("unknown eof policy %q (want zero or unchanged)", s)
}

// Options configures one interpreter invocation.
type Options struct {
	// TapeSize is the fixed capacity for the flat interpreter and the
	// initial capacity for the tree interpreter. Zero picks the default.
	TapeSize int

	EOF EOFPolicy

	// Log receives per-instruction trace messages at Debug level. Nil uses
	// the package logger for the interpreter.
	Log commonlog.Logger
}

func (o Options) logger(name string) commonlog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return commonlog.GetLogger(name)
}
