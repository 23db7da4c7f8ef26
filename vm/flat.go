package vm

import (
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"github.com/chazu/bfi/compiler"
)

// ---------------------------------------------------------------------------
// FlatInterpreter: executes the opcode sequence directly
// ---------------------------------------------------------------------------

// FlatInterpreter runs a []compiler.Opcode against a fixed-size tape, using
// an explicit stack of loop return positions. The opcodes are not assumed to
// be bracket-balanced; unpaired brackets fail when execution reaches them.
//
// An interpreter is built for one invocation: its tape and loop stack start
// empty in NewFlat and are discarded with it.
type FlatInterpreter struct {
	ops   []compiler.Opcode
	ip    int
	tape  *FixedTape
	loops *LoopStack
	eof   EOFPolicy
	log   commonlog.Logger
	steps uint64
}

// NewFlat prepares ops for execution.
func NewFlat(ops []compiler.Opcode, opts Options) *FlatInterpreter {
	return &FlatInterpreter{
		ops:   ops,
		tape:  NewFixedTape(opts.TapeSize),
		loops: NewLoopStack(),
		eof:   opts.EOF,
		log:   opts.logger("bfi.flat"),
	}
}

// Tape exposes the interpreter's tape.
func (fi *FlatInterpreter) Tape() *FixedTape { return fi.tape }

// IP returns the instruction pointer.
func (fi *FlatInterpreter) IP() int { return fi.ip }

// LoopDepth returns the number of loops currently entered.
func (fi *FlatInterpreter) LoopDepth() int { return fi.loops.Depth() }

// Steps returns how many instructions have executed.
func (fi *FlatInterpreter) Steps() uint64 { return fi.steps }

// Run executes until the instruction pointer passes the last opcode or a
// fault occurs. in and out are borrowed for the duration of the call.
func (fi *FlatInterpreter) Run(in io.Reader, out io.Writer) error {
	debug := fi.log.AllowLevel(commonlog.Debug)
	var buf [1]byte

	for fi.ip < len(fi.ops) {
		fi.steps++

		switch fi.ops[fi.ip] {
		case compiler.OpMoveRight:
			if err := fi.tape.Move(1); err != nil {
				return err
			}
			fi.ip++
			if debug {
				fi.log.Debugf("Increment data pointer to %d.", fi.tape.Pointer())
			}

		case compiler.OpMoveLeft:
			if err := fi.tape.Move(-1); err != nil {
				return err
			}
			fi.ip++
			if debug {
				fi.log.Debugf("Decrement data pointer to %d.", fi.tape.Pointer())
			}

		case compiler.OpInc:
			fi.tape.Add(1)
			fi.ip++
			if debug {
				fi.log.Debugf("Increment value at %d to %d.", fi.tape.Pointer(), fi.tape.Get())
			}

		case compiler.OpDec:
			fi.tape.Add(-1)
			fi.ip++
			if debug {
				fi.log.Debugf("Decrement value at %d to %d.", fi.tape.Pointer(), fi.tape.Get())
			}

		case compiler.OpWrite:
			buf[0] = fi.tape.Get()
			if _, err := out.Write(buf[:]); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fi.ip++
			if debug {
				fi.log.Debugf("Output character %q.", buf[0])
			}

		case compiler.OpRead:
			n, err := readInto(in, buf[:])
			if err != nil {
				return err
			}
			if n == 1 {
				fi.tape.Set(buf[0])
			} else if fi.eof == EOFZero {
				fi.tape.Set(0)
			}
			fi.ip++
			if debug {
				fi.log.Debugf("Read character from input %q.", fi.tape.Get())
			}

		case compiler.OpLoopStart:
			if fi.tape.Get() == 0 {
				end, ok := compiler.FindMatchingEnd(fi.ops, fi.ip)
				if !ok {
					return fmt.Errorf("%w: '[' at instruction %d", ErrUnterminatedLoop, fi.ip)
				}
				fi.ip = end + 1
				if debug {
					fi.log.Debugf("Finished loop with data pointer %d.", fi.tape.Pointer())
				}
			} else {
				fi.loops.Push(fi.ip)
				fi.ip++
				if debug {
					fi.log.Debugf("Loop with data[%d] = %d.", fi.tape.Pointer(), fi.tape.Get())
				}
			}

		case compiler.OpLoopEnd:
			ip, ok := fi.loops.Pop()
			if !ok {
				return fmt.Errorf("%w: ']' at instruction %d", ErrMismatchedLoopStack, fi.ip)
			}
			fi.ip = ip
			if debug {
				fi.log.Debugf("Returning to beginning of loop at %d.", fi.ip)
			}

		default:
			return fmt.Errorf("invalid opcode %d at instruction %d", fi.ops[fi.ip], fi.ip)
		}
	}
	return nil
}

// readInto fills buf from in, stopping early only at end of stream. It
// returns how many bytes arrived; running out of input is not an error.
func readInto(in io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(in, buf)
	switch err {
	case nil, io.EOF, io.ErrUnexpectedEOF:
		return n, nil
	}
	return n, fmt.Errorf("read input: %w", err)
}
