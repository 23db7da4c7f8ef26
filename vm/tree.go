package vm

import (
	"fmt"
	"io"

	"github.com/edwingeng/deque"
	"github.com/tliron/commonlog"

	"github.com/chazu/bfi/compiler"
)

// ---------------------------------------------------------------------------
// TreeInterpreter: walks the parsed loop tree
// ---------------------------------------------------------------------------

// TreeInterpreter executes []compiler.Node against a growable tape. Loops
// are evaluated with an explicit frame stack rather than Go recursion, so
// nesting depth is limited by memory only.
//
// Batched ReadBytes and WriteBytes leave the data pointer on the last cell
// of the block (pointer += n-1), not one past it.
type TreeInterpreter struct {
	nodes []compiler.Node
	tape  *GrowableTape
	eof   EOFPolicy
	log   commonlog.Logger
	steps uint64
}

// frame is one sequence of nodes being executed. loop is nil for the
// program's top level.
type frame struct {
	nodes []compiler.Node
	pc    int
	loop  *compiler.LoopNode
	iter  uint
}

// NewTree prepares nodes for execution.
func NewTree(nodes []compiler.Node, opts Options) *TreeInterpreter {
	return &TreeInterpreter{
		nodes: nodes,
		tape:  NewGrowableTape(opts.TapeSize),
		eof:   opts.EOF,
		log:   opts.logger("bfi.tree"),
	}
}

// Tape exposes the interpreter's tape.
func (ti *TreeInterpreter) Tape() *GrowableTape { return ti.tape }

// Steps returns how many operation nodes have executed.
func (ti *TreeInterpreter) Steps() uint64 { return ti.steps }

// Run executes the whole tree. in and out are borrowed for the duration of
// the call.
func (ti *TreeInterpreter) Run(in io.Reader, out io.Writer) error {
	debug := ti.log.AllowLevel(commonlog.Debug)

	stack := deque.NewDeque()
	stack.PushBack(&frame{nodes: ti.nodes})

	for !stack.Empty() {
		f := stack.Back().(*frame)

		if f.pc >= len(f.nodes) {
			if ti.repeat(f, debug) {
				f.pc = 0
			} else {
				stack.PopBack()
			}
			continue
		}

		n := f.nodes[f.pc]
		f.pc++

		switch node := n.(type) {
		case *compiler.OpNode:
			ti.steps++
			if err := ti.exec(node, in, out, debug); err != nil {
				return err
			}

		case *compiler.LoopNode:
			if node.TripCount != nil {
				if debug {
					ti.log.Debugf("Entering loop of length %d.", *node.TripCount)
				}
				if *node.TripCount == 0 {
					continue
				}
				if debug {
					ti.log.Debugf("Iterating loop count %d.", 0)
				}
			} else {
				if debug {
					ti.log.Debugf("Entering loop of unknown length.")
				}
				if ti.tape.Get() == 0 {
					if debug {
						ti.log.Debugf("Finished loop of unknown length, iterations: %d.", 0)
					}
					continue
				}
				if debug {
					ti.log.Debugf("Iterating loop of unknown length, count %d.", 0)
				}
			}
			stack.PushBack(&frame{nodes: node.Body, loop: node})

		default:
			return fmt.Errorf("unknown tree node %T", n)
		}
	}
	return nil
}

// repeat is called when a frame's body is exhausted and reports whether the
// body should run again.
func (ti *TreeInterpreter) repeat(f *frame, debug bool) bool {
	if f.loop == nil {
		return false
	}
	f.iter++

	if f.loop.TripCount != nil {
		if f.iter < *f.loop.TripCount {
			if debug {
				ti.log.Debugf("Iterating loop count %d.", f.iter)
			}
			return true
		}
		if debug {
			ti.log.Debugf("Finished loop of length %d.", *f.loop.TripCount)
		}
		return false
	}

	if ti.tape.Get() != 0 {
		if debug {
			ti.log.Debugf("Iterating loop of unknown length, count %d.", f.iter)
		}
		return true
	}
	if debug {
		ti.log.Debugf("Finished loop of unknown length, iterations: %d.", f.iter)
	}
	return false
}

func (ti *TreeInterpreter) exec(node *compiler.OpNode, in io.Reader, out io.Writer, debug bool) error {
	switch node.Kind {
	case compiler.ChangeData:
		ti.tape.Add(node.Count)
		if debug {
			ti.log.Debugf("Changing data at %d by %d to %d.", ti.tape.Pointer(), node.Count, ti.tape.Get())
		}

	case compiler.ChangePointer:
		if err := ti.tape.Move(node.Count); err != nil {
			return err
		}
		if debug {
			ti.log.Debugf("Moving data pointer by %d to %d.", node.Count, ti.tape.Pointer())
		}

	case compiler.ReadBytes:
		if node.Count < 1 {
			return nil
		}
		block, err := ti.tape.Block(node.Count)
		if err != nil {
			return err
		}
		scratch := make([]byte, node.Count)
		got, err := readInto(in, scratch)
		if err != nil {
			return err
		}
		copy(block, scratch[:got])
		if ti.eof == EOFZero {
			clear(block[got:])
		}
		if debug {
			ti.log.Debugf("Read %d bytes from input: %q.", node.Count, block)
		}
		return ti.tape.Move(node.Count - 1)

	case compiler.WriteBytes:
		if node.Count < 1 {
			return nil
		}
		block, err := ti.tape.Block(node.Count)
		if err != nil {
			return err
		}
		if _, err := out.Write(block); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if debug {
			ti.log.Debugf("Write %d bytes.", node.Count)
		}
		return ti.tape.Move(node.Count - 1)

	default:
		return fmt.Errorf("unknown operation kind %v", node.Kind)
	}
	return nil
}
