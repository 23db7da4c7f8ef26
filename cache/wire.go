// Package cache stores compiled programs in a content-addressed SQLite
// database, keyed by a BLAKE3 hash of the source and engine mode.
package cache

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/bfi/compiler"
)

// FormatVersion is bumped whenever the wire layout changes. It is part of
// every Key, so stale entries simply stop matching.
const FormatVersion byte = 1

// ErrCorrupt is returned when a stored body cannot be turned back into a
// program.
var ErrCorrupt = errors.New("cache: corrupt program body")

// wireKind tags one entry of a linearized tree. Loops are written as an
// open/close pair around their body so decoding never recurses.
type wireKind uint8

const (
	wireChangeData wireKind = iota + 1
	wireChangePointer
	wireReadBytes
	wireWriteBytes
	wireLoopOpen
	wireLoopClose
)

// wireNode is one pre-order entry of a tree program.
type wireNode struct {
	Kind  wireKind `cbor:"1,keyasint"`
	Count int      `cbor:"2,keyasint,omitempty"`
	Trips *uint    `cbor:"3,keyasint,omitempty"` // loop open only
}

// wireProgram is the CBOR envelope stored in the body column.
type wireProgram struct {
	Version byte                 `cbor:"1,keyasint"`
	Kind    compiler.ProgramKind `cbor:"2,keyasint"`
	Ops     []byte               `cbor:"3,keyasint,omitempty"` // flat programs
	Nodes   []wireNode           `cbor:"4,keyasint,omitempty"` // tree programs
}

// maxCount bounds the magnitude of a stored operation count. The parser
// only emits ±1, so anything near it is damage.
const maxCount = 1 << 30

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalProgram serializes a program to canonical CBOR.
func MarshalProgram(p compiler.Program) ([]byte, error) {
	w := wireProgram{Version: FormatVersion}
	switch prog := p.(type) {
	case *compiler.FlatProgram:
		w.Kind = compiler.ProgramFlat
		w.Ops = make([]byte, len(prog.Ops))
		for i, op := range prog.Ops {
			w.Ops[i] = byte(op)
		}
	case *compiler.TreeProgram:
		w.Kind = compiler.ProgramTree
		nodes, err := appendNodes(nil, prog.Nodes)
		if err != nil {
			return nil, err
		}
		w.Nodes = nodes
	default:
		return nil, fmt.Errorf("cache: cannot marshal %T", p)
	}
	return cborEncMode.Marshal(&w)
}

func appendNodes(dst []wireNode, nodes []compiler.Node) ([]wireNode, error) {
	for _, n := range nodes {
		switch node := n.(type) {
		case *compiler.OpNode:
			kind, ok := opWireKinds[node.Kind]
			if !ok {
				return nil, fmt.Errorf("cache: unknown operation kind %v", node.Kind)
			}
			dst = append(dst, wireNode{Kind: kind, Count: node.Count})
		case *compiler.LoopNode:
			dst = append(dst, wireNode{Kind: wireLoopOpen, Trips: node.TripCount})
			var err error
			if dst, err = appendNodes(dst, node.Body); err != nil {
				return nil, err
			}
			dst = append(dst, wireNode{Kind: wireLoopClose})
		default:
			return nil, fmt.Errorf("cache: unknown tree node %T", n)
		}
	}
	return dst, nil
}

var opWireKinds = map[compiler.OpKind]wireKind{
	compiler.ChangeData:    wireChangeData,
	compiler.ChangePointer: wireChangePointer,
	compiler.ReadBytes:     wireReadBytes,
	compiler.WriteBytes:    wireWriteBytes,
}

var wireOpKinds = map[wireKind]compiler.OpKind{
	wireChangeData:    compiler.ChangeData,
	wireChangePointer: compiler.ChangePointer,
	wireReadBytes:     compiler.ReadBytes,
	wireWriteBytes:    compiler.WriteBytes,
}

// UnmarshalProgram rebuilds a program from MarshalProgram output.
func UnmarshalProgram(data []byte) (compiler.Program, error) {
	var w wireProgram
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if w.Version != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrCorrupt, w.Version, FormatVersion)
	}

	switch w.Kind {
	case compiler.ProgramFlat:
		ops := make([]compiler.Opcode, len(w.Ops))
		for i, b := range w.Ops {
			op := compiler.Opcode(b)
			if op > compiler.OpLoopEnd {
				return nil, fmt.Errorf("%w: opcode %d at %d", ErrCorrupt, b, i)
			}
			ops[i] = op
		}
		return &compiler.FlatProgram{Ops: ops}, nil

	case compiler.ProgramTree:
		nodes, err := buildTree(w.Nodes)
		if err != nil {
			return nil, err
		}
		return &compiler.TreeProgram{Nodes: nodes}, nil
	}
	return nil, fmt.Errorf("%w: program kind %v", ErrCorrupt, w.Kind)
}

// buildTree folds the pre-order entries back into nested loops using an
// explicit stack of open loops.
func buildTree(entries []wireNode) ([]compiler.Node, error) {
	top := []compiler.Node{}
	var open []*compiler.LoopNode
	var outer [][]compiler.Node

	for i, e := range entries {
		switch e.Kind {
		case wireLoopOpen:
			outer = append(outer, top)
			open = append(open, &compiler.LoopNode{TripCount: e.Trips})
			top = []compiler.Node{}
		case wireLoopClose:
			if len(open) == 0 {
				return nil, fmt.Errorf("%w: unmatched loop close at %d", ErrCorrupt, i)
			}
			loop := open[len(open)-1]
			loop.Body = top
			open = open[:len(open)-1]
			top = append(outer[len(outer)-1], loop)
			outer = outer[:len(outer)-1]
		default:
			kind, ok := wireOpKinds[e.Kind]
			if !ok {
				return nil, fmt.Errorf("%w: node kind %d at %d", ErrCorrupt, e.Kind, i)
			}
			if e.Count > maxCount || e.Count < -maxCount {
				return nil, fmt.Errorf("%w: count %d at %d", ErrCorrupt, e.Count, i)
			}
			top = append(top, &compiler.OpNode{Kind: kind, Count: e.Count})
		}
	}
	if len(open) != 0 {
		return nil, fmt.Errorf("%w: %d unclosed loops", ErrCorrupt, len(open))
	}
	return top, nil
}
