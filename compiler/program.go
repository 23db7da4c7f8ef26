package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Program: the compiled form handed to an interpreter
// ---------------------------------------------------------------------------

// ProgramKind tags which representation a Program holds.
type ProgramKind uint8

const (
	ProgramFlat ProgramKind = 1
	ProgramTree ProgramKind = 2
)

func (k ProgramKind) String() string {
	switch k {
	case ProgramFlat:
		return "flat"
	case ProgramTree:
		return "tree"
	}
	return fmt.Sprintf("ProgramKind(%d)", k)
}

// Program is either a *FlatProgram or a *TreeProgram. It is chosen once at
// compile time and not modified afterwards.
type Program interface {
	Kind() ProgramKind
	program() // marker method
}

// FlatProgram is the lexed opcode sequence, executed as-is.
type FlatProgram struct {
	Ops []Opcode
}

func (p *FlatProgram) Kind() ProgramKind { return ProgramFlat }
func (p *FlatProgram) program()          {}

// TreeProgram is the parsed loop tree.
type TreeProgram struct {
	Nodes []Node
}

func (p *TreeProgram) Kind() ProgramKind { return ProgramTree }
func (p *TreeProgram) program()          {}

// Mode selects the representation Compile builds.
type Mode uint8

const (
	ModeFlat Mode = iota
	ModeTree
)

func (m Mode) String() string {
	if m == ModeTree {
		return "tree"
	}
	return "flat"
}

// ParseMode accepts "flat" (alias "base") and "tree" (alias "native").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat", "base":
		return ModeFlat, nil
	case "tree", "native":
		return ModeTree, nil
	}
	return ModeFlat, fmt.Errorf("unknown engine mode %q (want flat or tree)", s)
}

// Compile lexes source and, in ModeTree, parses it. Flat compilation never
// fails: bracket problems in a flat program only surface if execution
// reaches them.
func Compile(source string, mode Mode) (Program, error) {
	ops := Lex(source)
	if mode == ModeFlat {
		return &FlatProgram{Ops: ops}, nil
	}
	nodes, err := Parse(ops)
	if err != nil {
		return nil, err
	}
	return &TreeProgram{Nodes: nodes}, nil
}
