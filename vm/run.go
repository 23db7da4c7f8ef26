package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/bfi/compiler"
)

// Run executes p with the interpreter matching its representation. A nil in
// behaves as an empty stream and a nil out discards output.
func Run(p compiler.Program, in io.Reader, out io.Writer, opts Options) error {
	if in == nil {
		in = strings.NewReader("")
	}
	if out == nil {
		out = io.Discard
	}

	switch prog := p.(type) {
	case *compiler.FlatProgram:
		return NewFlat(prog.Ops, opts).Run(in, out)
	case *compiler.TreeProgram:
		return NewTree(prog.Nodes, opts).Run(in, out)
	case nil:
		return fmt.Errorf("vm: nil program")
	}
	return fmt.Errorf("vm: unsupported program kind %v", p.Kind())
}
