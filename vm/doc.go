// Package vm executes compiled tape-language programs.
//
// This package contains:
//   - FixedTape and GrowableTape, the byte-cell memories
//   - FlatInterpreter, which runs the opcode sequence with a loop stack
//   - TreeInterpreter, which walks the parsed loop tree
//   - Run, which picks the interpreter for a compiler.Program
package vm
