package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Opcodes for the eight tape commands
// ---------------------------------------------------------------------------

// Opcode is one recognized source command. An ordered []Opcode is the flat
// program representation.
type Opcode uint8

const (
	OpMoveRight Opcode = iota // >
	OpMoveLeft                // <
	OpInc                     // +
	OpDec                     // -
	OpRead                    // ,
	OpWrite                   // .
	OpLoopStart               // [
	OpLoopEnd                 // ]
)

var opcodeNames = map[Opcode]string{
	OpMoveRight: "MoveRight",
	OpMoveLeft:  "MoveLeft",
	OpInc:       "Inc",
	OpDec:       "Dec",
	OpRead:      "Read",
	OpWrite:     "Write",
	OpLoopStart: "LoopStart",
	OpLoopEnd:   "LoopEnd",
}

var opcodeChars = map[Opcode]byte{
	OpMoveRight: '>',
	OpMoveLeft:  '<',
	OpInc:       '+',
	OpDec:       '-',
	OpRead:      ',',
	OpWrite:     '.',
	OpLoopStart: '[',
	OpLoopEnd:   ']',
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

// Char returns the source character for the opcode, or 0 for an invalid one.
func (op Opcode) Char() byte {
	return opcodeChars[op]
}

// OpcodeFor maps a source byte to its opcode. The second result is false for
// commentary bytes.
func OpcodeFor(ch byte) (Opcode, bool) {
	switch ch {
	case '>':
		return OpMoveRight, true
	case '<':
		return OpMoveLeft, true
	case '+':
		return OpInc, true
	case '-':
		return OpDec, true
	case ',':
		return OpRead, true
	case '.':
		return OpWrite, true
	case '[':
		return OpLoopStart, true
	case ']':
		return OpLoopEnd, true
	}
	return 0, false
}

// Describe returns a one-line human description of the opcode.
func (op Opcode) Describe() string {
	switch op {
	case OpMoveRight:
		return "move the data pointer one cell right"
	case OpMoveLeft:
		return "move the data pointer one cell left"
	case OpInc:
		return "increment the current cell (wraps 255 to 0)"
	case OpDec:
		return "decrement the current cell (wraps 0 to 255)"
	case OpRead:
		return "read one input byte into the current cell"
	case OpWrite:
		return "write the current cell as one output byte"
	case OpLoopStart:
		return "skip past the matching ] when the current cell is zero"
	case OpLoopEnd:
		return "jump back to the matching ["
	}
	return "unknown opcode"
}

// Position is a location in source text.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based
	Column int // 1-based
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is an opcode paired with where it appeared in the source.
type Token struct {
	Op  Opcode
	Pos Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%c)@%s", t.Op, t.Op.Char(), t.Pos)
}
