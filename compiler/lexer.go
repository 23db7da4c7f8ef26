package compiler

// ---------------------------------------------------------------------------
// Lexer: source text to opcodes
// ---------------------------------------------------------------------------

// Lexer walks source text byte by byte, yielding a Token for every command
// character and silently skipping everything else.
type Lexer struct {
	input string
	pos   int // next byte to examine
	line  int // 1-based
	col   int // 1-based column of input[pos]
}

// NewLexer creates a lexer for the given source.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Next returns the next command token. The second result is false once the
// input is exhausted.
func (l *Lexer) Next() (Token, bool) {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		pos := Position{Offset: l.pos, Line: l.line, Column: l.col}

		l.pos++
		if ch == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}

		if op, ok := OpcodeFor(ch); ok {
			return Token{Op: op, Pos: pos}, true
		}
	}
	return Token{}, false
}

// Tokenize returns every command token in source order.
func Tokenize(source string) []Token {
	l := NewLexer(source)
	var toks []Token
	for {
		tok, ok := l.Next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

// Lex reduces source text to its opcode sequence. Every byte that is not one
// of the eight commands is commentary and is dropped. Lex never fails.
func Lex(source string) []Opcode {
	ops := make([]Opcode, 0, len(source))
	for i := 0; i < len(source); i++ {
		if op, ok := OpcodeFor(source[i]); ok {
			ops = append(ops, op)
		}
	}
	return ops
}
