package compiler

// ---------------------------------------------------------------------------
// Parser: recursive descent from opcodes to a loop tree
// ---------------------------------------------------------------------------

// Parse builds the tree for a whole opcode sequence. A well-bracketed
// sequence always parses, and the resulting tree nests exactly as the
// brackets do. The first unpaired bracket is reported as a *ParseError.
func Parse(ops []Opcode) ([]Node, error) {
	return parseRange(ops, 0, len(ops))
}

// parseRange parses the half-open range [start, end) of ops.
func parseRange(ops []Opcode, start, end int) ([]Node, error) {
	nodes := make([]Node, 0, end-start)
	i := start
	for i < end {
		switch ops[i] {
		case OpInc:
			nodes = append(nodes, &OpNode{Kind: ChangeData, Count: 1})
		case OpDec:
			nodes = append(nodes, &OpNode{Kind: ChangeData, Count: -1})
		case OpMoveRight:
			nodes = append(nodes, &OpNode{Kind: ChangePointer, Count: 1})
		case OpMoveLeft:
			nodes = append(nodes, &OpNode{Kind: ChangePointer, Count: -1})
		case OpRead:
			nodes = append(nodes, &OpNode{Kind: ReadBytes, Count: 1})
		case OpWrite:
			nodes = append(nodes, &OpNode{Kind: WriteBytes, Count: 1})
		case OpLoopEnd:
			return nil, &ParseError{Kind: ErrUnexpectedClose, Position: i}
		case OpLoopStart:
			match, ok := FindMatchingEnd(ops, i)
			if !ok {
				return nil, &ParseError{Kind: ErrUnterminatedOpen, Position: i}
			}
			body, err := parseRange(ops, i+1, match)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &LoopNode{Body: body})
			i = match
		}
		i++
	}
	return nodes, nil
}
