package compiler

// FindMatchingEnd returns the index of the OpLoopEnd that closes the
// OpLoopStart at start. It scans forward keeping a nesting count, so nested
// loops are skipped over. The second result is false when the loop is never
// closed.
//
// No jump table is kept; callers that skip loops at run time pay a scan of
// the loop body on every skip.
func FindMatchingEnd(ops []Opcode, start int) (int, bool) {
	depth := 0
	for i := start + 1; i < len(ops); i++ {
		switch ops[i] {
		case OpLoopStart:
			depth++
		case OpLoopEnd:
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return -1, false
}

// FindMatchingStart is the backward counterpart of FindMatchingEnd, used by
// tooling to jump from a ] to its [.
func FindMatchingStart(ops []Opcode, end int) (int, bool) {
	depth := 0
	for i := end - 1; i >= 0; i-- {
		switch ops[i] {
		case OpLoopEnd:
			depth++
		case OpLoopStart:
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return -1, false
}
