package vm

import "github.com/edwingeng/deque"

// LoopStack holds the instruction positions of the loops the flat
// interpreter is currently inside. Its depth always equals the current loop
// nesting depth.
type LoopStack struct {
	d deque.Deque
}

// NewLoopStack returns an empty stack.
func NewLoopStack() *LoopStack {
	return &LoopStack{d: deque.NewDeque()}
}

// Push saves the position of a [ being entered.
func (s *LoopStack) Push(ip int) {
	s.d.PushBack(ip)
}

// Pop removes and returns the innermost saved position. The second result is
// false when the stack is empty.
func (s *LoopStack) Pop() (int, bool) {
	if s.d.Empty() {
		return 0, false
	}
	return s.d.PopBack().(int), true
}

// Depth returns the number of saved positions.
func (s *LoopStack) Depth() int {
	return s.d.Len()
}
