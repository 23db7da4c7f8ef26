package vm

import (
	"errors"
	"math"
	"testing"
)

func TestFixedTapeBounds(t *testing.T) {
	tape := NewFixedTape(4)

	if err := tape.Move(-1); !errors.Is(err, ErrPointerOutOfRange) {
		t.Errorf("Move(-1) from 0 error = %v, want ErrPointerOutOfRange", err)
	}
	if tape.Pointer() != 0 {
		t.Errorf("pointer moved to %d after a failed move", tape.Pointer())
	}

	for i := 0; i < 3; i++ {
		if err := tape.Move(1); err != nil {
			t.Fatalf("Move(1) #%d: %v", i, err)
		}
	}
	if err := tape.Move(1); !errors.Is(err, ErrPointerOutOfRange) {
		t.Errorf("Move(1) past end error = %v, want ErrPointerOutOfRange", err)
	}
	if tape.Pointer() != 3 {
		t.Errorf("Pointer() = %d, want 3", tape.Pointer())
	}
	if tape.Len() != 4 {
		t.Errorf("Len() = %d, want 4 (fixed tapes never grow)", tape.Len())
	}
}

func TestFixedTapeDefaultSize(t *testing.T) {
	if got := NewFixedTape(0).Len(); got != DefaultFlatTapeSize {
		t.Errorf("NewFixedTape(0).Len() = %d, want %d", got, DefaultFlatTapeSize)
	}
}

func TestTapeWrapAround(t *testing.T) {
	tests := []struct {
		start byte
		delta int
		want  byte
	}{
		{255, 1, 0},
		{0, -1, 255},
		{10, 5, 15},
		{5, -300, 217},
		{200, 100, 44},
		{7, 512, 7},
	}

	for _, tc := range tests {
		fixed := NewFixedTape(1)
		fixed.Set(tc.start)
		fixed.Add(tc.delta)
		if got := fixed.Get(); got != tc.want {
			t.Errorf("FixedTape %d%+d = %d, want %d", tc.start, tc.delta, got, tc.want)
		}

		grow := NewGrowableTape(1)
		grow.Set(tc.start)
		grow.Add(tc.delta)
		if got := grow.Get(); got != tc.want {
			t.Errorf("GrowableTape %d%+d = %d, want %d", tc.start, tc.delta, got, tc.want)
		}
	}
}

func TestGrowableTapeGrows(t *testing.T) {
	tape := NewGrowableTape(2)
	tape.Set(9)

	if err := tape.Move(10); err != nil {
		t.Fatalf("Move(10): %v", err)
	}
	if tape.Len() < 11 {
		t.Errorf("Len() = %d, want at least 11", tape.Len())
	}
	if tape.Get() != 0 {
		t.Errorf("new cell = %d, want 0", tape.Get())
	}
	if tape.At(0) != 9 {
		t.Errorf("At(0) = %d, want 9 to survive growth", tape.At(0))
	}

	before := tape.Len()
	if err := tape.Move(-10); err != nil {
		t.Fatalf("Move(-10): %v", err)
	}
	if tape.Len() != before {
		t.Errorf("tape shrank from %d to %d", before, tape.Len())
	}
}

func TestGrowableTapeNegative(t *testing.T) {
	tape := NewGrowableTape(8)
	if err := tape.Move(3); err != nil {
		t.Fatalf("Move(3): %v", err)
	}
	if err := tape.Move(-4); !errors.Is(err, ErrPointerOutOfRange) {
		t.Errorf("Move(-4) from 3 error = %v, want ErrPointerOutOfRange", err)
	}
	if tape.Pointer() != 3 {
		t.Errorf("Pointer() = %d, want 3", tape.Pointer())
	}
}

func TestGrowableTapeBlock(t *testing.T) {
	tape := NewGrowableTape(2)
	if err := tape.Move(1); err != nil {
		t.Fatalf("Move(1): %v", err)
	}
	block, err := tape.Block(5)
	if err != nil {
		t.Fatalf("Block(5): %v", err)
	}
	if len(block) != 5 {
		t.Fatalf("len(Block(5)) = %d, want 5", len(block))
	}
	block[4] = 42
	if tape.At(5) != 42 {
		t.Errorf("Block does not alias the tape: At(5) = %d", tape.At(5))
	}
}

func TestGrowableTapeLimit(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*GrowableTape) error
	}{
		{"move past limit", func(tape *GrowableTape) error { return tape.Move(MaxTapeCells) }},
		{"move huge", func(tape *GrowableTape) error { return tape.Move(1 << 62) }},
		{"move max int", func(tape *GrowableTape) error { return tape.Move(math.MaxInt) }},
		{"block past limit", func(tape *GrowableTape) error {
			_, err := tape.Block(MaxTapeCells)
			return err
		}},
		{"block huge", func(tape *GrowableTape) error {
			_, err := tape.Block(1 << 62)
			return err
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tape := NewGrowableTape(8)
			if err := tape.Move(1); err != nil {
				t.Fatalf("Move(1): %v", err)
			}
			if err := tc.fn(tape); !errors.Is(err, ErrPointerOutOfRange) {
				t.Errorf("error = %v, want ErrPointerOutOfRange", err)
			}
			if tape.Pointer() != 1 || tape.Len() != 8 {
				t.Errorf("pointer %d, len %d; want 1, 8", tape.Pointer(), tape.Len())
			}
		})
	}
}

func TestGrowableTapeZeroBlock(t *testing.T) {
	block, err := NewGrowableTape(4).Block(0)
	if err != nil || block != nil {
		t.Errorf("Block(0) = %v, %v; want nil, nil", block, err)
	}
}

func TestLoopStack(t *testing.T) {
	s := NewLoopStack()
	if _, ok := s.Pop(); ok {
		t.Error("Pop on empty stack reported a value")
	}

	s.Push(3)
	s.Push(8)
	if s.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", s.Depth())
	}
	if ip, ok := s.Pop(); !ok || ip != 8 {
		t.Errorf("Pop() = %d, %v; want 8, true", ip, ok)
	}
	if ip, ok := s.Pop(); !ok || ip != 3 {
		t.Errorf("Pop() = %d, %v; want 3, true", ip, ok)
	}
	if s.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", s.Depth())
	}
}
