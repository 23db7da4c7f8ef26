package vm

import "fmt"

// ---------------------------------------------------------------------------
// Tapes
// ---------------------------------------------------------------------------

// FixedTape is a byte tape whose capacity is set at construction. Moving
// the pointer outside [0, Len()) fails and leaves the pointer where it was.
type FixedTape struct {
	cells []byte
	ptr   int
}

// NewFixedTape allocates a zeroed tape of size cells.
func NewFixedTape(size int) *FixedTape {
	if size < 1 {
		size = DefaultFlatTapeSize
	}
	size = min(size, MaxTapeCells)
	return &FixedTape{cells: make([]byte, size)}
}

// Move shifts the data pointer by delta.
func (t *FixedTape) Move(delta int) error {
	next := t.ptr + delta
	if next < 0 || next >= len(t.cells) {
		return fmt.Errorf("%w: address %d outside tape of %d cells", ErrPointerOutOfRange, next, len(t.cells))
	}
	t.ptr = next
	return nil
}

// Get returns the current cell.
func (t *FixedTape) Get() byte { return t.cells[t.ptr] }

// Set stores b in the current cell.
func (t *FixedTape) Set(b byte) { t.cells[t.ptr] = b }

// Add adds a signed delta to the current cell, modulo 256.
func (t *FixedTape) Add(delta int) { t.cells[t.ptr] = wrapAdd(t.cells[t.ptr], delta) }

// Pointer returns the data pointer.
func (t *FixedTape) Pointer() int { return t.ptr }

// Len returns the tape capacity.
func (t *FixedTape) Len() int { return len(t.cells) }

// At returns the cell at addr, or 0 outside the tape.
func (t *FixedTape) At(addr int) byte {
	if addr < 0 || addr >= len(t.cells) {
		return 0
	}
	return t.cells[addr]
}

// GrowableTape is a byte tape that grows on demand to cover any
// non-negative address. New cells are zero; the tape never shrinks.
type GrowableTape struct {
	cells []byte
	ptr   int
}

// NewGrowableTape allocates a zeroed tape with an initial capacity.
func NewGrowableTape(initial int) *GrowableTape {
	if initial < 1 {
		initial = DefaultTreeTapeSize
	}
	initial = min(initial, MaxTapeCells)
	return &GrowableTape{cells: make([]byte, initial)}
}

// ensure grows the tape so that addr is a valid index. addr must be below
// MaxTapeCells.
func (t *GrowableTape) ensure(addr int) {
	if addr < len(t.cells) {
		return
	}
	size := min(len(t.cells)*2, MaxTapeCells)
	if size <= addr {
		size = addr + 1
	}
	grown := make([]byte, size)
	copy(grown, t.cells)
	t.cells = grown
}

// span reports whether n cells starting at the data pointer fit under
// MaxTapeCells. It never overflows.
func (t *GrowableTape) span(n int) error {
	if n > MaxTapeCells-t.ptr {
		return fmt.Errorf("%w: %d cells from address %d pass the %d-cell limit", ErrPointerOutOfRange, n, t.ptr, MaxTapeCells)
	}
	return nil
}

// Move shifts the data pointer by delta, growing the tape if needed. A
// negative address, or one at or past MaxTapeCells, fails and leaves the
// pointer where it was.
func (t *GrowableTape) Move(delta int) error {
	if delta >= MaxTapeCells-t.ptr {
		return fmt.Errorf("%w: moving %d from address %d passes the %d-cell limit", ErrPointerOutOfRange, delta, t.ptr, MaxTapeCells)
	}
	next := t.ptr + delta
	if next < 0 {
		return fmt.Errorf("%w: address %d is negative", ErrPointerOutOfRange, next)
	}
	t.ensure(next)
	t.ptr = next
	return nil
}

// Get returns the current cell.
func (t *GrowableTape) Get() byte { return t.cells[t.ptr] }

// Set stores b in the current cell.
func (t *GrowableTape) Set(b byte) { t.cells[t.ptr] = b }

// Add adds a signed delta to the current cell, modulo 256.
func (t *GrowableTape) Add(delta int) { t.cells[t.ptr] = wrapAdd(t.cells[t.ptr], delta) }

// Pointer returns the data pointer.
func (t *GrowableTape) Pointer() int { return t.ptr }

// Len returns the current capacity.
func (t *GrowableTape) Len() int { return len(t.cells) }

// At returns the cell at addr; cells never touched read as 0.
func (t *GrowableTape) At(addr int) byte {
	if addr < 0 || addr >= len(t.cells) {
		return 0
	}
	return t.cells[addr]
}

// Block returns the n cells starting at the data pointer, growing the tape
// to cover them. The slice aliases the tape. A block reaching MaxTapeCells
// fails with ErrPointerOutOfRange and leaves the tape alone.
func (t *GrowableTape) Block(n int) ([]byte, error) {
	if n < 1 {
		return nil, nil
	}
	if err := t.span(n); err != nil {
		return nil, err
	}
	t.ensure(t.ptr + n - 1)
	return t.cells[t.ptr : t.ptr+n], nil
}

func wrapAdd(cell byte, delta int) byte {
	return byte(int(cell) + delta)
}
