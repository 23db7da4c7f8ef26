package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Tree representation
// ---------------------------------------------------------------------------

// Node is the interface implemented by all tree nodes: *OpNode and *LoopNode.
type Node interface {
	String() string
	node() // marker method
}

// OpKind identifies the effect of an OpNode.
type OpKind uint8

const (
	ChangeData    OpKind = iota // add a signed delta to the current cell
	ChangePointer               // add a signed delta to the data pointer
	ReadBytes                   // read Count bytes into consecutive cells
	WriteBytes                  // write Count consecutive cells
)

var opKindNames = map[OpKind]string{
	ChangeData:    "ChangeData",
	ChangePointer: "ChangePointer",
	ReadBytes:     "ReadBytes",
	WriteBytes:    "WriteBytes",
}

func (k OpKind) String() string {
	if name, ok := opKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// OpNode is a straight-line operation. Count is a signed delta for
// ChangeData and ChangePointer and a byte length for ReadBytes and
// WriteBytes. The parser always emits magnitude 1; larger counts exist for
// front ends that coalesce runs.
type OpNode struct {
	Kind  OpKind
	Count int
}

func (n *OpNode) node() {}

func (n *OpNode) String() string {
	return fmt.Sprintf("%s(%d)", n.Kind, n.Count)
}

// LoopNode is a bracketed loop. With a nil TripCount the body repeats while
// the current cell is non-zero, checked before each iteration. A non-nil
// TripCount runs the body exactly that many times regardless of the cell.
type LoopNode struct {
	Body      []Node
	TripCount *uint
}

func (n *LoopNode) node() {}

func (n *LoopNode) String() string {
	if n.TripCount != nil {
		return fmt.Sprintf("Loop[x%d](%d nodes)", *n.TripCount, len(n.Body))
	}
	return fmt.Sprintf("Loop(%d nodes)", len(n.Body))
}

// Trips returns a pointer to n, for building bounded LoopNodes.
func Trips(n uint) *uint {
	return &n
}

// CountNodes returns the number of nodes in the tree, loops included.
func CountNodes(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		total++
		if loop, ok := n.(*LoopNode); ok {
			total += CountNodes(loop.Body)
		}
	}
	return total
}

// MaxDepth returns the deepest loop nesting in the tree.
func MaxDepth(nodes []Node) int {
	deepest := 0
	for _, n := range nodes {
		if loop, ok := n.(*LoopNode); ok {
			if d := 1 + MaxDepth(loop.Body); d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}
