package compiler

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func Disassemble(p Program) string {
	return DisassembleWithName(p, "")
}

// DisassembleWithName returns a listing with a name header.
func DisassembleWithName(p Program, name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}

	switch prog := p.(type) {
	case *FlatProgram:
		sb.WriteString(fmt.Sprintf("; flat program, %d ops\n", len(prog.Ops)))
		for _, line := range disassembleFlat(prog.Ops) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	case *TreeProgram:
		sb.WriteString(fmt.Sprintf("; tree program, %d nodes, depth %d\n",
			CountNodes(prog.Nodes), MaxDepth(prog.Nodes)))
		disassembleTree(&sb, prog.Nodes, 0)
	default:
		sb.WriteString("; unknown program\n")
	}

	return sb.String()
}

// disassembleFlat renders one line per opcode. Brackets show the index of
// their partner, or "?" when there is none.
func disassembleFlat(ops []Opcode) []string {
	lines := make([]string, 0, len(ops))
	for i, op := range ops {
		line := fmt.Sprintf("%04d  %c  %-9s", i, op.Char(), op)
		switch op {
		case OpLoopStart:
			line += "  -> " + partner(FindMatchingEnd(ops, i))
		case OpLoopEnd:
			line += "  -> " + partner(FindMatchingStart(ops, i))
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

func partner(idx int, ok bool) string {
	if !ok {
		return "?"
	}
	return fmt.Sprintf("%04d", idx)
}

func disassembleTree(sb *strings.Builder, nodes []Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch node := n.(type) {
		case *OpNode:
			sb.WriteString(fmt.Sprintf("%s%s %+d\n", indent, node.Kind, node.Count))
		case *LoopNode:
			if node.TripCount != nil {
				sb.WriteString(fmt.Sprintf("%sLoop x%d {\n", indent, *node.TripCount))
			} else {
				sb.WriteString(fmt.Sprintf("%sLoop {\n", indent))
			}
			disassembleTree(sb, node.Body, depth+1)
			sb.WriteString(fmt.Sprintf("%s}\n", indent))
		}
	}
}
