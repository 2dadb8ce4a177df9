package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the chunk.
func (c *Chunk) Disassemble() string {
	return c.DisassembleWithName("chunk")
}

// DisassembleWithName returns a listing with a "== name ==" header.
//
// Each instruction is rendered as a zero-padded offset, the source line
// (or "|" when it repeats the previous instruction's line), the mnemonic,
// and for OpConstant the pool index and the constant's printed value.
func (c *Chunk) DisassembleWithName(name string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	for offset := range c.Code {
		sb.WriteString(c.DisassembleInstruction(offset))
		sb.WriteString("\n")
	}
	return sb.String()
}

// DisassembleInstruction renders a single instruction without a trailing
// newline.
func (c *Chunk) DisassembleInstruction(offset int) string {
	if offset < 0 || offset >= len(c.Code) {
		return fmt.Sprintf("%04d <end of code>", offset)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%04d ", offset))
	if offset > 0 && c.LineAt(offset) == c.LineAt(offset-1) {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", c.LineAt(offset)))
	}

	in := c.Code[offset]
	switch in.Op {
	case OpConstant:
		display := "<invalid>"
		if in.Operand >= 0 && in.Operand < len(c.Constants) {
			display = c.Constants[in.Operand].String()
		}
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s'", in.Op, in.Operand, display))
	default:
		sb.WriteString(in.Op.String())
	}
	return sb.String()
}
