package bytecode

import "fmt"

// BytecodeVersion is the current chunk format version.
// Increment when making incompatible changes to the format.
const BytecodeVersion uint16 = 1

// Instruction is one decoded bytecode operation. Operand is the constant
// pool index for OpConstant and zero for every other opcode.
type Instruction struct {
	Op      Opcode
	Operand int
}

// String returns the mnemonic, plus the operand for OpConstant.
func (in Instruction) String() string {
	if in.Op == OpConstant {
		return fmt.Sprintf("%s(%d)", in.Op, in.Operand)
	}
	return in.Op.String()
}

// Chunk is a compiled unit: instructions, the source line of each
// instruction, and the constant pool the instructions index into.
//
// A chunk is append-only while the compiler builds it and read-only once
// handed to the VM. Code and Lines always have the same length, and every
// OpConstant operand is a valid index into Constants.
type Chunk struct {
	Version uint16 // Bytecode format version

	Code      []Instruction
	Lines     []int
	Constants []Value
}

// NewChunk creates a new empty chunk with the current version.
func NewChunk() *Chunk {
	return &Chunk{
		Version:   BytecodeVersion,
		Code:      make([]Instruction, 0, 64),
		Lines:     make([]int, 0, 64),
		Constants: make([]Value, 0, 8),
	}
}

// WriteOpcode appends an operand-less instruction tagged with line.
func (c *Chunk) WriteOpcode(op Opcode, line int) int {
	return c.write(Instruction{Op: op}, line)
}

// WriteConstant adds value to the pool and emits Constant(index) for it.
// Returns the new constant index.
func (c *Chunk) WriteConstant(value Value, line int) int {
	idx := c.addConstant(value)
	c.write(Instruction{Op: OpConstant, Operand: idx}, line)
	return idx
}

// addConstant is unexported so that a pool entry is only ever created
// together with the instruction that references it.
func (c *Chunk) addConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

func (c *Chunk) write(in Instruction, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, in)
	c.Lines = append(c.Lines, line)
	return offset
}

// Len returns the number of instructions.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// ConstantCount returns the number of constants in the pool.
func (c *Chunk) ConstantCount() int {
	return len(c.Constants)
}

// LineAt returns the source line of the instruction at offset, or 0 when
// the offset is out of range.
func (c *Chunk) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// Validate checks the structural invariants of the chunk. Chunks built by
// the compiler always pass; chunks decoded from an image may not.
func (c *Chunk) Validate() error {
	if len(c.Code) != len(c.Lines) {
		return fmt.Errorf("chunk has %d instructions but %d line entries", len(c.Code), len(c.Lines))
	}
	for i, in := range c.Code {
		if !in.Op.Valid() {
			return fmt.Errorf("instruction %04d: unknown opcode 0x%02X", i, byte(in.Op))
		}
		if in.Op == OpConstant && (in.Operand < 0 || in.Operand >= len(c.Constants)) {
			return fmt.Errorf("instruction %04d: constant index %d out of range [0,%d)", i, in.Operand, len(c.Constants))
		}
	}
	return nil
}
