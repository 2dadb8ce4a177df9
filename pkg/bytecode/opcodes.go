package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Constants and literals (0x10-0x1F)
	// ========================================================================

	OpConstant Opcode = 0x10 // Push constant from pool: Constant(k)
	OpNil      Opcode = 0x11 // Push nil
	OpTrue     Opcode = 0x12 // Push true
	OpFalse    Opcode = 0x13 // Push false

	// ========================================================================
	// Arithmetic (0x50-0x5F)
	// ========================================================================

	OpAdd      Opcode = 0x50 // Pop two, push sum
	OpSubtract Opcode = 0x51 // Pop two, push difference (a - b where b is TOS)
	OpMultiply Opcode = 0x52 // Pop two, push product
	OpDivide   Opcode = 0x53 // Pop two, push IEEE-754 quotient
	OpNegate   Opcode = 0x55 // Negate top of stack

	// ========================================================================
	// Comparison (0x60-0x6F)
	// ========================================================================

	OpEqual   Opcode = 0x60 // Pop two, push true if structurally equal
	OpGreater Opcode = 0x64 // Pop two, push true if a > b
	OpLess    Opcode = 0x62 // Pop two, push true if a < b

	// ========================================================================
	// Logical operations (0x68-0x6F)
	// ========================================================================

	OpNot Opcode = 0x68 // Push true if TOS is falsey

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn Opcode = 0xF0 // Pop and report the result
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Mnemonic used by the disassembler
	StackPop   int    // How many values popped from stack
	StackPush  int    // How many values pushed to stack
	HasOperand bool   // True if the instruction carries a constant index
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Constants
	OpConstant: {"OP_CONSTANT", 0, 1, true},
	OpNil:      {"OP_NIL", 0, 1, false},
	OpTrue:     {"OP_TRUE", 0, 1, false},
	OpFalse:    {"OP_FALSE", 0, 1, false},

	// Arithmetic
	OpAdd:      {"OP_ADD", 2, 1, false},
	OpSubtract: {"OP_SUBTRACT", 2, 1, false},
	OpMultiply: {"OP_MULTIPLY", 2, 1, false},
	OpDivide:   {"OP_DIVIDE", 2, 1, false},
	OpNegate:   {"OP_NEGATE", 1, 1, false},

	// Comparison
	OpEqual:   {"OP_EQUAL", 2, 1, false},
	OpGreater: {"OP_GREATER", 2, 1, false},
	OpLess:    {"OP_LESS", 2, 1, false},

	// Logical
	OpNot: {"OP_NOT", 1, 1, false},

	// Return
	OpReturn: {"OP_RETURN", 1, 0, false},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsBinary returns true if this opcode pops two operands and pushes one.
func (op Opcode) IsBinary() bool {
	info := GetOpcodeInfo(op)
	return info.StackPop == 2 && info.StackPush == 1
}
