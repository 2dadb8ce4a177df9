// Package bytecode defines the compiled form of Lox expressions: opcodes,
// the Value type they operate on, and the Chunk container the compiler
// writes and the VM reads.
//
// # Chunk layout
//
// A Chunk holds three append-only sequences:
//
//   - Code: decoded instructions, one Instruction per operation
//   - Lines: the source line of each instruction, index-aligned with Code
//   - Constants: the literal pool indexed by OpConstant operands
//
// The only way to add a constant is WriteConstant, which appends to the
// pool and emits the referencing instruction in one step, so a compiled
// chunk can never hold a dangling constant index.
//
// # Values
//
// The value domain is nil, booleans, and float64 numbers. Values are
// plain comparable structs; there are no heap objects.
//
// # Images
//
// MarshalChunk and UnmarshalChunk encode a chunk as canonical CBOR with an
// "LOXC" magic. ChunkStore caches chunks by the xxhash64 of their source.
package bytecode
