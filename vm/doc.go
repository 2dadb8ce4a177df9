// Package vm implements the stack machine that executes compiled Lox
// chunks, and the Interpret entry point that compiles and runs source text.
//
// Execution is a linear scan of the chunk: the instruction set has no jumps.
// Each instruction pops its operands from the stack and pushes its result;
// OpReturn pops the final value and ends the run. Faults (stack underflow,
// operand type mismatch) halt the run immediately and are reported as
// *loxerr.Error values of kind KindRuntime.
package vm
