package compiler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/loxerr"
)

// ops returns the opcodes of a chunk in order.
func ops(c *bytecode.Chunk) []bytecode.Opcode {
	out := make([]bytecode.Opcode, len(c.Code))
	for i, in := range c.Code {
		out[i] = in.Op
	}
	return out
}

func mustCompile(t *testing.T, source string) *bytecode.Chunk {
	t.Helper()
	chunk, err := CompileSource(source)
	if err != nil {
		t.Fatalf("CompileSource(%q): %v", source, err)
	}
	return chunk
}

func compileErr(t *testing.T, source string) *loxerr.Error {
	t.Helper()
	err := Compile(source, bytecode.NewChunk())
	if err == nil {
		t.Fatalf("Compile(%q) succeeded, want error", source)
	}
	var lerr *loxerr.Error
	if !errors.As(err, &lerr) {
		t.Fatalf("Compile(%q) error %T is not *loxerr.Error", source, err)
	}
	if lerr.Kind != loxerr.KindCompile {
		t.Fatalf("Kind = %v, want compile", lerr.Kind)
	}
	return lerr
}

func TestCompileAddition(t *testing.T) {
	chunk := mustCompile(t, "1 + 2")

	want := []bytecode.Instruction{
		{Op: bytecode.OpConstant, Operand: 0},
		{Op: bytecode.OpConstant, Operand: 1},
		{Op: bytecode.OpAdd},
		{Op: bytecode.OpReturn},
	}
	if diff := cmp.Diff(want, chunk.Code); diff != "" {
		t.Errorf("code mismatch (-want +got):\n%s", diff)
	}
	if !chunk.Constants[0].Equal(bytecode.Number(1)) || !chunk.Constants[1].Equal(bytecode.Number(2)) {
		t.Errorf("constants = %v", chunk.Constants)
	}
}

func TestCompilePrecedence(t *testing.T) {
	C, A, S, M, D := bytecode.OpConstant, bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide
	N, R := bytecode.OpNegate, bytecode.OpReturn

	tests := []struct {
		source string
		want   []bytecode.Opcode
	}{
		{"1", []bytecode.Opcode{C, R}},
		{"(1 + 2) * 3", []bytecode.Opcode{C, C, A, C, M, R}},
		{"1 + 2 * 3", []bytecode.Opcode{C, C, C, M, A, R}},
		{"2 - 3 * 4", []bytecode.Opcode{C, C, C, M, S, R}},
		// Left associative: (1 - 2) - 3
		{"1 - 2 - 3", []bytecode.Opcode{C, C, S, C, S, R}},
		{"8 / 4 / 2", []bytecode.Opcode{C, C, D, C, D, R}},
		{"-1", []bytecode.Opcode{C, N, R}},
		{"--1", []bytecode.Opcode{C, N, N, R}},
		// Unary binds tighter than multiplication.
		{"-2 * 3", []bytecode.Opcode{C, N, C, M, R}},
		{"((1))", []bytecode.Opcode{C, R}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			chunk := mustCompile(t, tt.source)
			if diff := cmp.Diff(tt.want, ops(chunk)); diff != "" {
				t.Errorf("ops mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileComparisonAndLiterals(t *testing.T) {
	C, R := bytecode.OpConstant, bytecode.OpReturn
	T, F, Nl := bytecode.OpTrue, bytecode.OpFalse, bytecode.OpNil
	Eq, Not, Gt, Lt := bytecode.OpEqual, bytecode.OpNot, bytecode.OpGreater, bytecode.OpLess

	tests := []struct {
		source string
		want   []bytecode.Opcode
	}{
		{"true", []bytecode.Opcode{T, R}},
		{"false", []bytecode.Opcode{F, R}},
		{"nil", []bytecode.Opcode{Nl, R}},
		{"!true", []bytecode.Opcode{T, Not, R}},
		{"1 == 2", []bytecode.Opcode{C, C, Eq, R}},
		{"1 != 2", []bytecode.Opcode{C, C, Eq, Not, R}},
		{"1 > 2", []bytecode.Opcode{C, C, Gt, R}},
		{"1 >= 2", []bytecode.Opcode{C, C, Lt, Not, R}},
		{"1 < 2", []bytecode.Opcode{C, C, Lt, R}},
		{"1 <= 2", []bytecode.Opcode{C, C, Gt, Not, R}},
		// Comparison binds tighter than equality.
		{"1 < 2 == true", []bytecode.Opcode{C, C, Lt, T, Eq, R}},
		{"!nil == false", []bytecode.Opcode{Nl, Not, F, Eq, R}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			chunk := mustCompile(t, tt.source)
			if diff := cmp.Diff(tt.want, ops(chunk)); diff != "" {
				t.Errorf("ops mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileLines(t *testing.T) {
	chunk := mustCompile(t, "1 +\n2")

	// Constants take their literal's line, the operator its own line, and
	// the trailing return the line of the last token.
	want := []int{1, 2, 1, 2}
	if diff := cmp.Diff(want, chunk.Lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileChunkInvariants(t *testing.T) {
	sources := []string{
		"1",
		"(1 + 2) * 3 - -4 / 5",
		"1 + 1 + 1 + 1 + 1 + 1 + 1 + 1",
		"!(1 < 2) == (nil != false)",
	}
	for _, src := range sources {
		chunk := mustCompile(t, src)
		if len(chunk.Code) != len(chunk.Lines) {
			t.Errorf("%q: %d instructions but %d lines", src, len(chunk.Code), len(chunk.Lines))
		}
		if last := chunk.Code[len(chunk.Code)-1]; last.Op != bytecode.OpReturn {
			t.Errorf("%q: last instruction = %v, want OP_RETURN", src, last)
		}
		if err := chunk.Validate(); err != nil {
			t.Errorf("%q: %v", src, err)
		}
	}
}

func TestCompileNoConstantDedup(t *testing.T) {
	chunk := mustCompile(t, "1 + 1")
	if chunk.ConstantCount() != 2 {
		t.Errorf("ConstantCount() = %d, want 2", chunk.ConstantCount())
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		source string
		want   []string
	}{
		{"1 +", []string{"[line 1] Error at end: Expect expression."}},
		{"", []string{"[line 1] Error at end: Expect expression."}},
		{")", []string{"[line 1] Error at ')': Expect expression."}},
		{"(1", []string{"[line 1] Error at end: Expect ')' after expression."}},
		{"1 2", []string{"[line 1] Error at '2': Expect end of expression."}},
		{"@", []string{"[line 1] Error: Unexpected character."}},
		{"\"abc", []string{"[line 1] Error: Unterminated string."}},
		{"1 +\n\n*", []string{"[line 3] Error at '*': Expect expression."}},
		// Unsupported productions fall through to the expression rule.
		{"x", []string{"[line 1] Error at 'x': Expect expression."}},
		{"\"s\"", []string{"[line 1] Error at '\"s\"': Expect expression."}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			lerr := compileErr(t, tt.source)
			got := make([]string, len(lerr.Diagnostics))
			for i, d := range lerr.Diagnostics {
				got[i] = d.String()
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompilePanicModeCoalesces(t *testing.T) {
	// Every token after the first error is garbage; only one report.
	lerr := compileErr(t, "@ @ # $")
	if len(lerr.Diagnostics) != 1 {
		t.Errorf("got %d diagnostics, want 1: %v", len(lerr.Diagnostics), lerr.Diagnostics)
	}
}

func TestCompileErrorStillTerminatesChunk(t *testing.T) {
	chunk := bytecode.NewChunk()
	if err := Compile("1 +", chunk); err == nil {
		t.Fatal("expected error")
	}
	if chunk.Len() == 0 || chunk.Code[chunk.Len()-1].Op != bytecode.OpReturn {
		t.Errorf("chunk not terminated: %v", chunk.Code)
	}
	if len(chunk.Code) != len(chunk.Lines) {
		t.Error("code/lines misaligned after error")
	}
}

func TestCompileSourceReturnsNilOnError(t *testing.T) {
	chunk, err := CompileSource("(")
	if err == nil || chunk != nil {
		t.Errorf("CompileSource = %v, %v; want nil chunk and error", chunk, err)
	}
	if !loxerr.IsCompile(err) {
		t.Errorf("error kind = %v", loxerr.KindOf(err))
	}
}

func TestCompileIndependentCalls(t *testing.T) {
	// Parser state must not leak between compilations.
	if _, err := CompileSource("1 +"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := CompileSource("1 + 2"); err != nil {
		t.Errorf("second compile failed: %v", err)
	}
}

func TestPrecedenceNextSaturates(t *testing.T) {
	if PrecTerm.next() != PrecFactor {
		t.Errorf("PrecTerm.next() = %v", PrecTerm.next())
	}
	if PrecPrimary.next() != PrecPrimary {
		t.Errorf("PrecPrimary.next() = %v", PrecPrimary.next())
	}
}
