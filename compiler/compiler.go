// Package compiler turns Lox source text into a bytecode chunk in a single
// pass. A Pratt parser pulls tokens from the Scanner and emits instructions
// as each production is recognized; no syntax tree is built.
package compiler

import (
	"strconv"

	"github.com/tliron/commonlog"

	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/loxerr"
)

var log = commonlog.GetLogger("lox.compiler")

// Compile compiles source into chunk. The chunk always ends up structurally
// complete, terminated by OpReturn, but when any diagnostic was reported
// Compile returns a *loxerr.Error of kind KindCompile and the chunk must
// not be run.
func Compile(source string, chunk *bytecode.Chunk) error {
	c := &compilation{parser: newParser(source), chunk: chunk}

	c.advance()
	c.expression()
	c.consume(TokenEOF, "Expect end of expression.")
	c.emit(bytecode.OpReturn)

	if c.hadError {
		return loxerr.NewCompile(c.diags)
	}
	return nil
}

// CompileSource is a convenience wrapper that allocates the chunk.
func CompileSource(source string) (*bytecode.Chunk, error) {
	chunk := bytecode.NewChunk()
	if err := Compile(source, chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

// compilation ties the parser state to the chunk being written.
type compilation struct {
	*parser
	chunk *bytecode.Chunk
}

// emit appends op tagged with the line of the last consumed token.
func (c *compilation) emit(ops ...bytecode.Opcode) {
	for _, op := range ops {
		c.chunk.WriteOpcode(op, c.previous.Line)
	}
}

func (c *compilation) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence parses any expression whose operators bind at least as
// tightly as min.
func (c *compilation) parsePrecedence(min Precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == fnNone {
		// Reported at the token just consumed, the one with no prefix rule.
		c.error("Expect expression.")
		return
	}
	c.dispatch(prefix)

	for min <= getRule(c.current.Type).precedence {
		c.advance()
		c.dispatch(getRule(c.previous.Type).infix)
	}
}

func (c *compilation) dispatch(fn parseFn) {
	switch fn {
	case fnGrouping:
		c.grouping()
	case fnUnary:
		c.unary()
	case fnBinary:
		c.binary()
	case fnNumber:
		c.number()
	case fnLiteral:
		c.literal()
	}
}

func (c *compilation) grouping() {
	c.expression()
	c.consume(TokenRightParen, "Expect ')' after expression.")
}

func (c *compilation) number() {
	value, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number.")
		return
	}
	c.chunk.WriteConstant(bytecode.Number(value), c.previous.Line)
}

func (c *compilation) literal() {
	switch c.previous.Type {
	case TokenFalse:
		c.emit(bytecode.OpFalse)
	case TokenTrue:
		c.emit(bytecode.OpTrue)
	case TokenNil:
		c.emit(bytecode.OpNil)
	}
}

// unary compiles the operand first so the operator runs on its result.
func (c *compilation) unary() {
	op := c.previous
	c.parsePrecedence(PrecUnary)

	switch op.Type {
	case TokenMinus:
		c.chunk.WriteOpcode(bytecode.OpNegate, op.Line)
	case TokenBang:
		c.chunk.WriteOpcode(bytecode.OpNot, op.Line)
	}
}

// binary compiles the right operand one level tighter than the operator,
// which makes every binary operator left-associative.
func (c *compilation) binary() {
	op := c.previous
	c.parsePrecedence(getRule(op.Type).precedence.next())

	var ops []bytecode.Opcode
	switch op.Type {
	case TokenPlus:
		ops = []bytecode.Opcode{bytecode.OpAdd}
	case TokenMinus:
		ops = []bytecode.Opcode{bytecode.OpSubtract}
	case TokenStar:
		ops = []bytecode.Opcode{bytecode.OpMultiply}
	case TokenSlash:
		ops = []bytecode.Opcode{bytecode.OpDivide}
	case TokenEqualEqual:
		ops = []bytecode.Opcode{bytecode.OpEqual}
	case TokenBangEqual:
		ops = []bytecode.Opcode{bytecode.OpEqual, bytecode.OpNot}
	case TokenGreater:
		ops = []bytecode.Opcode{bytecode.OpGreater}
	case TokenGreaterEqual:
		ops = []bytecode.Opcode{bytecode.OpLess, bytecode.OpNot}
	case TokenLess:
		ops = []bytecode.Opcode{bytecode.OpLess}
	case TokenLessEqual:
		ops = []bytecode.Opcode{bytecode.OpGreater, bytecode.OpNot}
	}
	for _, o := range ops {
		c.chunk.WriteOpcode(o, op.Line)
	}
}
