package compiler

// Precedence orders binding strength from loosest to tightest.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

// next returns the next tighter level. Primary is its own successor.
func (p Precedence) next() Precedence {
	if p >= PrecPrimary {
		return PrecPrimary
	}
	return p + 1
}

// parseFn names one of the closed set of parse actions a rule can dispatch to.
type parseFn int

const (
	fnNone parseFn = iota
	fnGrouping
	fnUnary
	fnBinary
	fnNumber
	fnLiteral
)

// parseRule is one row of the Pratt table.
type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// getRule returns the parse rule for a token type. Types without a row
// have no prefix, no infix, and PrecNone.
func getRule(t TokenType) parseRule {
	switch t {
	case TokenLeftParen:
		return parseRule{fnGrouping, fnNone, PrecNone}
	case TokenMinus:
		return parseRule{fnUnary, fnBinary, PrecTerm}
	case TokenPlus:
		return parseRule{fnNone, fnBinary, PrecTerm}
	case TokenSlash, TokenStar:
		return parseRule{fnNone, fnBinary, PrecFactor}
	case TokenNumber:
		return parseRule{fnNumber, fnNone, PrecNone}
	case TokenBang:
		return parseRule{fnUnary, fnNone, PrecNone}
	case TokenBangEqual, TokenEqualEqual:
		return parseRule{fnNone, fnBinary, PrecEquality}
	case TokenGreater, TokenGreaterEqual, TokenLess, TokenLessEqual:
		return parseRule{fnNone, fnBinary, PrecComparison}
	case TokenFalse, TokenTrue, TokenNil:
		return parseRule{fnLiteral, fnNone, PrecNone}
	default:
		return parseRule{fnNone, fnNone, PrecNone}
	}
}
