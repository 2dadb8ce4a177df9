package compiler

import (
	"github.com/chazu/lox/pkg/loxerr"
)

// ---------------------------------------------------------------------------
// Parser state shared by every parse function of one compilation
// ---------------------------------------------------------------------------

type parser struct {
	scanner  *Scanner
	current  Token
	previous Token

	hadError  bool
	panicMode bool
	diags     []loxerr.Diagnostic
}

func newParser(source string) *parser {
	return &parser{scanner: NewScanner(source)}
}

// advance moves to the next non-error token, reporting each error token
// the scanner produces along the way.
func (p *parser) advance() {
	p.previous = p.current

	for {
		p.current = p.scanner.ScanToken()
		if p.current.Type != TokenError {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

// consume advances if the current token has type t, otherwise reports
// message at the current token.
func (p *parser) consume(t TokenType, message string) {
	if p.current.Type == t {
		p.panicMode = false
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) errorAtCurrent(message string) {
	p.errorAt(p.current, message)
}

func (p *parser) error(message string) {
	p.errorAt(p.previous, message)
}

// errorAt records a diagnostic unless the parser is already panicking.
func (p *parser) errorAt(tok Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	d := loxerr.Diagnostic{Line: tok.Line, Message: message}
	switch tok.Type {
	case TokenEOF:
		d.AtEnd = true
	case TokenError:
		// The message is the scanner's; there is no lexeme to point at.
	default:
		d.Lexeme = tok.Lexeme
	}
	p.diags = append(p.diags, d)
	log.Debugf("%s", d)
}
