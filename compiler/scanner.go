package compiler

// ---------------------------------------------------------------------------
// Scanner: on-demand tokenizer for Lox source
// ---------------------------------------------------------------------------

// Scanner produces tokens one at a time from an immutable source string.
// Once the end of input is reached every further call returns TokenEOF.
type Scanner struct {
	source  string
	start   int // offset of the first byte of the token being scanned
	current int // offset of the next byte to read
	line    int // current line (1-based)
}

// NewScanner creates a scanner positioned at the start of source.
func NewScanner(source string) *Scanner {
	return &Scanner{source: source, line: 1}
}

// ScanToken returns the next token.
func (s *Scanner) ScanToken() Token {
	s.skipWhitespace()
	s.start = s.current

	if s.isAtEnd() {
		return s.makeToken(TokenEOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.makeToken(TokenLeftParen)
	case ')':
		return s.makeToken(TokenRightParen)
	case '{':
		return s.makeToken(TokenLeftBrace)
	case '}':
		return s.makeToken(TokenRightBrace)
	case ';':
		return s.makeToken(TokenSemicolon)
	case ',':
		return s.makeToken(TokenComma)
	case '.':
		return s.makeToken(TokenDot)
	case '-':
		return s.makeToken(TokenMinus)
	case '+':
		return s.makeToken(TokenPlus)
	case '/':
		return s.makeToken(TokenSlash)
	case '*':
		return s.makeToken(TokenStar)
	case '!':
		return s.makeToken(s.pick('=', TokenBangEqual, TokenBang))
	case '=':
		return s.makeToken(s.pick('=', TokenEqualEqual, TokenEqual))
	case '<':
		return s.makeToken(s.pick('=', TokenLessEqual, TokenLess))
	case '>':
		return s.makeToken(s.pick('=', TokenGreaterEqual, TokenGreater))
	case '"':
		return s.string()
	}

	return s.errorToken("Unexpected character.")
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

// peek returns the current byte without consuming it, or 0 at end.
func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.current]
}

// peekNext returns the byte after the current one, or 0 past the end.
func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

// match consumes the current byte if it equals expected.
func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	return true
}

// pick returns two if the next byte is expected (consuming it), else one.
func (s *Scanner) pick(expected byte, two, one TokenType) TokenType {
	if s.match(expected) {
		return two
	}
	return one
}

func (s *Scanner) makeToken(t TokenType) Token {
	return Token{
		Type:   t,
		Lexeme: s.source[s.start:s.current],
		Line:   s.line,
	}
}

func (s *Scanner) errorToken(message string) Token {
	return Token{Type: TokenError, Lexeme: message, Line: s.line}
}

// skipWhitespace consumes blanks, newlines and line comments. A comment
// stops before its newline so the newline is still counted.
func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() != '/' {
				return
			}
			for s.peek() != '\n' && !s.isAtEnd() {
				s.current++
			}
		default:
			return
		}
	}
}

func (s *Scanner) string() Token {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}

	if s.isAtEnd() {
		return s.errorToken("Unterminated string.")
	}

	// The closing quote.
	s.current++
	return s.makeToken(TokenString)
}

func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.current++
	}

	// A fractional part needs at least one digit after the dot.
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++
		for isDigit(s.peek()) {
			s.current++
		}
	}

	return s.makeToken(TokenNumber)
}

func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	return s.makeToken(s.identifierType())
}

// identifierType classifies the current lexeme by its first byte, then
// confirms a keyword by exact length and suffix.
func (s *Scanner) identifierType() TokenType {
	lexeme := s.source[s.start:s.current]
	switch lexeme[0] {
	case 'a':
		return checkKeyword(lexeme, 1, "nd", TokenAnd)
	case 'c':
		return checkKeyword(lexeme, 1, "lass", TokenClass)
	case 'e':
		return checkKeyword(lexeme, 1, "lse", TokenElse)
	case 'f':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'a':
				return checkKeyword(lexeme, 2, "lse", TokenFalse)
			case 'o':
				return checkKeyword(lexeme, 2, "r", TokenFor)
			case 'u':
				return checkKeyword(lexeme, 2, "n", TokenFun)
			}
		}
	case 'i':
		return checkKeyword(lexeme, 1, "f", TokenIf)
	case 'n':
		return checkKeyword(lexeme, 1, "il", TokenNil)
	case 'o':
		return checkKeyword(lexeme, 1, "r", TokenOr)
	case 'p':
		return checkKeyword(lexeme, 1, "rint", TokenPrint)
	case 'r':
		return checkKeyword(lexeme, 1, "eturn", TokenReturn)
	case 's':
		return checkKeyword(lexeme, 1, "uper", TokenSuper)
	case 't':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'h':
				return checkKeyword(lexeme, 2, "is", TokenThis)
			case 'r':
				return checkKeyword(lexeme, 2, "ue", TokenTrue)
			}
		}
	case 'v':
		return checkKeyword(lexeme, 1, "ar", TokenVar)
	case 'w':
		return checkKeyword(lexeme, 1, "hile", TokenWhile)
	}
	return TokenIdentifier
}

func checkKeyword(lexeme string, start int, rest string, t TokenType) TokenType {
	if len(lexeme) == start+len(rest) && lexeme[start:] == rest {
		return t
	}
	return TokenIdentifier
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
