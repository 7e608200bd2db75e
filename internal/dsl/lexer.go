package dsl

import (
	"strings"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// block is one parsed top-level declaration: NAME(arg, arg, ...).
type block struct {
	name string
	args []string
	line int
	col  int
}

// scanner walks the statement rune by rune, tracking 1-based line and
// column for error reporting.
type scanner struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newScanner(text string) *scanner {
	return &scanner{src: []rune(text), line: 1, col: 1}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() rune {
	return s.src[s.pos]
}

func (s *scanner) advance() rune {
	r := s.src[s.pos]
	s.pos++
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

// skipSpace consumes spaces and tabs, and newlines too when betweenBlocks
// is set. Newlines inside a block are a syntax error, caught by the caller.
func (s *scanner) skipSpace(betweenBlocks bool) {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.advance()
		case '\n':
			if !betweenBlocks {
				return
			}
			s.advance()
		default:
			return
		}
	}
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}

func isBlockNameRune(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// isValueRune is the statement value character set: letters, digits,
// underscore, dash, plus dot, slash, and colon so identifiers can name
// paths and URIs. Dot, slash, and colon are legal in identifiers only; the
// action check rejects them. Comma is handled by the argument splitter so
// that multi-scope values survive lexing and are rejected as
// AMBIGUOUS_SCOPE rather than as a syntax error.
func isValueRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '/' || r == '.' || r == ':':
		return true
	}
	return false
}

// scanBlocks lexes the full statement into its top-level blocks.
func scanBlocks(text string) ([]block, *Error) {
	s := newScanner(text)
	var blocks []block

	s.skipSpace(true)
	if s.eof() {
		return nil, errNoLoc(model.CodeSyntaxError, "empty statement")
	}

	for !s.eof() {
		blkLine, blkCol := s.line, s.col

		if !isBlockNameRune(s.peek()) {
			return nil, errAt(model.CodeSyntaxError, s.line, s.col, "expected block name, found %q", s.peek())
		}
		var name strings.Builder
		for !s.eof() && isBlockNameRune(s.peek()) {
			name.WriteRune(s.advance())
		}

		s.skipSpace(false)
		if s.eof() || s.peek() != '(' {
			return nil, errAt(model.CodeSyntaxError, s.line, s.col, "expected '(' after %s", name.String())
		}
		s.advance()

		args, lerr := s.scanArgs(name.String())
		if lerr != nil {
			return nil, lerr
		}

		blocks = append(blocks, block{name: name.String(), args: args, line: blkLine, col: blkCol})
		s.skipSpace(true)
	}

	return blocks, nil
}

// scanArgs consumes a comma-separated argument list up to the closing
// paren. Empty arguments are preserved as empty strings so the structural
// pass can report MISSING_REQUIRED_FIELD instead of a bare syntax error.
func (s *scanner) scanArgs(blockName string) ([]string, *Error) {
	var args []string
	var cur strings.Builder

	for {
		if s.eof() {
			return nil, errAt(model.CodeSyntaxError, s.line, s.col, "unterminated %s block", blockName)
		}
		switch r := s.peek(); {
		case r == ')':
			s.advance()
			args = append(args, cur.String())
			return args, nil
		case r == ',':
			s.advance()
			args = append(args, cur.String())
			cur.Reset()
		case r == ' ' || r == '\t' || r == '\r':
			s.advance()
		case r == '\n':
			return nil, errAt(model.CodeSyntaxError, s.line, s.col, "newline inside %s block", blockName)
		case isValueRune(r):
			if cur.Len() > 0 && s.pos > 0 && isBlank(s.src[s.pos-1]) {
				return nil, errAt(model.CodeSyntaxError, s.line, s.col, "whitespace inside value in %s block", blockName)
			}
			cur.WriteRune(s.advance())
		default:
			return nil, errAt(model.CodeSyntaxError, s.line, s.col, "illegal character %q in %s block", r, blockName)
		}
	}
}
