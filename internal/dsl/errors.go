package dsl

import (
	"fmt"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Error is a typed validation rejection. Line and Column are 1-based and
// zero when the failure has no source location (structural and Hard-No
// failures).
type Error struct {
	Code    model.ErrorCode
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at %d:%d: %s", e.Code, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errAt(code model.ErrorCode, line, col int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Line: line, Column: col}
}

func errNoLoc(code model.ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
