package macro

import (
	"errors"
	"fmt"
)

// ErrExpansionDivergence is returned when expansion does not reach a fixed
// point within the configured number of passes.
var ErrExpansionDivergence = errors.New("macro expansion exceeded max passes (possible infinite recursion)")

// TokenizeError reports an unterminated string, template or comment.
type TokenizeError struct {
	Offset int
	Msg    string
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// PatternCompileError reports a macro signature that cannot be compiled.
type PatternCompileError struct {
	Signature string
	Msg       string
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("invalid macro pattern %q: %s", e.Signature, e.Msg)
}

// MalformedBlockError reports a macro block that cannot be parsed into
// definitions. Err holds the underlying tokenize or compile error, if any.
type MalformedBlockError struct {
	Offset int
	Msg    string
	Err    error
}

func (e *MalformedBlockError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed macro block at offset %d: %s: %v", e.Offset, e.Msg, e.Err)
	}
	return fmt.Sprintf("malformed macro block at offset %d: %s", e.Offset, e.Msg)
}

func (e *MalformedBlockError) Unwrap() error { return e.Err }
