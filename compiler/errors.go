package compiler

import "fmt"

// CompileError is a single scan or parse error, reported against the
// offending token's line and lexeme per SPEC_FULL.md / the upstream
// spec's error-handling design (section 7).
type CompileError struct {
	Line    int
	Where   string
	Message string
}

func (e *CompileError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", e.Line, e.Where, e.Message)
}
