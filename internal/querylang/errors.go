package querylang

import "fmt"

// SyntaxError is the one error kind the translator produces. It carries a
// human-readable message describing the offending token or construct.
type SyntaxError struct {
	Message string
}

func (e *SyntaxError) Error() string {
	return e.Message
}

func syntaxErrorf(format string, args ...interface{}) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...)}
}
