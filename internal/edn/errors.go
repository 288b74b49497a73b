package edn

import "fmt"

// SyntaxError reports a problem in notation source at a position.
type SyntaxError struct {
	Source  string
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}
