package ptd

import "fmt"

// ParseError is returned when an export cannot be read or one of its
// recognized fields holds a malformed value. A corrupt record cannot be
// trusted downstream, so the whole parse fails - there is no per-line
// recovery.
type ParseError struct {
	Line int // 1-based, 0 when the input itself is unreadable
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("ptd: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("ptd: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
