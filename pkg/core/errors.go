package core

import (
	"errors"
	"fmt"
)

// ErrDomain is matched by every DomainError.
var ErrDomain = errors.New("value outside of domain")

// DomainError reports a grid cell or parameter for which a derived value is undefined.
// Row and Col are -1 when the error does not refer to a single cell.
type DomainError struct {
	Op     string
	Row    int
	Col    int
	Value  float64
	Reason string
}

func (e *DomainError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	if e.Col < 0 {
		return fmt.Sprintf("%s: row %d: %s", e.Op, e.Row, e.Reason)
	}
	return fmt.Sprintf("%s: cell [%d][%d]=%v: %s", e.Op, e.Row, e.Col, e.Value, e.Reason)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}
