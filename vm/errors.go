package vm

import "fmt"

// RuntimeError is a single VM invariant violation (spec.md §4.5/§7:
// "stack underflow, type mismatch, division by zero ..., bad jump
// target, unknown function, wrong arity"). Grounded on
// informatter-nilan/vm/errors.go's RuntimeError{Message} shape, kept
// as its own small struct the way every teacher phase-error type is,
// per SPEC_FULL.md's ambient-stack note on per-phase error structs.
type RuntimeError struct {
	Message string
	Line    int
	Col     int
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %s", e.Message)
}
