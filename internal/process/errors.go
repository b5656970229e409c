package process

import (
	"fmt"
	"strings"
)

// UndefinedProcessError reports a lookup for a process ID that was
// never defined in the collection. It is deliberately distinct from a
// generic key error so callers can diagnose configuration mistakes.
type UndefinedProcessError struct {
	ID string
}

func (e *UndefinedProcessError) Error() string {
	return fmt.Sprintf("undefined process %q", e.ID)
}

// DuplicateProcessError reports an append of an already-present ID.
type DuplicateProcessError struct {
	ID string
}

func (e *DuplicateProcessError) Error() string {
	return fmt.Sprintf("process %q already defined in collection", e.ID)
}

// ReadOnlyError reports an attempted mutation of a compiled
// collection. The documented mutation path is to build a new Processes
// collection and recompile.
type ReadOnlyError struct {
	Op string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("cannot %s a compiled (read-only) process collection; build a new Processes and recompile", e.Op)
}

// ConservationViolation is one unconserved quantity with its signed
// residual: positive means the quantity is created by the reaction,
// negative means destroyed.
type ConservationViolation struct {
	Quantity string
	Residual float64
}

// ConservationError reports a numeric stoichiometric vector failing
// the conservation check beyond tolerance.
type ConservationError struct {
	ProcessID  string
	Violations []ConservationViolation
}

func (e *ConservationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %.6g", v.Quantity, v.Residual)
	}
	return fmt.Sprintf("process %q does not conserve the following quantities "+
		"(positive residual = created, negative = destroyed): %s",
		e.ProcessID, strings.Join(parts, ", "))
}

// SymbolicStoichiometryError reports an operation that requires a
// fully numeric coefficient vector.
type SymbolicStoichiometryError struct {
	ProcessID string
	Op        string
}

func (e *SymbolicStoichiometryError) Error() string {
	return fmt.Sprintf("cannot %s for process %q: stoichiometric coefficients are symbolic", e.Op, e.ProcessID)
}
