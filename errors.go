/*
Copyright © 2024 the MSX authors.
This file is part of MSX.

MSX is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

MSX is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with MSX.  If not, see <http://www.gnu.org/licenses/>.
*/

package msx

import (
	"fmt"
	"strings"
)

// SchemaError is returned when a project file is malformed or is missing a
// required field. No partial model is returned alongside it.
type SchemaError struct {
	Field string // the offending field, if known
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("msx: invalid project file: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("msx: invalid project file: %v", e.Err)
}

// DuplicateDefinitionError is returned when two declarations share one name.
// Species, constants, parameters, terms, and the built-in hydraulic variables
// all live in a single namespace.
type DuplicateDefinitionError struct {
	Name  string
	Kind  string // kind of the rejected declaration
	Prior string // kind of the declaration that got there first
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("msx: duplicate definition of %q: %s already declared as %s",
		e.Name, e.Kind, e.Prior)
}

// UnresolvedIdentifierError is returned when an expression references an
// identifier with no matching declaration. Owner describes the expression
// the identifier appears in.
type UnresolvedIdentifierError struct {
	Identifier string
	Owner      string
}

func (e *UnresolvedIdentifierError) Error() string {
	return fmt.Sprintf("msx: unresolved identifier %q in %s", e.Identifier, e.Owner)
}

// CyclicTermError is returned when term definitions form a reference cycle.
// Chain lists the term names along the cycle, ending with a repeat of the
// first name.
type CyclicTermError struct {
	Chain []string
}

func (e *CyclicTermError) Error() string {
	return fmt.Sprintf("msx: cyclic term definition: %s", strings.Join(e.Chain, " -> "))
}

// EvaluationError is returned when evaluating a compiled expression fails,
// for example on division by zero or a transcendental-function domain error.
// It is always surfaced to the caller rather than replaced with NaN.
type EvaluationError struct {
	Expression string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("msx: evaluating %q: %v", e.Expression, e.Err)
}

// ValidationError aggregates every violation found while constructing a
// model, so that a configuration author can fix all problems in one pass.
type ValidationError struct {
	Violations []error
}

func (e *ValidationError) Error() string {
	s := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		s[i] = v.Error()
	}
	return fmt.Sprintf("msx: %d validation problem(s):\n%s", len(e.Violations), strings.Join(s, "\n"))
}

// appendViolations flattens err into dst. A nil err adds nothing and a
// *ValidationError contributes its individual violations.
func appendViolations(dst []error, err error) []error {
	if err == nil {
		return dst
	}
	if v, ok := err.(*ValidationError); ok {
		return append(dst, v.Violations...)
	}
	return append(dst, err)
}
