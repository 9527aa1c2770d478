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
	"math"
	"regexp"
	"strings"

	"github.com/Knetic/govaluate"
	"gonum.org/v1/gonum/floats"
)

// exprFunctions is the function library available to reaction and term
// expressions. Domain errors (log of a non-positive number, square root of a
// negative number) are reported as errors rather than evaluating to NaN.
var exprFunctions = map[string]govaluate.ExpressionFunction{
	"exp": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("got %d arguments for function 'exp', but need 1", len(args))
		}
		return math.Exp(args[0].(float64)), nil
	},
	"log": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("got %d arguments for function 'log', but need 1", len(args))
		}
		x := args[0].(float64)
		if x <= 0 {
			return nil, fmt.Errorf("log of non-positive number %g", x)
		}
		return math.Log(x), nil
	},
	"log10": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("got %d arguments for function 'log10', but need 1", len(args))
		}
		x := args[0].(float64)
		if x <= 0 {
			return nil, fmt.Errorf("log10 of non-positive number %g", x)
		}
		return math.Log10(x), nil
	},
	"sqrt": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("got %d arguments for function 'sqrt', but need 1", len(args))
		}
		x := args[0].(float64)
		if x < 0 {
			return nil, fmt.Errorf("sqrt of negative number %g", x)
		}
		return math.Sqrt(x), nil
	},
	"sgn": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("got %d arguments for function 'sgn', but need 1", len(args))
		}
		x := args[0].(float64)
		switch {
		case x > 0:
			return 1.0, nil
		case x < 0:
			return -1.0, nil
		default:
			return 0.0, nil
		}
	},
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("got %d arguments for function 'abs', but need 1", len(args))
		}
		return math.Abs(args[0].(float64)), nil
	},
	"min": func(args ...interface{}) (interface{}, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("got %d arguments for function 'min', but need at least 2", len(args))
		}
		m := args[0].(float64)
		for _, a := range args[1:] {
			m = math.Min(m, a.(float64))
		}
		return m, nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("got %d arguments for function 'max', but need at least 2", len(args))
		}
		m := args[0].(float64)
		for _, a := range args[1:] {
			m = math.Max(m, a.(float64))
		}
		return m, nil
	},
	"sum": func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("got no arguments for function 'sum', but need at least 1")
		}
		v := make([]float64, len(args))
		for i, a := range args {
			v[i] = a.(float64)
		}
		return floats.Sum(v), nil
	},
}

// identifiers matches the identifier tokens within an expression.
var identifiers = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// Expression is a compiled arithmetic expression. Evaluation is a pure
// function of the supplied state, so one Expression may be shared across
// time steps and network elements, including concurrently.
type Expression struct {
	source   string
	expanded string
	ev       *govaluate.EvaluableExpression

	// Constant values are bound at compile time; the caller never
	// supplies them.
	consts map[string]interface{}

	// vars lists the identifiers the caller must supply at evaluation
	// time: species concentrations, parameter values, and hydraulic
	// variables.
	vars []string
}

// Source returns the expression text as written in the project file.
func (e *Expression) Source() string { return e.source }

// Expanded returns the expression text after term substitution.
func (e *Expression) Expanded() string { return e.expanded }

// Vars returns the identifiers that must be present in the state passed to
// Eval.
func (e *Expression) Vars() []string {
	v := make([]string, len(e.vars))
	copy(v, e.vars)
	return v
}

func (e *Expression) String() string { return e.source }

// Eval evaluates the expression against the given state, which maps species,
// parameter, and hydraulic-variable names to their current values. Division
// by zero, function domain errors, and non-finite results are reported as
// an *EvaluationError, never silently returned as NaN or infinity.
func (e *Expression) Eval(state map[string]float64) (float64, error) {
	params := make(map[string]interface{}, len(e.consts)+len(state))
	for k, v := range e.consts {
		params[k] = v
	}
	for k, v := range state {
		params[k] = v
	}
	result, err := e.ev.Evaluate(params)
	if err != nil {
		return 0, &EvaluationError{Expression: e.source, Err: err}
	}
	v, ok := result.(float64)
	if !ok {
		return 0, &EvaluationError{Expression: e.source, Err: fmt.Errorf("non-numeric result %v", result)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &EvaluationError{Expression: e.source, Err: fmt.Errorf("result is %v", v)}
	}
	return v, nil
}

// EvalBatch evaluates the expression once per state, in order. This is the
// shape an external integrator consumes when stepping many pipe segments at
// once; each state must be an isolated snapshot.
func (e *Expression) EvalBatch(states []map[string]float64) ([]float64, error) {
	out := make([]float64, len(states))
	for i, s := range states {
		v, err := e.Eval(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// expandTermRefs substitutes every reference to a term with that term's
// (already fully expanded) expression, parenthesized. Expansion is
// idempotent: once no term names remain the text is a fixed point.
func expandTermRefs(expr string, terms map[string]string) string {
	return identifiers.ReplaceAllStringFunc(expr, func(id string) string {
		if sub, ok := terms[id]; ok {
			return "(" + sub + ")"
		}
		return id
	})
}

// expandTerms fully expands each term's expression against the other terms,
// detecting reference cycles. It returns the expanded expression for every
// term along with any cycle violations found.
func expandTerms(terms []Term) (map[string]string, []error) {
	src := make(map[string]string, len(terms))
	for _, t := range terms {
		src[t.Name] = t.Expression
	}

	const (
		unvisited = iota
		expanding
		done
	)
	state := make(map[string]int, len(terms))
	expanded := make(map[string]string, len(terms))
	var chain []string
	var errs []error

	var visit func(name string) string
	visit = func(name string) string {
		switch state[name] {
		case done:
			return expanded[name]
		case expanding:
			cycle := make([]string, 0, len(chain)+1)
			cycle = append(cycle, chain...)
			cycle = append(cycle, name)
			errs = append(errs, &CyclicTermError{Chain: cycle})
			return src[name] // break the recursion; construction fails anyway
		}
		state[name] = expanding
		chain = append(chain, name)
		out := identifiers.ReplaceAllStringFunc(src[name], func(id string) string {
			if _, ok := src[id]; ok {
				return "(" + visit(id) + ")"
			}
			return id
		})
		chain = chain[:len(chain)-1]
		state[name] = done
		expanded[name] = out
		return out
	}
	for _, t := range terms {
		visit(t.Name)
	}
	return expanded, errs
}

// rewritePower rewrites the '^' exponentiation operator used in project
// files to the evaluator's native power operator.
func rewritePower(expr string) string {
	return strings.Replace(expr, "^", "**", -1)
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]string)
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = val
		}
	}
	return result
}

// compileExpression compiles source into an Expression, expanding term
// references and resolving every identifier against the symbol table. All
// resolution violations are collected rather than stopping at the first;
// owner describes the expression in those violations. Constants are bound
// into the compiled expression so callers only supply species, parameter,
// and hydraulic values.
func compileExpression(source, owner string, st symbolTable, terms map[string]string, consts []Constant) (*Expression, []error) {
	expanded := expandTermRefs(source, terms)
	ev, err := govaluate.NewEvaluableExpressionWithFunctions(rewritePower(expanded), exprFunctions)
	if err != nil {
		return nil, []error{fmt.Errorf("msx: parsing %s: %v", owner, err)}
	}

	e := &Expression{
		source:   source,
		expanded: expanded,
		ev:       ev,
		consts:   make(map[string]interface{}),
	}
	var errs []error
	for _, v := range removeDuplicates(ev.Vars()) {
		sym, ok := st[v]
		if !ok {
			errs = append(errs, &UnresolvedIdentifierError{Identifier: v, Owner: owner})
			continue
		}
		switch sym.kind {
		case symConstant:
			e.consts[v] = consts[sym.index].Value
		case symTerm:
			// Terms were substituted away above; a surviving term
			// reference means the term itself failed to expand.
			errs = append(errs, &UnresolvedIdentifierError{Identifier: v, Owner: owner})
		default:
			e.vars = append(e.vars, v)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return e, nil
}
