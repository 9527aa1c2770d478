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
	"regexp"
)

// SpeciesType classifies where a chemical species lives.
type SpeciesType string

const (
	// Bulk species are dissolved in the water column and transported by
	// bulk flow.
	Bulk SpeciesType = "bulk"

	// Wall species are attached to the pipe's internal wall surface; they
	// are only locally produced and consumed, never transported.
	Wall SpeciesType = "wall"
)

// Species declares one chemical species. Species are declared once at
// model-build time and are immutable thereafter.
type Species struct {
	Name  string      `json:"name"`
	Type  SpeciesType `json:"species_type"`
	Units string      `json:"units"` // mass units; documentary only

	// Atol and Rtol override the global solver tolerances for this
	// species when set.
	Atol *float64 `json:"atol"`
	Rtol *float64 `json:"rtol"`

	Note string `json:"note,omitempty"`
}

// Constant declares a named numeric constant. Units are carried for
// documentation and consistency checking only; no automatic conversion
// is performed.
type Constant struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Units string  `json:"units,omitempty"`
	Note  string  `json:"note,omitempty"`
}

// Parameter declares a coefficient that may vary per pipe or per tank.
// GlobalValue applies wherever network_data provides no element-level
// override.
type Parameter struct {
	Name        string  `json:"name"`
	GlobalValue float64 `json:"global_value"`
	Units       string  `json:"units,omitempty"`
	Note        string  `json:"note,omitempty"`
}

// Term declares a named sub-expression that other expressions may reference.
// Terms are expanded in place at compile time; they are macros, not state.
type Term struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Note       string `json:"note,omitempty"`
}

// HydraulicVariables are the built-in identifiers whose values the external
// hydraulic solver supplies at evaluation time: pipe surface-to-volume ratio,
// diameter, flow rate, velocity, Reynolds number, shear velocity, friction
// factor, and pipe length.
var HydraulicVariables = []string{"Av", "D", "Q", "U", "Re", "Us", "Ff", "Len"}

type symbolKind int

const (
	symSpecies symbolKind = iota
	symConstant
	symParameter
	symTerm
	symHydraulic
)

func (k symbolKind) String() string {
	switch k {
	case symSpecies:
		return "species"
	case symConstant:
		return "constant"
	case symParameter:
		return "parameter"
	case symTerm:
		return "term"
	case symHydraulic:
		return "hydraulic variable"
	default:
		return "unknown"
	}
}

// symbol is a handle into the model's declaration lists.
type symbol struct {
	kind  symbolKind
	index int // position within the declaration list for its kind
}

// symbolTable resolves an identifier to its declaration in O(1).
type symbolTable map[string]symbol

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// add records one declaration, reporting a name-validity or duplicate
// violation if there is one.
func (st symbolTable) add(name string, kind symbolKind, index int) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("msx: invalid %s name %q", kind, name)
	}
	if _, ok := exprFunctions[name]; ok {
		return fmt.Errorf("msx: %s name %q conflicts with a built-in function", kind, name)
	}
	if prior, ok := st[name]; ok {
		return &DuplicateDefinitionError{Name: name, Kind: kind.String(), Prior: prior.kind.String()}
	}
	st[name] = symbol{kind: kind, index: index}
	return nil
}

// buildSymbolTable resolves every declaration in sys into a single shared
// namespace, pre-seeded with the built-in hydraulic variables. All
// violations are collected rather than stopping at the first.
func buildSymbolTable(sys *ReactionSystem) (symbolTable, []error) {
	st := make(symbolTable,
		len(HydraulicVariables)+len(sys.Species)+len(sys.Constants)+len(sys.Parameters)+len(sys.Terms))
	for i, name := range HydraulicVariables {
		st[name] = symbol{kind: symHydraulic, index: i}
	}
	var errs []error
	for i, s := range sys.Species {
		if err := st.add(s.Name, symSpecies, i); err != nil {
			errs = append(errs, err)
		}
	}
	for i, c := range sys.Constants {
		if err := st.add(c.Name, symConstant, i); err != nil {
			errs = append(errs, err)
		}
	}
	for i, p := range sys.Parameters {
		if err := st.add(p.Name, symParameter, i); err != nil {
			errs = append(errs, err)
		}
	}
	for i, t := range sys.Terms {
		if err := st.add(t.Name, symTerm, i); err != nil {
			errs = append(errs, err)
		}
	}
	return st, errs
}
