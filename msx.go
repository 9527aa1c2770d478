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

// Package msx implements a multi-species water-quality reaction network
// model for drinking-water distribution systems. It loads and validates the
// WNTR/EPANET-MSX JSON project format — species, constants, parameters,
// terms, and per-species pipe and tank reaction expressions — and compiles
// the expressions into pure evaluable form for an external hydraulic/
// transport solver to integrate.
package msx

import (
	"fmt"
	"sort"
)

// Version gives the model version number.
const Version = "0.1.0"

// TargetType identifies the reactor class a reaction applies within.
type TargetType string

const (
	// Pipe reactions take place in pipes, where both bulk and wall
	// species exist.
	Pipe TargetType = "pipe"
	// Tank reactions take place in storage tanks, which have no wall
	// surface, so only bulk species may react.
	Tank TargetType = "tank"
)

// ExpressionType distinguishes how the solver treats a reaction expression.
type ExpressionType string

const (
	// Rate expressions give dC/dt, integrated over time.
	Rate ExpressionType = "rate"
	// Equilibrium expressions equal zero, defining an algebraic
	// constraint solved jointly with the rate species at each step.
	Equilibrium ExpressionType = "equil"
	// Formula expressions directly give a species' value as a function
	// of other species, recomputed on demand with no integration state.
	Formula ExpressionType = "formula"
)

// ReactionConfig is one reaction assignment as written in a project file.
type ReactionConfig struct {
	Species    string         `json:"species_name"`
	Type       ExpressionType `json:"expression_type"`
	Expression string         `json:"expression"`
	Note       string         `json:"note,omitempty"`
}

// ReactionSystem holds the raw chemistry declarations of a project file.
type ReactionSystem struct {
	Species       []Species        `json:"species"`
	Constants     []Constant       `json:"constants"`
	Parameters    []Parameter      `json:"parameters"`
	Terms         []Term           `json:"terms"`
	PipeReactions []ReactionConfig `json:"pipe_reactions"`
	TankReactions []ReactionConfig `json:"tank_reactions"`
}

// Project is the complete contents of a project file. It is raw data:
// construct a Model from it to validate and compile it.
type Project struct {
	SchemaVersion string   `json:"wntr-version"`
	Name          string   `json:"name"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	References    []string `json:"references"`

	ReactionSystem ReactionSystem `json:"reaction_system"`
	NetworkData    NetworkData    `json:"network_data"`
	Options        Options        `json:"options"`
}

// Reaction is a compiled reaction assignment.
type Reaction struct {
	Species string
	Target  TargetType
	Type    ExpressionType
	Expr    *Expression
	Note    string
}

// Model is the validated, compiled aggregate of a project: the symbol
// table, compiled reactions, network data bindings, and solver options.
// A Model is immutable after construction and safe for concurrent use.
type Model struct {
	name        string
	title       string
	description string
	references  []string

	species      []Species
	speciesIndex map[string]int
	constants    []Constant
	parameters   []Parameter
	terms        []Term
	termExpr     map[string]string // fully term-expanded expression text

	symbols symbolTable

	pipe map[string]*Reaction
	tank map[string]*Reaction

	quality   map[string]overrideChain
	paramVals map[string]overrideChain

	network NetworkData
	options Options

	project *Project
}

// NewModel validates and compiles p into a Model. Construction is
// all-or-nothing: if any check fails, no model is returned and the error is
// a *ValidationError aggregating every violation found — duplicate
// definitions, cyclic terms, unresolved identifiers, wall species with tank
// reactions, network data referring to undeclared names, and out-of-range
// options.
func NewModel(p *Project) (*Model, error) {
	sys := &p.ReactionSystem

	symbols, violations := buildSymbolTable(sys)

	for _, s := range sys.Species {
		if s.Type != Bulk && s.Type != Wall {
			violations = append(violations, fmt.Errorf(
				"msx: species %q: species_type must be %q or %q, but is %q", s.Name, Bulk, Wall, s.Type))
		}
		if s.Atol != nil && *s.Atol <= 0 {
			violations = append(violations, fmt.Errorf(
				"msx: species %q: atol must be positive, but is %g", s.Name, *s.Atol))
		}
		if s.Rtol != nil && *s.Rtol <= 0 {
			violations = append(violations, fmt.Errorf(
				"msx: species %q: rtol must be positive, but is %g", s.Name, *s.Rtol))
		}
	}

	termExpr, errs := expandTerms(sys.Terms)
	violations = append(violations, errs...)

	m := &Model{
		name:         p.Name,
		title:        p.Title,
		description:  p.Description,
		references:   p.References,
		species:      sys.Species,
		speciesIndex: make(map[string]int, len(sys.Species)),
		constants:    sys.Constants,
		parameters:   sys.Parameters,
		terms:        sys.Terms,
		termExpr:     termExpr,
		symbols:      symbols,
		pipe:         make(map[string]*Reaction, len(sys.PipeReactions)),
		tank:         make(map[string]*Reaction, len(sys.TankReactions)),
		network:      p.NetworkData,
		options:      p.Options,
		project:      p,
	}
	for i, s := range sys.Species {
		m.speciesIndex[s.Name] = i
	}

	// Compile the term expressions themselves so identifier problems
	// inside an unused term are still caught at construction.
	for _, t := range sys.Terms {
		owner := fmt.Sprintf("term %q", t.Name)
		if _, errs := compileExpression(termExpr[t.Name], owner, symbols, nil, sys.Constants); len(errs) > 0 {
			violations = append(violations, errs...)
		}
	}

	violations = append(violations, m.compileReactions(sys.PipeReactions, Pipe)...)
	violations = append(violations, m.compileReactions(sys.TankReactions, Tank)...)

	violations = append(violations, validateNetworkData(&p.NetworkData, sys, symbols)...)
	violations = appendViolations(violations, p.Options.Validate())

	for name := range p.Options.Report.Species {
		if _, ok := m.speciesIndex[name]; !ok {
			violations = append(violations, fmt.Errorf(
				"msx: options: report refers to undeclared species %q", name))
		}
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	m.buildChains()
	return m, nil
}

// compileReactions compiles the reaction assignments for one target,
// returning all violations found.
func (m *Model) compileReactions(reactions []ReactionConfig, target TargetType) []error {
	var errs []error
	dst := m.pipe
	if target == Tank {
		dst = m.tank
	}
	for _, r := range reactions {
		switch r.Type {
		case Rate, Equilibrium, Formula:
		default:
			errs = append(errs, fmt.Errorf(
				"msx: %s reaction for %q: expression_type must be %q, %q, or %q, but is %q",
				target, r.Species, Rate, Equilibrium, Formula, r.Type))
			continue
		}
		sym, ok := m.symbols[r.Species]
		if !ok || sym.kind != symSpecies {
			errs = append(errs, fmt.Errorf(
				"msx: %s reaction refers to undeclared species %q", target, r.Species))
			continue
		}
		if target == Tank && m.species[sym.index].Type == Wall {
			// Tanks have no pipe wall, so a wall species cannot react
			// there.
			errs = append(errs, fmt.Errorf(
				"msx: tank reaction for %q: wall species cannot have tank reactions", r.Species))
			continue
		}
		if prior, ok := dst[r.Species]; ok {
			errs = append(errs, fmt.Errorf(
				"msx: species %q already has a %s %s expression; at most one %s reaction per species",
				r.Species, target, prior.Type, target))
			continue
		}
		owner := fmt.Sprintf("%s %s expression for species %q", target, r.Type, r.Species)
		expr, cerrs := compileExpression(r.Expression, owner, m.symbols, m.termExpr, m.constants)
		if len(cerrs) > 0 {
			errs = append(errs, cerrs...)
			continue
		}
		dst[r.Species] = &Reaction{
			Species: r.Species,
			Target:  target,
			Type:    r.Type,
			Expr:    expr,
			Note:    r.Note,
		}
	}
	return errs
}

// buildChains materializes the per-element override chains for initial
// quality and parameter values. It runs only after validation has passed.
func (m *Model) buildChains() {
	m.quality = make(map[string]overrideChain, len(m.species))
	for _, s := range m.species {
		c := overrideChain{} // absent record: global default of zero
		if iq, ok := m.network.InitialQuality[s.Name]; ok {
			c = overrideChain{global: iq.GlobalValue, byNode: iq.NodeValues, byLink: iq.LinkValues}
		}
		m.quality[s.Name] = c
	}
	m.paramVals = make(map[string]overrideChain, len(m.parameters))
	for _, p := range m.parameters {
		c := overrideChain{global: p.GlobalValue}
		if pv, ok := m.network.ParameterValues[p.Name]; ok {
			// Pipes are links; tanks are nodes.
			c.byLink = pv.PipeValues
			c.byNode = pv.TankValues
		}
		m.paramVals[p.Name] = c
	}
}

// Name returns the project's short name.
func (m *Model) Name() string { return m.name }

// Title returns the project's title.
func (m *Model) Title() string { return m.title }

// Description returns the project's description.
func (m *Model) Description() string { return m.description }

// References returns the project's literature references.
func (m *Model) References() []string {
	r := make([]string, len(m.references))
	copy(r, m.references)
	return r
}

// Species returns the declared species in declaration order.
func (m *Model) Species() []Species {
	s := make([]Species, len(m.species))
	copy(s, m.species)
	return s
}

// Constants returns the declared constants in declaration order.
func (m *Model) Constants() []Constant {
	c := make([]Constant, len(m.constants))
	copy(c, m.constants)
	return c
}

// Parameters returns the declared parameters in declaration order.
func (m *Model) Parameters() []Parameter {
	p := make([]Parameter, len(m.parameters))
	copy(p, m.parameters)
	return p
}

// Terms returns the declared terms in declaration order.
func (m *Model) Terms() []Term {
	t := make([]Term, len(m.terms))
	copy(t, m.terms)
	return t
}

// Constant looks up a constant's value by name.
func (m *Model) Constant(name string) (float64, bool) {
	sym, ok := m.symbols[name]
	if !ok || sym.kind != symConstant {
		return 0, false
	}
	return m.constants[sym.index].Value, true
}

// Reaction returns the compiled reaction for the given target and species,
// or false if no reaction is declared for that pair. There is no implicit
// default: a species with no reaction declared simply does not react in
// that target.
func (m *Model) Reaction(target TargetType, species string) (*Reaction, bool) {
	var r *Reaction
	var ok bool
	switch target {
	case Pipe:
		r, ok = m.pipe[species]
	case Tank:
		r, ok = m.tank[species]
	}
	return r, ok
}

// Reactions returns all compiled reactions for the given target, sorted by
// species name.
func (m *Model) Reactions(target TargetType) []*Reaction {
	src := m.pipe
	if target == Tank {
		src = m.tank
	}
	out := make([]*Reaction, 0, len(src))
	for _, r := range src {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Species < out[j].Species })
	return out
}

// InitialQuality resolves the effective initial value of a species at a
// network element. Priority order, highest first: a link-level override if
// the element is a link, a node-level override if it is a node, the species'
// global value, and finally zero.
func (m *Model) InitialQuality(species string, et ElementType, id string) (float64, error) {
	c, ok := m.quality[species]
	if !ok {
		return 0, fmt.Errorf("msx: initial quality of undeclared species %q", species)
	}
	return c.value(et, id), nil
}

// ParameterValue resolves the effective value of a parameter at a network
// element, applying per-pipe and per-tank overrides over the parameter's
// global value.
func (m *Model) ParameterValue(name string, et ElementType, id string) (float64, error) {
	c, ok := m.paramVals[name]
	if !ok {
		return 0, fmt.Errorf("msx: value of undeclared parameter %q", name)
	}
	return c.value(et, id), nil
}

// Tolerances returns the absolute and relative integration tolerances for a
// species, falling back to the global options where the species declares no
// override.
func (m *Model) Tolerances(species string) (atol, rtol float64, err error) {
	i, ok := m.speciesIndex[species]
	if !ok {
		return 0, 0, fmt.Errorf("msx: tolerances of undeclared species %q", species)
	}
	atol, rtol = m.options.Atol, m.options.Rtol
	if s := m.species[i]; s.Atol != nil {
		atol = *s.Atol
	}
	if s := m.species[i]; s.Rtol != nil {
		rtol = *s.Rtol
	}
	return atol, rtol, nil
}

// Sources returns the external sources for a species, keyed by node name.
func (m *Model) Sources(species string) map[string]Source {
	out := make(map[string]Source, len(m.network.Sources[species]))
	for node, s := range m.network.Sources[species] {
		out[node] = s
	}
	return out
}

// Pattern returns the multiplier series of a time pattern.
func (m *Model) Pattern(name string) ([]float64, bool) {
	p, ok := m.network.Patterns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(p))
	copy(out, p)
	return out, true
}

// Options returns the solver configuration.
func (m *Model) Options() Options { return m.options }

// Project returns the project data the model was built from.
func (m *Model) Project() *Project { return m.project }
