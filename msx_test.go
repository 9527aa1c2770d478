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
	"math"
	"reflect"
	"strings"
	"testing"
)

// testProject returns the arsenic oxidation/adsorption example system.
func testProject() *Project {
	return &Project{
		Name: "arsenic_chloramine",
		ReactionSystem: ReactionSystem{
			Species: []Species{
				{Name: "AS3", Type: Bulk, Units: "UG"},
				{Name: "AS5", Type: Bulk, Units: "UG"},
				{Name: "AStot", Type: Bulk, Units: "UG"},
				{Name: "AS5s", Type: Wall, Units: "UG"},
				{Name: "NH2CL", Type: Bulk, Units: "MG"},
			},
			Constants: []Constant{
				{Name: "Ka", Value: 10.0, Units: "1 / (MG * HR)"},
				{Name: "Kb", Value: 0.1, Units: "1 / HR"},
				{Name: "K1", Value: 5.0, Units: "M^3 / UG"},
				{Name: "K2", Value: 1.0, Units: "1 / HR"},
				{Name: "Smax", Value: 50.0, Units: "UG / M^2"},
			},
			Terms: []Term{
				{Name: "Ks", Expression: "K1/K2"},
			},
			PipeReactions: []ReactionConfig{
				{Species: "AS3", Type: Rate, Expression: "-Ka*AS3*NH2CL"},
				{Species: "AS5", Type: Rate, Expression: "Ka*AS3*NH2CL"},
				{Species: "NH2CL", Type: Rate, Expression: "-Kb*NH2CL"},
				{Species: "AS5s", Type: Equilibrium, Expression: "Ks*Smax*AS5/(1+Ks*AS5) - AS5s"},
				{Species: "AStot", Type: Formula, Expression: "AS3 + AS5"},
			},
			TankReactions: []ReactionConfig{
				{Species: "AS3", Type: Rate, Expression: "-Ka*AS3*NH2CL"},
				{Species: "AS5", Type: Rate, Expression: "Ka*AS3*NH2CL"},
				{Species: "NH2CL", Type: Rate, Expression: "-Kb*NH2CL"},
				{Species: "AStot", Type: Formula, Expression: "AS3 + AS5"},
			},
		},
		NetworkData: NetworkData{
			InitialQuality: map[string]InitialQuality{
				"AS3":   {GlobalValue: 0, NodeValues: map[string]float64{"N1": 5.0}},
				"NH2CL": {GlobalValue: 0.003},
			},
		},
		Options: DefaultOptions(),
	}
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(testProject())
	if err != nil {
		t.Fatal(err)
	}
	if have, want := len(m.Species()), 5; have != want {
		t.Errorf("species count: have %d, want %d", have, want)
	}
	if v, ok := m.Constant("Ka"); !ok || v != 10.0 {
		t.Errorf("Constant(Ka): have %g, %v; want 10, true", v, ok)
	}
	if _, ok := m.Constant("AS3"); ok {
		t.Error("Constant(AS3) should not resolve: AS3 is a species")
	}

	r, ok := m.Reaction(Pipe, "AS3")
	if !ok {
		t.Fatal("no pipe reaction for AS3")
	}
	if r.Type != Rate {
		t.Errorf("AS3 pipe reaction type: have %q, want %q", r.Type, Rate)
	}
	// -Ka*AS3*NH2CL with Ka=10, AS3=2, NH2CL=0.5 is exactly -10.
	v, err := r.Expr.Eval(map[string]float64{"AS3": 2.0, "NH2CL": 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if v != -10.0 {
		t.Errorf("rate: have %g, want -10", v)
	}

	if _, ok := m.Reaction(Tank, "AS5s"); ok {
		t.Error("wall species AS5s should have no tank reaction")
	}
	if _, ok := m.Reaction(Tank, "AS3"); !ok {
		t.Error("no tank reaction for AS3")
	}
}

// TestNewModelDeterminism checks that two constructions from the same input
// answer queries identically.
func TestNewModelDeterminism(t *testing.T) {
	m1, err := NewModel(testProject())
	if err != nil {
		t.Fatal(err)
	}
	m2, err := NewModel(testProject())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m1.Species(), m2.Species()) {
		t.Error("species differ between constructions")
	}
	for _, target := range []TargetType{Pipe, Tank} {
		r1 := m1.Reactions(target)
		r2 := m2.Reactions(target)
		if len(r1) != len(r2) {
			t.Fatalf("%s reaction count: %d != %d", target, len(r1), len(r2))
		}
		state := map[string]float64{"AS3": 1.5, "AS5": 2.5, "AS5s": 3.0, "NH2CL": 0.25}
		for i := range r1 {
			if r1[i].Species != r2[i].Species || r1[i].Type != r2[i].Type {
				t.Errorf("%s reaction %d differs: %v vs %v", target, i, r1[i], r2[i])
			}
			v1, err1 := r1[i].Expr.Eval(state)
			v2, err2 := r2[i].Expr.Eval(state)
			if err1 != nil || err2 != nil {
				t.Fatal(err1, err2)
			}
			if v1 != v2 {
				t.Errorf("%s reaction for %s: %g != %g", target, r1[i].Species, v1, v2)
			}
		}
	}
}

func TestEquilibriumTermExpansion(t *testing.T) {
	m, err := NewModel(testProject())
	if err != nil {
		t.Fatal(err)
	}
	r, ok := m.Reaction(Pipe, "AS5s")
	if !ok {
		t.Fatal("no pipe reaction for AS5s")
	}
	if r.Type != Equilibrium {
		t.Errorf("AS5s pipe reaction type: have %q, want %q", r.Type, Equilibrium)
	}
	// Ks = K1/K2 = 5. With AS5=1, AS5s=0:
	// 5*50*1/(1+5*1) - 0 = 250/6.
	v, err := r.Expr.Eval(map[string]float64{"AS5": 1.0, "AS5s": 0.0})
	if err != nil {
		t.Fatal(err)
	}
	if want := 250.0 / 6.0; math.Abs(v-want) > 1e-12 {
		t.Errorf("equilibrium: have %g, want %g", v, want)
	}
	if want := "(K1/K2)*Smax*AS5/(1+(K1/K2)*AS5) - AS5s"; r.Expr.Expanded() != want {
		t.Errorf("expanded: have %q, want %q", r.Expr.Expanded(), want)
	}
}

func TestDuplicateDefinition(t *testing.T) {
	p := testProject()
	// A constant reusing a species name collides even across namespaces.
	p.ReactionSystem.Constants = append(p.ReactionSystem.Constants, Constant{Name: "AS3", Value: 1})
	_, err := NewModel(p)
	if err == nil {
		t.Fatal("construction should fail")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type: have %T, want *ValidationError", err)
	}
	var found bool
	for _, v := range verr.Violations {
		if d, ok := v.(*DuplicateDefinitionError); ok {
			found = true
			if d.Name != "AS3" {
				t.Errorf("duplicate name: have %q, want %q", d.Name, "AS3")
			}
			if d.Prior != "species" || d.Kind != "constant" {
				t.Errorf("duplicate kinds: have %s/%s, want constant/species", d.Kind, d.Prior)
			}
		}
	}
	if !found {
		t.Errorf("no DuplicateDefinitionError among violations: %v", err)
	}
}

func TestHydraulicVariableCollision(t *testing.T) {
	p := testProject()
	p.ReactionSystem.Parameters = append(p.ReactionSystem.Parameters, Parameter{Name: "Av", GlobalValue: 1})
	_, err := NewModel(p)
	if err == nil {
		t.Fatal("construction should fail")
	}
	if !strings.Contains(err.Error(), "hydraulic variable") {
		t.Errorf("error should name the hydraulic variable collision: %v", err)
	}
}

func TestTankWallReaction(t *testing.T) {
	p := testProject()
	p.ReactionSystem.TankReactions = append(p.ReactionSystem.TankReactions,
		ReactionConfig{Species: "AS5s", Type: Rate, Expression: "-K2*AS5s"})
	_, err := NewModel(p)
	if err == nil {
		t.Fatal("construction should fail")
	}
	if !strings.Contains(err.Error(), "wall species cannot have tank reactions") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDuplicateReaction(t *testing.T) {
	p := testProject()
	p.ReactionSystem.PipeReactions = append(p.ReactionSystem.PipeReactions,
		ReactionConfig{Species: "AS3", Type: Formula, Expression: "AS5"})
	_, err := NewModel(p)
	if err == nil {
		t.Fatal("construction should fail")
	}
	if !strings.Contains(err.Error(), `species "AS3" already has a pipe rate expression`) {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestAggregatedViolations checks that one construction reports every
// problem, not just the first.
func TestAggregatedViolations(t *testing.T) {
	p := testProject()
	sys := &p.ReactionSystem
	sys.Constants = append(sys.Constants, Constant{Name: "Ka", Value: 2}) // duplicate
	sys.PipeReactions[0].Expression = "-Ka*AS3*NH2CL*Kx"                  // unresolved Kx
	sys.TankReactions = append(sys.TankReactions,
		ReactionConfig{Species: "AS5s", Type: Rate, Expression: "-K2*AS5s"}) // wall species in tank
	p.Options.Solver = "simplex"                                             // bad option
	_, err := NewModel(p)
	if err == nil {
		t.Fatal("construction should fail")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("error type: have %T, want *ValidationError", err)
	}
	if len(verr.Violations) < 4 {
		t.Errorf("violation count: have %d, want at least 4:\n%v", len(verr.Violations), err)
	}
}

func TestTolerances(t *testing.T) {
	p := testProject()
	atol := 1e-6
	p.ReactionSystem.Species[0].Atol = &atol // AS3
	m, err := NewModel(p)
	if err != nil {
		t.Fatal(err)
	}
	a, r, err := m.Tolerances("AS3")
	if err != nil {
		t.Fatal(err)
	}
	if a != 1e-6 || r != p.Options.Rtol {
		t.Errorf("AS3 tolerances: have %g, %g; want 1e-6, %g", a, r, p.Options.Rtol)
	}
	a, r, err = m.Tolerances("AS5")
	if err != nil {
		t.Fatal(err)
	}
	if a != p.Options.Atol || r != p.Options.Rtol {
		t.Errorf("AS5 tolerances: have %g, %g; want global defaults", a, r)
	}
	if _, _, err := m.Tolerances("nope"); err == nil {
		t.Error("tolerances of undeclared species should fail")
	}
}

func TestReactionsSorted(t *testing.T) {
	m, err := NewModel(testProject())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, r := range m.Reactions(Pipe) {
		names = append(names, r.Species)
	}
	want := []string{"AS3", "AS5", "AS5s", "AStot", "NH2CL"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("have %v, want %v", names, want)
	}
}
