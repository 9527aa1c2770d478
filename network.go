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

import "fmt"

// ElementType identifies the category of a network element when resolving
// per-element data.
type ElementType int

const (
	// NodeElement is a junction, tank, or reservoir.
	NodeElement ElementType = iota
	// LinkElement is a pipe, pump, or valve.
	LinkElement
)

func (t ElementType) String() string {
	switch t {
	case NodeElement:
		return "node"
	case LinkElement:
		return "link"
	default:
		return "unknown"
	}
}

// InitialQuality holds the starting concentration for one species: a global
// default plus optional per-node and per-link overrides.
type InitialQuality struct {
	GlobalValue float64            `json:"global_value"`
	NodeValues  map[string]float64 `json:"node_values"`
	LinkValues  map[string]float64 `json:"link_values"`
}

// ParameterValues holds per-element overrides of a parameter's global value.
type ParameterValues struct {
	PipeValues map[string]float64 `json:"pipe_values"`
	TankValues map[string]float64 `json:"tank_values"`
}

// SourceType enumerates how an external species source injects mass into
// the network.
type SourceType string

const (
	Concentration SourceType = "CONCEN"    // fixed concentration of inflow
	MassBooster   SourceType = "MASS"      // fixed mass inflow rate
	FlowPaced     SourceType = "FLOWPACED" // concentration added to outflow
	SetPoint      SourceType = "SETPOINT"  // outflow concentration floor
)

var sourceTypeOptions = []SourceType{Concentration, MassBooster, FlowPaced, SetPoint}

// Source declares an external injection of a bulk species at a node.
// Application of sources belongs to the external solver; this layer only
// validates them.
type Source struct {
	SourceType SourceType `json:"source_type"`
	Strength   float64    `json:"strength"`
	Pattern    string     `json:"pattern,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// NetworkData binds species and parameters to network elements: initial
// quality, per-element parameter overrides, sources, and time patterns.
type NetworkData struct {
	InitialQuality  map[string]InitialQuality    `json:"initial_quality"`
	ParameterValues map[string]ParameterValues   `json:"parameter_values"`
	Sources         map[string]map[string]Source `json:"sources"`
	Patterns        map[string][]float64         `json:"patterns"`
}

// overrideChain resolves the effective per-element value of a quantity:
// a link-level override beats a node-level override beats the global value.
// The same chain serves initial quality and parameter values.
type overrideChain struct {
	global float64
	byNode map[string]float64
	byLink map[string]float64
}

func (c overrideChain) value(et ElementType, id string) float64 {
	switch et {
	case LinkElement:
		if v, ok := c.byLink[id]; ok {
			return v
		}
	case NodeElement:
		if v, ok := c.byNode[id]; ok {
			return v
		}
	}
	return c.global
}

// validateNetworkData checks the referential integrity of nd against the
// declarations in the symbol table, collecting every violation found.
func validateNetworkData(nd *NetworkData, sys *ReactionSystem, st symbolTable) []error {
	var errs []error
	for name := range nd.InitialQuality {
		sym, ok := st[name]
		if !ok || sym.kind != symSpecies {
			errs = append(errs, fmt.Errorf("msx: initial_quality refers to undeclared species %q", name))
		}
	}
	for name := range nd.ParameterValues {
		sym, ok := st[name]
		if !ok || sym.kind != symParameter {
			errs = append(errs, fmt.Errorf("msx: parameter_values refers to undeclared parameter %q", name))
		}
	}
	for name, byNode := range nd.Sources {
		sym, ok := st[name]
		if !ok || sym.kind != symSpecies {
			errs = append(errs, fmt.Errorf("msx: source refers to undeclared species %q", name))
		} else if sys.Species[sym.index].Type != Bulk {
			errs = append(errs, fmt.Errorf("msx: source for species %q: only bulk species may have sources", name))
		}
		for node, src := range byNode {
			var found bool
			for _, t := range sourceTypeOptions {
				if src.SourceType == t {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, fmt.Errorf("msx: source for species %q at node %q: unknown source type %q",
					name, node, src.SourceType))
			}
			if src.Pattern != "" {
				if _, ok := nd.Patterns[src.Pattern]; !ok {
					errs = append(errs, fmt.Errorf("msx: source for species %q at node %q refers to undeclared pattern %q",
						name, node, src.Pattern))
				}
			}
		}
	}
	for name, multipliers := range nd.Patterns {
		if len(multipliers) == 0 {
			errs = append(errs, fmt.Errorf("msx: pattern %q has no multipliers", name))
		}
	}
	return errs
}
